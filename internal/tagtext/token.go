package tagtext

import (
	"fmt"
	"strings"
)

// Kind identifies the lexical class of a token.
type Kind int

const (
	// KindOpenTag is an opening tag, e.g. `<entity id=7>`.
	KindOpenTag Kind = iota + 1

	// KindCloseTag is a closing tag, e.g. `</entity>`.
	KindCloseTag

	// KindData is raw text between tags. A Data token may be empty;
	// the tokenizer always emits a trailing Data token at end of stream.
	KindData

	// KindCollapsed is a trivial element folded into a single token by
	// Collapse: an open tag, optional data, and its matching close tag.
	KindCollapsed
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindOpenTag:
		return "open-tag"
	case KindCloseTag:
		return "close-tag"
	case KindData:
		return "data"
	case KindCollapsed:
		return "collapsed"
	default:
		return "unknown"
	}
}

// Token is one immutable element of a tokenized tagged-text stream.
//
// Equality considers only (Kind, Content, Tag). Parent and Offset are
// excluded so that structurally identical tokens at different positions
// compare equal, which the sequence diff relies on to align streams.
type Token struct {
	// Kind is the lexical class of the token.
	Kind Kind

	// Content is the raw bytes of the token. Concatenating the content
	// of every token of a stream reproduces the input exactly.
	Content []byte

	// Tag is the tag name for open, close and collapsed tokens, and
	// empty for data tokens.
	Tag string

	// Parent points at the innermost open tag enclosing this token at
	// the moment it was emitted, or nil at root level. It is a
	// back-reference only walked upward for display; tokens do not own
	// their ancestors.
	Parent *Token

	// Offset is the absolute byte position of the token in the stream.
	Offset int64
}

// Equal reports whether two tokens are structurally identical,
// ignoring Parent and Offset.
func (t *Token) Equal(other *Token) bool {
	if t == nil || other == nil {
		return t == other
	}
	return t.Kind == other.Kind &&
		t.Tag == other.Tag &&
		string(t.Content) == string(other.Content)
}

// Key returns a string that two tokens share exactly when they are Equal.
// The sequence diff hashes tokens through this key.
func (t *Token) Key() string {
	var sb strings.Builder
	sb.Grow(len(t.Tag) + len(t.Content) + 2)
	sb.WriteByte(byte(t.Kind))
	sb.WriteString(t.Tag)
	sb.WriteByte(0x1f)
	sb.Write(t.Content)
	return sb.String()
}

// AncestorPath renders the open-tag chain above t, outermost first, one
// ancestor per line with increasing indentation:
//
//	<entities> pos=132
//	  <entity id=7> pos=154
//
// It returns the empty string for root-level tokens.
func AncestorPath(t *Token) string {
	var chain []*Token
	for p := t.Parent; p != nil; p = p.Parent {
		chain = append(chain, p)
	}

	var sb strings.Builder
	for i := len(chain) - 1; i >= 0; i-- {
		depth := len(chain) - 1 - i
		if depth > 0 {
			sb.WriteByte('\n')
		}
		fmt.Fprintf(&sb, "%s%s pos=%d", strings.Repeat("  ", depth), chain[i].Content, chain[i].Offset)
	}
	return sb.String()
}

// Source is a pull-based token stream. Next returns the next token, or
// (nil, nil) when the stream is exhausted. A non-nil error is fatal and
// terminates the stream.
type Source interface {
	Next() (*Token, error)
}
