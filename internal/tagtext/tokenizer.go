package tagtext

import (
	"bytes"
	"io"
	"log/slog"
)

// DefaultBufferSize is the sliding window kept over the input stream.
// Tag patterns never span more than a window, and compaction keeps the
// resident memory bounded irrespective of stream size.
const DefaultBufferSize = 1 << 20

// Tokenizer streams a byte source and produces a forward-only sequence of
// tokens. It buffers a fixed window of unconsumed bytes: when no tag
// matches in the remaining buffer, more bytes are pulled from the source;
// when the consumed prefix exceeds half the window, the buffer is
// compacted and the absolute offset counter advanced, so offsets stay
// correct while memory stays bounded.
type Tokenizer struct {
	r       io.Reader
	logger  *slog.Logger
	bufSize int

	buf     []byte
	pos     int   // consumed prefix of buf
	offset  int64 // absolute stream offset of buf[0]
	parent  *Token
	pending *Token
	eof     bool // source exhausted
	done    bool // final data token emitted
}

// TokenizerOption configures a Tokenizer.
type TokenizerOption func(*Tokenizer)

// WithBufferSize overrides the sliding window size. Mainly useful in
// tests that want to exercise compaction with small inputs.
func WithBufferSize(n int) TokenizerOption {
	return func(t *Tokenizer) {
		if n > 0 {
			t.bufSize = n
		}
	}
}

// WithLogger sets the logger used for tokenization warnings.
func WithLogger(logger *slog.Logger) TokenizerOption {
	return func(t *Tokenizer) {
		t.logger = logger
	}
}

// NewTokenizer creates a Tokenizer reading from r.
func NewTokenizer(r io.Reader, opts ...TokenizerOption) *Tokenizer {
	t := &Tokenizer{
		r:       r,
		bufSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = slog.Default()
	}
	return t
}

// Next returns the next token, or (nil, nil) at end of stream. The final
// token is always a Data token holding the unmatched tail of the input,
// even when that tail is empty.
func (t *Tokenizer) Next() (*Token, error) {
	if t.pending != nil {
		tok := t.pending
		t.pending = nil
		return tok, nil
	}
	if t.done {
		return nil, nil
	}

	for {
		m, found := findTag(t.buf, t.pos)
		if !found {
			if !t.eof {
				if err := t.fill(); err != nil {
					return nil, err
				}
				continue
			}
			tok := t.dataToken(t.pos, len(t.buf))
			t.done = true
			return tok, nil
		}

		var data *Token
		if m.start > t.pos {
			data = t.dataToken(t.pos, m.start)
		}
		tag := t.tagToken(m)
		t.pos = m.end
		t.compact()

		if data != nil {
			t.pending = tag
			return data, nil
		}
		return tag, nil
	}
}

// fill appends up to one window of fresh bytes to the buffer.
func (t *Tokenizer) fill() error {
	chunk := make([]byte, t.bufSize)
	n, err := io.ReadFull(t.r, chunk)
	t.buf = append(t.buf, chunk[:n]...)
	if err == io.EOF || err == io.ErrUnexpectedEOF {
		t.eof = true
		return nil
	}
	return err
}

// compact discards the consumed prefix once it exceeds half the window.
func (t *Tokenizer) compact() {
	if t.pos <= t.bufSize/2 {
		return
	}
	t.offset += int64(t.pos)
	n := copy(t.buf, t.buf[t.pos:])
	t.buf = t.buf[:n]
	t.pos = 0
}

// dataToken emits buf[start:end] as a Data token. Content is copied out
// of the buffer because compaction reuses the backing array.
func (t *Tokenizer) dataToken(start, end int) *Token {
	content := make([]byte, end-start)
	copy(content, t.buf[start:end])
	return &Token{
		Kind:    KindData,
		Content: content,
		Parent:  t.parent,
		Offset:  t.offset + int64(start),
	}
}

// tagToken emits the matched tag and maintains the ancestor chain: an
// open tag becomes the new innermost parent; a close tag unwinds the
// chain to the parent of the nearest enclosing tag with the same name.
// An unmatched close tag is logged and leaves the chain untouched.
func (t *Tokenizer) tagToken(m tagMatch) *Token {
	if m.kind == KindCloseTag {
		found := false
		for p := t.parent; p != nil; p = p.Parent {
			if p.Tag == m.name {
				t.parent = p.Parent
				found = true
				break
			}
		}
		if !found {
			t.logger.Warn("unmatched close tag",
				"tag", m.name,
				"offset", t.offset+int64(m.start),
			)
		}
	}

	content := make([]byte, m.end-m.start)
	copy(content, t.buf[m.start:m.end])
	tok := &Token{
		Kind:    m.kind,
		Content: content,
		Tag:     m.name,
		Parent:  t.parent,
		Offset:  t.offset + int64(m.start),
	}
	if m.kind == KindOpenTag {
		t.parent = tok
	}
	return tok
}

// tagMatch describes one recognized tag inside the buffer.
type tagMatch struct {
	start, end int
	kind       Kind
	name       string
}

// findTag scans buf from pos for the earliest complete tag. A candidate
// cut off by the end of the buffer does not match; the caller pulls more
// input and rescans, or emits the tail as data at end of stream.
func findTag(buf []byte, pos int) (tagMatch, bool) {
	for i := pos; i < len(buf); {
		j := bytes.IndexByte(buf[i:], '<')
		if j < 0 {
			break
		}
		i += j
		if m, ok := matchTag(buf, i); ok {
			return m, true
		}
		i++
	}
	return tagMatch{}, false
}

// matchTag attempts to recognize a tag starting at buf[start] == '<'.
// Two shapes are accepted:
//
//	</name>          close tag
//	<name attrs?>    open tag
//
// where name is [a-z-]+ and attribute text excludes control characters,
// '<', '>' and high bytes, except that a bare <word> escape is permitted
// inline (the level dump embeds such markers in attribute text).
func matchTag(buf []byte, start int) (tagMatch, bool) {
	i := start + 1
	if i < len(buf) && buf[i] == '/' {
		i++
		nameStart := i
		for i < len(buf) && isTagNameByte(buf[i]) {
			i++
		}
		if i == nameStart || i >= len(buf) || buf[i] != '>' {
			return tagMatch{}, false
		}
		return tagMatch{start: start, end: i + 1, kind: KindCloseTag, name: string(buf[nameStart:i])}, true
	}

	nameStart := i
	for i < len(buf) && isTagNameByte(buf[i]) {
		i++
	}
	if i == nameStart || i >= len(buf) {
		return tagMatch{}, false
	}
	name := string(buf[nameStart:i])

	switch buf[i] {
	case '>':
		return tagMatch{start: start, end: i + 1, kind: KindOpenTag, name: name}, true
	case ' ':
		i++
	default:
		return tagMatch{}, false
	}

	for i < len(buf) {
		switch c := buf[i]; {
		case c == '>':
			return tagMatch{start: start, end: i + 1, kind: KindOpenTag, name: name}, true
		case c == '<':
			k := i + 1
			for k < len(buf) && isEscapeNameByte(buf[k]) {
				k++
			}
			if k == i+1 || k >= len(buf) || buf[k] != '>' {
				return tagMatch{}, false
			}
			i = k + 1
		case c < 0x20 || c >= 0x80:
			return tagMatch{}, false
		default:
			i++
		}
	}
	return tagMatch{}, false
}

func isTagNameByte(c byte) bool {
	return c == '-' || (c >= 'a' && c <= 'z')
}

func isEscapeNameByte(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
