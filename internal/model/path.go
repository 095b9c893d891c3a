package model

import (
	"strconv"
	"strings"
)

// SegmentKind identifies how a path segment addresses a child value.
type SegmentKind int

const (
	// SegmentKey addresses a map entry by its key string.
	SegmentKey SegmentKind = iota

	// SegmentIndex addresses a list element by position.
	SegmentIndex

	// SegmentDerived addresses an associative pair entry by the decoded
	// value of its own "key" field rather than by structural position.
	SegmentDerived
)

// PathSegment is one step of a diff path: a map key, a list index, or a
// derived key substituted from a pair record.
type PathSegment struct {
	kind    SegmentKind
	key     string
	index   int
	derived *Value
}

// Key returns a segment addressing a map entry.
func Key(k string) PathSegment {
	return PathSegment{kind: SegmentKey, key: k}
}

// Index returns a segment addressing a list element.
func Index(i int) PathSegment {
	return PathSegment{kind: SegmentIndex, index: i}
}

// Derived returns a segment carrying the logical key of an associative
// pair entry. The key is a decoded value because script data allows
// booleans and floats as mapping keys, not just strings.
func Derived(key *Value) PathSegment {
	return PathSegment{kind: SegmentDerived, derived: key}
}

// Kind returns the segment kind.
func (s PathSegment) Kind() SegmentKind {
	return s.kind
}

// Equal reports whether two segments address the same child.
func (s PathSegment) Equal(other PathSegment) bool {
	if s.kind != other.kind {
		return false
	}
	switch s.kind {
	case SegmentKey:
		return s.key == other.key
	case SegmentIndex:
		return s.index == other.index
	case SegmentDerived:
		return s.derived.Equal(other.derived)
	default:
		return false
	}
}

// String renders the segment for display: ".name" for keys, "[3]" for
// indices, and `["x"]` for derived keys (canonical value text inside
// brackets).
func (s PathSegment) String() string {
	switch s.kind {
	case SegmentKey:
		return "." + s.key
	case SegmentIndex:
		return "[" + strconv.Itoa(s.index) + "]"
	case SegmentDerived:
		return "[" + s.derived.String() + "]"
	default:
		return "<?>"
	}
}

// Path is an ordered sequence of segments from the root of a decoded
// value to the location of a difference.
type Path []PathSegment

// Child returns a new path with seg appended. The receiver is copied so
// sibling recursions in the diff never alias each other's backing array.
func (p Path) Child(seg PathSegment) Path {
	child := make(Path, len(p), len(p)+1)
	copy(child, p)
	return append(child, seg)
}

// ReplaceLast returns a new path whose final segment is replaced by seg.
// On an empty path the segment is appended instead; this happens when an
// associative pair record sits at the root of a decoded value.
func (p Path) ReplaceLast(seg PathSegment) Path {
	if len(p) == 0 {
		return Path{seg}
	}
	replaced := make(Path, len(p))
	copy(replaced, p)
	replaced[len(replaced)-1] = seg
	return replaced
}

// String renders the full path, e.g. `data[2].name` or `data["x"]`.
// The leading dot of a key segment in first position is dropped.
func (p Path) String() string {
	if len(p) == 0 {
		return "(root)"
	}
	var sb strings.Builder
	for i, seg := range p {
		text := seg.String()
		if i == 0 {
			text = strings.TrimPrefix(text, ".")
		}
		sb.WriteString(text)
	}
	return sb.String()
}
