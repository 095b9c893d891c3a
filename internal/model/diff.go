package model

// DiffEntry is one path-qualified difference between two decoded value
// trees. A nil Left marks an addition on the desynced side; a nil Right
// marks a removal.
type DiffEntry struct {
	// Path locates the difference inside the decoded value.
	Path Path

	// Left is the reference-side value, or nil if the entry only exists
	// on the desynced side.
	Left *Value

	// Right is the desynced-side value, or nil if the entry only exists
	// on the reference side.
	Right *Value
}

// OpcodeBlock is one non-equal alignment run from the chunked sequence
// diff of two tagged-text token streams.
type OpcodeBlock struct {
	// Op is the alignment operation: "replace", "delete" or "insert".
	Op string

	// RefStart/RefEnd bound the affected token range on the reference
	// side; DesStart/DesEnd bound it on the desynced side.
	RefStart, RefEnd int
	DesStart, DesEnd int

	// RefPath and DesPath are the rendered ancestor paths of the first
	// token in each affected range. Either may be empty when the range
	// is empty or at root level.
	RefPath string
	DesPath string

	// RefContent and DesContent are the concatenated raw bytes of the
	// affected token ranges.
	RefContent []byte
	DesContent []byte
}
