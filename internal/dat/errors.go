package dat

import (
	"errors"
	"fmt"
)

// Decoding errors. These sentinels are wrapped into *FormatError by
// Decode so callers can both classify the failure with errors.Is and
// recover the format name and offset with errors.As.
var (
	// ErrUnknownFormat is returned when the requested format name has no
	// registered schema. Formats are never inferred from content.
	ErrUnknownFormat = errors.New("unknown dat format")

	// ErrTrailingData is returned when a top-level record decodes
	// successfully but does not consume the entire stream.
	ErrTrailingData = errors.New("trailing data after top-level record")

	// ErrNoSwitchCase is returned when a discriminant value has no entry
	// in its switch table.
	ErrNoSwitchCase = errors.New("no switch case for discriminant")

	// ErrRegionUnderflow is returned when a length-prefixed region is
	// not consumed exactly by its inner schema.
	ErrRegionUnderflow = errors.New("length-prefixed region not fully consumed")
)

// FormatError reports a fatal decoding failure for one artifact. It is
// fatal for that artifact only; the orchestrator continues with sibling
// roles.
type FormatError struct {
	// Format is the registered format name being decoded.
	Format string

	// Offset is the absolute byte offset the cursor had reached when
	// decoding failed.
	Offset int64

	// Err is the underlying cause.
	Err error
}

// Error returns a description including format name and offset.
func (e *FormatError) Error() string {
	return fmt.Sprintf("decode %q at offset %d: %v", e.Format, e.Offset, e.Err)
}

// Unwrap returns the underlying cause for errors.Is/As.
func (e *FormatError) Unwrap() error {
	return e.Err
}
