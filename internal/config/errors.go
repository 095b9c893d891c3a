package config

import "errors"

// Configuration validation errors.
// These errors are returned by Config.Validate() and provide specific
// information about what is wrong with the configuration.
//
// Design decision: We use package-level sentinel errors rather than
// creating new error instances in Validate(). This allows callers to use
// errors.Is() for programmatic error handling while still providing
// human-readable messages.
var (
	// ErrNoReport is returned when no desync report path is given.
	ErrNoReport = errors.New("no desync report specified: provide a report directory or zip")

	// ErrInvalidBufferSize is returned when the tokenizer buffer size is
	// not positive. The tokenizer needs at least one byte of window to
	// make progress.
	ErrInvalidBufferSize = errors.New("invalid buffer size: must be positive")

	// ErrInvalidChunkWarnThreshold is returned when the chunk warning
	// threshold is negative. Use 0 to disable the warning.
	ErrInvalidChunkWarnThreshold = errors.New("invalid chunk warn threshold: must be non-negative")

	// ErrConflictingReportFormats is returned when both --json and --markdown
	// are specified. Only one output format can be used at a time.
	ErrConflictingReportFormats = errors.New("conflicting report formats: --json and --markdown cannot be used together")

	// ErrInvalidPattern is returned when a save-entry pattern from the
	// config file does not compile as a regular expression.
	ErrInvalidPattern = errors.New("invalid artifact pattern")
)
