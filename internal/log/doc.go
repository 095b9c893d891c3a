// Package log configures the slog logger shared by the CLI and the
// analysis passes. Diagnostics that the analysis can survive (unmatched
// close tags, oversized chunks) are logged here rather than woven into
// return values, keeping the token and diff pipelines pure pull-based
// sequences.
package log
