// Package model defines the shared data types of desyncdiff: the generic
// value tree produced by binary decoding, path-qualified diff entries,
// artifact roles, and the aggregate analysis report.
//
// The package has no dependencies on other internal packages so that the
// decoder, the diff engines, and the report writers can all exchange data
// through it without import cycles.
package model
