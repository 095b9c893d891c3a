// Package diff localizes differences between the reference and desynced
// captures: Values walks two decoded value trees and reports
// path-qualified entries, while TaggedStreams aligns two tagged-text
// token streams chunk by chunk with a longest-common-subsequence
// matcher.
package diff
