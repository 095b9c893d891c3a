// Package archive locates and extracts the artifacts inside a desync
// report: the reference and desynced level zips, and within each of
// them the heuristic log, the tagged level dump and the script state
// file.
//
// Zip entries are not seekable, and the byte-equality fast path needs to
// rewind both sides of every role, so matched entries are extracted to
// temporary files. The extraction pass also computes a BLAKE2b-256
// digest of each artifact for the report and the history database.
// Malformed archives fail fast; there is no recovery.
package archive
