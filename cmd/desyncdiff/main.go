// Package main provides the entry point for the desyncdiff CLI.
//
// desyncdiff compares the reference and desynced level captures inside
// a Factorio desync report and pinpoints where the two game states
// diverge.
//
// Usage:
//
//	desyncdiff analyze <desync-report-dir-or-zip>
//	desyncdiff dat2json <file.dat>...
//
// See --help for all available options.
package main

// main is the entry point for desyncdiff.
func main() {
	Execute()
}
