// Package report renders analysis results in three formats: a
// human-readable text report for terminal use, JSON for machine
// consumption, and GitHub Flavored Markdown for sharing in issues and
// bug reports.
package report
