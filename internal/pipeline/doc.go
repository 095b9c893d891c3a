// Package pipeline orchestrates the per-artifact comparison of a desync
// report. Each artifact role is one step: a cheap byte-equality check
// first, then the role's diff strategy only when the artifacts actually
// differ. A schema violation in one role never aborts the others.
package pipeline
