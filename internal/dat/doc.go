// Package dat decodes the versioned binary record formats found in level
// captures (script.dat, mod-settings.dat, achievements.dat and friends)
// into the generic value tree of the model package.
//
// Formats are described by composable schema nodes: fixed-width
// little-endian integers and floats, length-prefixed Latin-1 strings, the
// game's variable-width integer, and composite forms (struct, prefixed
// array, prefixed sub-region, switch on a sibling field, computed field,
// greedy repetition). The schema table is a closed variant registry
// resolved at startup; no reflection is involved even though the table
// itself is keyed by runtime format names.
//
// Any schema violation (unregistered format, truncated input, unknown
// discriminant, a length-prefixed region not consumed exactly) aborts
// decoding of the artifact with a *FormatError; partial results are
// discarded.
package dat
