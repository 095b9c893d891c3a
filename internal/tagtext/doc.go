// Package tagtext tokenizes the SGML-like tagged-text artifacts found in
// desync reports (the heuristic log and the level_with_tags dump).
//
// The tokenizer is a single forward pass over a sliding window, so files
// of hundreds of megabytes never have to be materialized. Consumers pull
// tokens one at a time through the Source interface; Collapse and Chunker
// wrap a Source to simplify trivial elements and to split the stream into
// top-level chunks for the sequence diff.
package tagtext
