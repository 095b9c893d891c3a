package tagtext

// Chunker partitions a token stream into top-level chunks for the
// sequence diff. A chunk boundary occurs immediately after any token at
// root nesting (Parent == nil) whose kind is not an open tag: a
// root-level close, data or collapsed token ends the chunk, while a
// root-level open tag keeps accumulating into the current chunk.
//
// Diffing whole level dumps in one sequence-alignment pass is far too
// slow, so the orchestrator aligns these chunks pairwise instead.
type Chunker struct {
	src  Source
	done bool
}

// NewChunker creates a Chunker over src.
func NewChunker(src Source) *Chunker {
	return &Chunker{src: src}
}

// Next returns the next chunk, or (nil, nil) when the stream is
// exhausted. A trailing partial chunk (stream ended while a tag was
// still open) is returned as-is.
func (c *Chunker) Next() ([]*Token, error) {
	if c.done {
		return nil, nil
	}

	var chunk []*Token
	for {
		tok, err := c.src.Next()
		if err != nil {
			return nil, err
		}
		if tok == nil {
			c.done = true
			if len(chunk) > 0 {
				return chunk, nil
			}
			return nil, nil
		}

		chunk = append(chunk, tok)
		if tok.Parent == nil && tok.Kind != KindOpenTag {
			return chunk, nil
		}
	}
}
