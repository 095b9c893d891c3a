package tagtext

// Collapse wraps a token source so that trivial elements become single
// Collapsed tokens: `<a>text</a>` and `<a></a>` each fold into one token
// whose content is the concatenation of the originals and whose tag,
// parent and offset come from the opening tag.
//
// This is a single non-recursive pass over the stream with a three-token
// lookahead window. A Collapsed token is never re-examined as a new
// opening tag in the same run, so nested trivial elements collapse only
// at their innermost level. That is intentional: the diff output must
// stay comparable across runs, so the pass is not iterated to a fixpoint.
func Collapse(src Source) Source {
	return &collapser{src: src}
}

type collapser struct {
	src    Source
	win    [3]*Token
	primed bool
	err    error
}

// Next returns the next (possibly collapsed) token, or (nil, nil) at end
// of stream.
func (c *collapser) Next() (*Token, error) {
	if c.err != nil {
		return nil, c.err
	}
	if !c.primed {
		for i := range c.win {
			tok, err := c.src.Next()
			if err != nil {
				c.err = err
				return nil, err
			}
			c.win[i] = tok
		}
		c.primed = true
	}

	curr, next1, next2 := c.win[0], c.win[1], c.win[2]
	if curr == nil {
		return nil, nil
	}

	if curr.Kind == KindOpenTag &&
		next1 != nil && next1.Kind == KindData &&
		next2 != nil && next2.Kind == KindCloseTag && next2.Tag == curr.Tag {
		tok := collapsed(curr, next1, next2)
		c.advance(3)
		return tok, nil
	}

	if curr.Kind == KindOpenTag &&
		next1 != nil && next1.Kind == KindCloseTag && next1.Tag == curr.Tag {
		tok := collapsed(curr, next1)
		c.advance(2)
		return tok, nil
	}

	c.advance(1)
	return curr, nil
}

// advance shifts the lookahead window by n tokens. A source error is
// stored and surfaces on the following Next call, after the token built
// from the current window has been returned.
func (c *collapser) advance(n int) {
	for ; n > 0; n-- {
		tok, err := c.src.Next()
		if err != nil {
			c.err = err
			tok = nil
		}
		c.win[0], c.win[1], c.win[2] = c.win[1], c.win[2], tok
	}
}

// collapsed builds a single Collapsed token from the run of tokens that
// form one trivial element.
func collapsed(open *Token, rest ...*Token) *Token {
	size := len(open.Content)
	for _, t := range rest {
		size += len(t.Content)
	}
	content := make([]byte, 0, size)
	content = append(content, open.Content...)
	for _, t := range rest {
		content = append(content, t.Content...)
	}
	return &Token{
		Kind:    KindCollapsed,
		Content: content,
		Tag:     open.Tag,
		Parent:  open.Parent,
		Offset:  open.Offset,
	}
}
