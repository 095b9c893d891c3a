package diff

import (
	"log/slog"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/nao1215/desyncdiff/internal/model"
	"github.com/nao1215/desyncdiff/internal/tagtext"
)

// DefaultChunkWarnThreshold is the chunk size above which an advisory
// warning is logged before alignment starts: the matcher's cost is
// superlinear in chunk size, so very large chunks can take minutes.
const DefaultChunkWarnThreshold = 200000

// Option configures the sequence diff.
type Option func(*differ)

// WithLogger sets the logger used for progress warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(d *differ) {
		d.logger = logger
	}
}

// WithChunkWarnThreshold overrides the advisory chunk size threshold.
func WithChunkWarnThreshold(n int) Option {
	return func(d *differ) {
		if n > 0 {
			d.warnThreshold = n
		}
	}
}

type differ struct {
	logger        *slog.Logger
	warnThreshold int
}

// TaggedStreams compares two token streams that are too large to align
// in a single pass. Both streams are split into top-level chunks, and
// chunks are paired in order.
//
// Pairing assumes the two sides have the same number of chunks in the
// same order. When that assumption is violated the low-level output is
// misleading; this is a documented limitation, kept so diagnostic output
// stays comparable across runs rather than corrected with a different
// alignment heuristic.
func TaggedStreams(ref, des tagtext.Source, opts ...Option) ([]model.OpcodeBlock, error) {
	d := &differ{warnThreshold: DefaultChunkWarnThreshold}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}

	refChunks := tagtext.NewChunker(ref)
	desChunks := tagtext.NewChunker(des)

	var blocks []model.OpcodeBlock
	for {
		refChunk, err := refChunks.Next()
		if err != nil {
			return nil, err
		}
		desChunk, err := desChunks.Next()
		if err != nil {
			return nil, err
		}
		if refChunk == nil && desChunk == nil {
			return blocks, nil
		}

		if chunksEqual(refChunk, desChunk) {
			continue
		}
		blocks = append(blocks, d.diffChunks(refChunk, desChunk)...)
	}
}

// diffChunks aligns one chunk pair with a longest-common-subsequence
// matcher and renders the non-equal opcode runs.
func (d *differ) diffChunks(refChunk, desChunk []*tagtext.Token) []model.OpcodeBlock {
	longest := len(refChunk)
	if len(desChunk) > longest {
		longest = len(desChunk)
	}
	if longest > d.warnThreshold {
		d.logger.Warn("diffing large chunk, this may take a long time",
			"tag", chunkTag(refChunk),
			"ref_tokens", len(refChunk),
			"des_tokens", len(desChunk),
		)
	}

	matcher := difflib.NewMatcher(tokenKeys(refChunk), tokenKeys(desChunk))

	var blocks []model.OpcodeBlock
	for _, op := range matcher.GetOpCodes() {
		if op.Tag == 'e' {
			continue
		}
		block := model.OpcodeBlock{
			Op:         opName(op.Tag),
			RefStart:   op.I1,
			RefEnd:     op.I2,
			DesStart:   op.J1,
			DesEnd:     op.J2,
			RefContent: concatContent(refChunk[op.I1:op.I2]),
			DesContent: concatContent(desChunk[op.J1:op.J2]),
		}
		if op.I1 < len(refChunk) {
			block.RefPath = tagtext.AncestorPath(refChunk[op.I1])
		}
		if op.J1 < len(desChunk) {
			block.DesPath = tagtext.AncestorPath(desChunk[op.J1])
		}
		blocks = append(blocks, block)
	}
	return blocks
}

func chunksEqual(a, b []*tagtext.Token) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !a[i].Equal(b[i]) {
			return false
		}
	}
	return true
}

// chunkTag names a chunk by its first token's tag for log output.
func chunkTag(chunk []*tagtext.Token) string {
	if len(chunk) == 0 {
		return ""
	}
	return chunk[0].Tag
}

func tokenKeys(chunk []*tagtext.Token) []string {
	keys := make([]string, len(chunk))
	for i, tok := range chunk {
		keys[i] = tok.Key()
	}
	return keys
}

func concatContent(tokens []*tagtext.Token) []byte {
	size := 0
	for _, tok := range tokens {
		size += len(tok.Content)
	}
	content := make([]byte, 0, size)
	for _, tok := range tokens {
		content = append(content, tok.Content...)
	}
	return content
}

func opName(tag byte) string {
	switch tag {
	case 'r':
		return "replace"
	case 'd':
		return "delete"
	case 'i':
		return "insert"
	case 'e':
		return "equal"
	default:
		return "unknown"
	}
}
