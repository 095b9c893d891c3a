package diff

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/nao1215/desyncdiff/internal/tagtext"
)

// source builds the collapsed token stream the orchestrator feeds into
// the sequence diff.
func source(input string) tagtext.Source {
	return tagtext.Collapse(tagtext.NewTokenizer(strings.NewReader(input)))
}

// TestTaggedStreamsIdentical tests that identical streams produce no
// opcode blocks.
func TestTaggedStreamsIdentical(t *testing.T) {
	t.Parallel()

	input := "<a>x</a><b><c>y</c></b>"
	blocks, err := TaggedStreams(source(input), source(input))
	if err != nil {
		t.Fatalf("TaggedStreams() error: %v", err)
	}
	if len(blocks) != 0 {
		t.Errorf("got %d blocks, expected none", len(blocks))
	}
}

// TestTaggedStreamsReplace tests a single changed element: ranges,
// rendered ancestor path and raw contents.
func TestTaggedStreamsReplace(t *testing.T) {
	t.Parallel()

	ref := "<top><a>1</a><b>2</b><c>3</c></top>"
	des := "<top><a>1</a><b>9</b><c>3</c></top>"

	blocks, err := TaggedStreams(source(ref), source(des))
	if err != nil {
		t.Fatalf("TaggedStreams() error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, expected 1", len(blocks))
	}

	block := blocks[0]
	if block.Op != "replace" {
		t.Errorf("op = %s, expected replace", block.Op)
	}
	// Chunk tokens: <top>, <a>1</a>, <b>2</b>, <c>3</c>, </top>.
	if block.RefStart != 2 || block.RefEnd != 3 || block.DesStart != 2 || block.DesEnd != 3 {
		t.Errorf("ranges = ref[%d:%d] des[%d:%d], expected ref[2:3] des[2:3]",
			block.RefStart, block.RefEnd, block.DesStart, block.DesEnd)
	}
	if string(block.RefContent) != "<b>2</b>" || string(block.DesContent) != "<b>9</b>" {
		t.Errorf("contents = %q / %q", block.RefContent, block.DesContent)
	}
	if block.RefPath != "<top> pos=0" {
		t.Errorf("ref path = %q, expected <top> pos=0", block.RefPath)
	}
}

// TestTaggedStreamsInsertAtEnd tests an insertion past the reference
// chunk's last token; the reference path is left empty rather than read
// out of range.
func TestTaggedStreamsInsertAtEnd(t *testing.T) {
	t.Parallel()

	// Both sides are a single chunk: the root element plus the trailing
	// empty data token, so the insertion lands before the chunk tail.
	ref := "<top><a>1</a></top>"
	des := "<top><a>1</a><b>2</b></top>"

	blocks, err := TaggedStreams(source(ref), source(des))
	if err != nil {
		t.Fatalf("TaggedStreams() error: %v", err)
	}
	if len(blocks) != 1 {
		t.Fatalf("got %d blocks, expected 1", len(blocks))
	}
	block := blocks[0]
	if block.Op != "insert" {
		t.Errorf("op = %s, expected insert", block.Op)
	}
	if string(block.DesContent) != "<b>2</b>" {
		t.Errorf("inserted content = %q, expected <b>2</b>", block.DesContent)
	}
	if len(block.RefContent) != 0 {
		t.Errorf("ref content = %q, expected empty", block.RefContent)
	}
}

// TestTaggedStreamsChunkCountMismatch tests that a missing trailing
// chunk on one side degrades to a delete block instead of failing.
func TestTaggedStreamsChunkCountMismatch(t *testing.T) {
	t.Parallel()

	ref := "<a>1</a><b>2</b>"
	des := "<a>1</a>"

	blocks, err := TaggedStreams(source(ref), source(des))
	if err != nil {
		t.Fatalf("TaggedStreams() error: %v", err)
	}
	if len(blocks) == 0 {
		t.Fatal("expected blocks for the missing chunk")
	}
	// Misaligned chunks produce misleading low-level output by design;
	// here it must at least surface the vanished element on the
	// reference side without erroring out.
	found := false
	for _, block := range blocks {
		if strings.Contains(string(block.RefContent), "<b>2</b>") {
			found = true
		}
	}
	if !found {
		t.Errorf("no block covers the vanished element, blocks: %+v", blocks)
	}
}

// TestTaggedStreamsLargeChunkWarning tests the advisory size warning.
func TestTaggedStreamsLargeChunkWarning(t *testing.T) {
	t.Parallel()

	var logBuf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logBuf, nil))

	ref := "<top><a>1</a><b>2</b></top>"
	des := "<top><a>1</a><b>9</b></top>"

	_, err := TaggedStreams(source(ref), source(des),
		WithLogger(logger),
		WithChunkWarnThreshold(2),
	)
	if err != nil {
		t.Fatalf("TaggedStreams() error: %v", err)
	}
	if !strings.Contains(logBuf.String(), "large chunk") {
		t.Errorf("expected large chunk warning, log: %s", logBuf.String())
	}
}
