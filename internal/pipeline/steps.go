package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/nao1215/desyncdiff/internal/archive"
	"github.com/nao1215/desyncdiff/internal/dat"
	"github.com/nao1215/desyncdiff/internal/diff"
	"github.com/nao1215/desyncdiff/internal/model"
	"github.com/nao1215/desyncdiff/internal/tagtext"
)

// CompareStep compares one artifact role across the two level bundles.
// A cheap byte-equality pass decides whether the role needs the full
// diff machinery at all; identical artifacts are reported as such
// without decoding or tokenizing anything.
type CompareStep struct {
	// role is the artifact this step compares.
	role model.Role

	// ref and des are the opened level bundles for both sides.
	ref *archive.Bundle
	des *archive.Bundle

	// bufferSize is the tokenizer window for tagged roles.
	bufferSize int

	// chunkWarnThreshold is handed to the sequence diff.
	chunkWarnThreshold int

	// logger is used for per-role diagnostics.
	logger *slog.Logger
}

// CompareStepOption configures a CompareStep.
type CompareStepOption func(*CompareStep)

// WithBufferSize sets the tokenizer window size for tagged roles.
func WithBufferSize(n int) CompareStepOption {
	return func(s *CompareStep) {
		s.bufferSize = n
	}
}

// WithChunkWarnThreshold sets the sequence diff chunk warning limit.
func WithChunkWarnThreshold(n int) CompareStepOption {
	return func(s *CompareStep) {
		s.chunkWarnThreshold = n
	}
}

// WithStepLogger sets the step's logger.
func WithStepLogger(logger *slog.Logger) CompareStepOption {
	return func(s *CompareStep) {
		s.logger = logger
	}
}

// NewCompareStep creates a comparison step for one artifact role.
func NewCompareStep(role model.Role, ref, des *archive.Bundle, opts ...CompareStepOption) *CompareStep {
	s := &CompareStep{
		role: role,
		ref:  ref,
		des:  des,
	}

	for _, opt := range opts {
		opt(s)
	}

	if s.logger == nil {
		s.logger = slog.Default()
	}

	return s
}

// Name returns the compared artifact name.
func (s *CompareStep) Name() string {
	return "compare " + s.role.String()
}

// Do compares the role's artifacts and appends a section to the report.
// Decode and diff failures are recorded in the section rather than
// returned: one unreadable artifact must not hide divergence in the
// others.
func (s *CompareStep) Do(ctx context.Context, report *model.Report) error {
	refArt, ok := s.ref.Artifact(s.role)
	if !ok {
		return fmt.Errorf("reference bundle has no %s artifact", s.role)
	}
	desArt, ok := s.des.Artifact(s.role)
	if !ok {
		return fmt.Errorf("desynced bundle has no %s artifact", s.role)
	}

	section := &model.Section{
		Role:      s.role,
		RefDigest: refArt.Digest,
		DesDigest: desArt.Digest,
	}
	report.AddSection(section)

	differ, err := streamsDiffer(refArt.File, desArt.File)
	if err != nil {
		return fmt.Errorf("byte comparison of %s: %w", s.role, err)
	}
	if !differ {
		s.logger.Debug("artifacts identical", "role", s.role.String())
		return nil
	}
	section.Differs = true

	if err := ctx.Err(); err != nil {
		return err
	}

	switch s.role {
	case model.RoleScript:
		s.diffScript(section, refArt.File, desArt.File)
	default:
		s.diffTagged(section, refArt.File, desArt.File)
	}
	return nil
}

// diffScript decodes both script dumps and walks the value trees.
func (s *CompareStep) diffScript(section *model.Section, ref, des *os.File) {
	refVal, err := dat.Decode("script", ref)
	if err != nil {
		section.ErrorMessage = fmt.Sprintf("decode reference script: %v", err)
		return
	}
	desVal, err := dat.Decode("script", des)
	if err != nil {
		section.ErrorMessage = fmt.Sprintf("decode desynced script: %v", err)
		return
	}

	section.Entries = diff.Values(dat.ToGenericValue(refVal), dat.ToGenericValue(desVal))
}

// diffTagged tokenizes both tagged dumps, collapses data runs and
// aligns the chunked token sequences.
func (s *CompareStep) diffTagged(section *model.Section, ref, des *os.File) {
	opts := []tagtext.TokenizerOption{tagtext.WithLogger(s.logger)}
	if s.bufferSize > 0 {
		opts = append(opts, tagtext.WithBufferSize(s.bufferSize))
	}

	refSrc := tagtext.Collapse(tagtext.NewTokenizer(ref, opts...))
	desSrc := tagtext.Collapse(tagtext.NewTokenizer(des, opts...))

	diffOpts := []diff.Option{diff.WithLogger(s.logger)}
	if s.chunkWarnThreshold > 0 {
		diffOpts = append(diffOpts, diff.WithChunkWarnThreshold(s.chunkWarnThreshold))
	}

	blocks, err := diff.TaggedStreams(refSrc, desSrc, diffOpts...)
	if err != nil {
		section.ErrorMessage = fmt.Sprintf("align %s token streams: %v", s.role, err)
		return
	}
	section.Blocks = blocks
}

// streamsDiffer reports whether two seekable streams have unequal
// content. Both streams are rewound to the start on every return path
// so the role's diff strategy always reads from offset zero.
func streamsDiffer(a, b *os.File) (differ bool, err error) {
	defer func() {
		if _, serr := a.Seek(0, io.SeekStart); serr != nil && err == nil {
			err = serr
		}
		if _, serr := b.Seek(0, io.SeekStart); serr != nil && err == nil {
			err = serr
		}
	}()

	bufA := make([]byte, 1024)
	bufB := make([]byte, 1024)
	for {
		na, errA := io.ReadFull(a, bufA)
		nb, errB := io.ReadFull(b, bufB)

		if na != nb || !bytes.Equal(bufA[:na], bufB[:nb]) {
			return true, nil
		}

		endA := errors.Is(errA, io.EOF) || errors.Is(errA, io.ErrUnexpectedEOF)
		endB := errors.Is(errB, io.EOF) || errors.Is(errB, io.ErrUnexpectedEOF)
		switch {
		case endA && endB:
			return false, nil
		case errA != nil && !endA:
			return false, errA
		case errB != nil && !endB:
			return false, errB
		case endA != endB:
			return true, nil
		}
	}
}
