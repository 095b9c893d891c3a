package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/desyncdiff/internal/model"
)

// TextWriter outputs human-readable text reports.
// This format is designed for terminal display: per-role sections with
// divergence details rendered inline.
//
// Design decision: We use plain text with ASCII formatting rather than
// ANSI colors because it works in all terminals and pipes cleanly to
// files or other tools.
type TextWriter struct {
	baseWriter

	// maxContent truncates rendered token content beyond this many bytes.
	// 0 means no truncation.
	maxContent int
}

// TextWriterOption configures a TextWriter.
type TextWriterOption func(*TextWriter)

// WithMaxContent limits rendered token content to n bytes per side.
func WithMaxContent(n int) TextWriterOption {
	return func(w *TextWriter) {
		w.maxContent = n
	}
}

// NewTextWriter creates a TextWriter that outputs to the given writer.
func NewTextWriter(output io.Writer, opts ...TextWriterOption) *TextWriter {
	w := &TextWriter{
		baseWriter: newBaseWriter(output),
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Write outputs the full report in human-readable format.
func (w *TextWriter) Write(report *model.Report) (int, error) {
	var sb strings.Builder

	w.writeHeader(&sb, report)
	for _, section := range report.Sections {
		w.writeSection(&sb, section)
	}

	return w.output.Write([]byte(sb.String()))
}

// writeHeader writes the report header with run information.
func (w *TextWriter) writeHeader(sb *strings.Builder, report *model.Report) {
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
	fmt.Fprintf(sb, "Desync report: %s\n", report.ReportPath)
	fmt.Fprintf(sb, "Analyzed:      %s\n", report.GeneratedAt.Format("2006-01-02 15:04:05 MST"))
	sb.WriteString(strings.Repeat("=", 70))
	sb.WriteString("\n")
}

// writeSection writes one role's comparison outcome. Identical roles
// get a single line; diverged roles get their diff details.
func (w *TextWriter) writeSection(sb *strings.Builder, section *model.Section) {
	sb.WriteString("\n")
	if !section.Differs {
		fmt.Fprintf(sb, "%s is identical\n", section.Role)
		return
	}

	header := fmt.Sprintf("%s differs", section.Role)
	sb.WriteString(header)
	sb.WriteString("\n")
	sb.WriteString(strings.Repeat("-", len(header)))
	sb.WriteString("\n")

	if section.ErrorMessage != "" {
		fmt.Fprintf(sb, "analysis failed: %s\n", section.ErrorMessage)
		return
	}

	for _, entry := range section.Entries {
		w.writeEntry(sb, entry)
	}
	for _, block := range section.Blocks {
		w.writeBlock(sb, block)
	}

	if len(section.Entries) == 0 && len(section.Blocks) == 0 {
		sb.WriteString("content differs but no structural divergence was isolated\n")
	}
}

// writeEntry writes one structural diff entry.
func (w *TextWriter) writeEntry(sb *strings.Builder, entry model.DiffEntry) {
	fmt.Fprintf(sb, "Path: %s\n", entry.Path)
	fmt.Fprintf(sb, "  Reference value: %s\n", renderValue(entry.Left))
	fmt.Fprintf(sb, "  Desynced value:  %s\n", renderValue(entry.Right))
}

// writeBlock writes one sequence diff block with the surrounding tag
// context of both sides.
func (w *TextWriter) writeBlock(sb *strings.Builder, block model.OpcodeBlock) {
	fmt.Fprintf(sb, "%-8s ref[%d:%d] -> des[%d:%d]\n",
		block.Op, block.RefStart, block.RefEnd, block.DesStart, block.DesEnd)

	if block.RefPath != "" {
		sb.WriteString("ref context:\n")
		writeIndented(sb, block.RefPath)
	}
	if block.DesPath != "" {
		sb.WriteString("des context:\n")
		writeIndented(sb, block.DesPath)
	}
	if len(block.RefContent) > 0 {
		fmt.Fprintf(sb, "ref: %s\n", w.clip(block.RefContent))
	}
	if len(block.DesContent) > 0 {
		fmt.Fprintf(sb, "des: %s\n", w.clip(block.DesContent))
	}
}

// clip truncates content per the configured limit.
func (w *TextWriter) clip(content []byte) string {
	if w.maxContent > 0 && len(content) > w.maxContent {
		return string(content[:w.maxContent]) + fmt.Sprintf("... (%d bytes total)", len(content))
	}
	return string(content)
}

func writeIndented(sb *strings.Builder, block string) {
	for _, line := range strings.Split(block, "\n") {
		sb.WriteString("  ")
		sb.WriteString(line)
		sb.WriteString("\n")
	}
}

func renderValue(v *model.Value) string {
	if v == nil {
		return "(absent)"
	}
	return v.String()
}
