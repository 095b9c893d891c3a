package report

import (
	"fmt"
	"io"
	"strconv"

	"github.com/nao1215/desyncdiff/internal/model"
	"github.com/nao1215/markdown"
)

// MarkdownWriter outputs reports in Markdown format.
// This format is designed for pasting into bug trackers and forum
// threads where desync reports are usually discussed.
//
// Design decision: We use the nao1215/markdown library for fluent
// markdown generation which provides type-safe tables, code blocks and
// GitHub-flavored alerts.
type MarkdownWriter struct {
	baseWriter
}

// NewMarkdownWriter creates a MarkdownWriter that outputs to the given writer.
func NewMarkdownWriter(output io.Writer) *MarkdownWriter {
	return &MarkdownWriter{
		baseWriter: newBaseWriter(output),
	}
}

// Write outputs the full report in Markdown format.
func (w *MarkdownWriter) Write(report *model.Report) (int, error) {
	md := markdown.NewMarkdown(w.output)

	w.writeHeader(md, report)
	w.writeSummary(md, report)
	for _, section := range report.Sections {
		w.writeSection(md, section)
	}

	return len(md.String()), md.Build()
}

// writeHeader writes the report header with run information.
func (w *MarkdownWriter) writeHeader(md *markdown.Markdown, report *model.Report) {
	md.H1("Desync Analysis Report")
	md.PlainText("")

	md.Table(markdown.TableSet{
		Header: []string{"Property", "Value"},
		Rows: [][]string{
			{"Report", "`" + report.ReportPath + "`"},
			{"Analyzed", report.GeneratedAt.Format("2006-01-02 15:04:05 MST")},
			{"Verdict", w.verdictText(report)},
		},
	})
	md.PlainText("")
}

// verdictText returns the overall verdict cell.
func (w *MarkdownWriter) verdictText(report *model.Report) string {
	if report.Differs() {
		return "❌ Captures diverge"
	}
	return "✅ Captures identical"
}

// writeSummary writes the per-role summary table and an overall alert.
func (w *MarkdownWriter) writeSummary(md *markdown.Markdown, report *model.Report) {
	md.H2("Summary")
	md.PlainText("")

	rows := make([][]string, 0, len(report.Sections))
	for _, section := range report.Sections {
		status := "identical"
		if section.Differs {
			status = "**differs**"
		}
		rows = append(rows, []string{
			"`" + section.Role.String() + "`",
			status,
			strconv.Itoa(len(section.Entries) + len(section.Blocks)),
		})
	}
	md.Table(markdown.TableSet{
		Header: []string{"Artifact", "Status", "Differences"},
		Rows:   rows,
	})
	md.PlainText("")

	if report.Differs() {
		md.Warningf("The reference and desynced captures diverge in %d artifact(s).", w.divergedCount(report))
	} else {
		md.Tip("No divergence found between the two captures.")
	}
	md.PlainText("")
}

func (w *MarkdownWriter) divergedCount(report *model.Report) int {
	count := 0
	for _, section := range report.Sections {
		if section.Differs {
			count++
		}
	}
	return count
}

// writeSection writes one diverged role's details. Identical roles only
// appear in the summary table.
func (w *MarkdownWriter) writeSection(md *markdown.Markdown, section *model.Section) {
	if !section.Differs {
		return
	}

	md.H2(section.Role.String())
	md.PlainText("")

	if section.RefDigest != "" || section.DesDigest != "" {
		md.Table(markdown.TableSet{
			Header: []string{"Side", "BLAKE2b-256"},
			Rows: [][]string{
				{"reference", "`" + section.RefDigest + "`"},
				{"desynced", "`" + section.DesDigest + "`"},
			},
		})
		md.PlainText("")
	}

	if section.ErrorMessage != "" {
		md.Cautionf("Analysis failed: %s", section.ErrorMessage)
		md.PlainText("")
		return
	}

	if len(section.Entries) > 0 {
		w.writeEntriesTable(md, section.Entries)
	}
	for _, block := range section.Blocks {
		w.writeBlock(md, block)
	}
}

// writeEntriesTable writes structural diff entries as a table.
func (w *MarkdownWriter) writeEntriesTable(md *markdown.Markdown, entries []model.DiffEntry) {
	rows := make([][]string, len(entries))
	for i, entry := range entries {
		rows[i] = []string{
			"`" + entry.Path.String() + "`",
			truncateString(renderValue(entry.Left), 60),
			truncateString(renderValue(entry.Right), 60),
		}
	}

	md.Table(markdown.TableSet{
		Header: []string{"Path", "Reference", "Desynced"},
		Rows:   rows,
	})
	md.PlainText("")
}

// writeBlock writes one sequence diff block with its token content in
// code blocks.
func (w *MarkdownWriter) writeBlock(md *markdown.Markdown, block model.OpcodeBlock) {
	md.PlainText(fmt.Sprintf("**%s** `ref[%d:%d]` → `des[%d:%d]`",
		block.Op, block.RefStart, block.RefEnd, block.DesStart, block.DesEnd))
	md.PlainText("")

	if block.RefPath != "" {
		md.PlainText("Reference context:")
		md.CodeBlocks(markdown.SyntaxHighlightText, block.RefPath)
	}
	if block.DesPath != "" {
		md.PlainText("Desynced context:")
		md.CodeBlocks(markdown.SyntaxHighlightText, block.DesPath)
	}
	if len(block.RefContent) > 0 {
		md.PlainText("Reference tokens:")
		md.CodeBlocks(markdown.SyntaxHighlightText, string(block.RefContent))
	}
	if len(block.DesContent) > 0 {
		md.PlainText("Desynced tokens:")
		md.CodeBlocks(markdown.SyntaxHighlightText, string(block.DesContent))
	}
	md.PlainText("")
}

// truncateString shortens s to max runes with an ellipsis.
func truncateString(s string, max int) string {
	if len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}
