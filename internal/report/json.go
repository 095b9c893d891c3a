package report

import (
	"encoding/json"
	"io"
	"time"

	"github.com/nao1215/desyncdiff/internal/model"
)

// JSONWriter outputs reports in JSON format for machine consumption.
//
// Design decision: We map the report onto dedicated DTO structs rather
// than marshaling model types directly. This keeps the wire format
// stable when internal types change and lets us render token content as
// strings instead of base64 byte arrays.
type JSONWriter struct {
	baseWriter

	// indent enables pretty-printed output.
	indent bool
}

// JSONWriterOption configures a JSONWriter.
type JSONWriterOption func(*JSONWriter)

// WithIndent enables pretty-printed JSON output.
func WithIndent(indent bool) JSONWriterOption {
	return func(w *JSONWriter) {
		w.indent = indent
	}
}

// NewJSONWriter creates a JSONWriter that outputs to the given writer.
func NewJSONWriter(output io.Writer, opts ...JSONWriterOption) *JSONWriter {
	w := &JSONWriter{
		baseWriter: newBaseWriter(output),
		indent:     true,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// jsonReport is the top-level JSON document.
type jsonReport struct {
	ReportPath  string        `json:"report_path"`
	GeneratedAt time.Time     `json:"generated_at"`
	Differs     bool          `json:"differs"`
	Sections    []jsonSection `json:"sections"`
}

// jsonSection is one role comparison.
type jsonSection struct {
	Role         string      `json:"role"`
	Differs      bool        `json:"differs"`
	RefDigest    string      `json:"ref_digest,omitempty"`
	DesDigest    string      `json:"des_digest,omitempty"`
	Entries      []jsonEntry `json:"entries,omitempty"`
	Blocks       []jsonBlock `json:"blocks,omitempty"`
	ErrorMessage string      `json:"error,omitempty"`
}

// jsonEntry is one structural diff entry.
type jsonEntry struct {
	Path  string       `json:"path"`
	Left  *model.Value `json:"reference"`
	Right *model.Value `json:"desynced"`
}

// jsonBlock is one sequence diff block.
type jsonBlock struct {
	Op         string `json:"op"`
	RefStart   int    `json:"ref_start"`
	RefEnd     int    `json:"ref_end"`
	DesStart   int    `json:"des_start"`
	DesEnd     int    `json:"des_end"`
	RefPath    string `json:"ref_path,omitempty"`
	DesPath    string `json:"des_path,omitempty"`
	RefContent string `json:"ref_content,omitempty"`
	DesContent string `json:"des_content,omitempty"`
}

// Write outputs the full report in JSON format.
func (w *JSONWriter) Write(report *model.Report) (int, error) {
	doc := jsonReport{
		ReportPath:  report.ReportPath,
		GeneratedAt: report.GeneratedAt,
		Differs:     report.Differs(),
	}
	for _, section := range report.Sections {
		doc.Sections = append(doc.Sections, toJSONSection(section))
	}

	var (
		data []byte
		err  error
	)
	if w.indent {
		data, err = json.MarshalIndent(doc, "", "  ")
	} else {
		data, err = json.Marshal(doc)
	}
	if err != nil {
		return 0, err
	}
	data = append(data, '\n')

	return w.output.Write(data)
}

func toJSONSection(section *model.Section) jsonSection {
	js := jsonSection{
		Role:         section.Role.String(),
		Differs:      section.Differs,
		RefDigest:    section.RefDigest,
		DesDigest:    section.DesDigest,
		ErrorMessage: section.ErrorMessage,
	}
	for _, entry := range section.Entries {
		js.Entries = append(js.Entries, jsonEntry{
			Path:  entry.Path.String(),
			Left:  entry.Left,
			Right: entry.Right,
		})
	}
	for _, block := range section.Blocks {
		js.Blocks = append(js.Blocks, jsonBlock{
			Op:         block.Op,
			RefStart:   block.RefStart,
			RefEnd:     block.RefEnd,
			DesStart:   block.DesStart,
			DesEnd:     block.DesEnd,
			RefPath:    block.RefPath,
			DesPath:    block.DesPath,
			RefContent: string(block.RefContent),
			DesContent: string(block.DesContent),
		})
	}
	return js
}
