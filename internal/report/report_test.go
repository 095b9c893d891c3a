package report

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/desyncdiff/internal/model"
)

// sampleReport builds a report with one diverged structural role, one
// diverged sequence role and one identical role.
func sampleReport() *model.Report {
	report := model.NewReport("desync-report-2026")
	report.GeneratedAt = time.Date(2026, 8, 27, 12, 0, 0, 0, time.UTC)

	left := model.String("old-name")
	right := model.String("new-name")
	report.AddSection(&model.Section{
		Role:      model.RoleScript,
		Differs:   true,
		RefDigest: "aa11",
		DesDigest: "bb22",
		Entries: []model.DiffEntry{
			{
				Path:  model.Path{}.Child(model.Key("data")).Child(model.Index(0)).Child(model.Key("name")),
				Left:  left,
				Right: right,
			},
		},
	})
	report.AddSection(&model.Section{
		Role:    model.RoleHeuristic,
		Differs: true,
		Blocks: []model.OpcodeBlock{
			{
				Op:         "replace",
				RefStart:   2,
				RefEnd:     3,
				DesStart:   2,
				DesEnd:     3,
				RefPath:    "<top> pos=0",
				DesPath:    "<top> pos=0",
				RefContent: []byte("<a>1</a>"),
				DesContent: []byte("<a>2</a>"),
			},
		},
	})
	report.AddSection(&model.Section{
		Role:    model.RoleLevelTags,
		Differs: false,
	})
	return report
}

// TestTextWriter tests the human-readable rendering.
func TestTextWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewTextWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"Desync report: desync-report-2026",
		"script.dat differs",
		"Path: data[0].name",
		`Reference value: "old-name"`,
		`Desynced value:  "new-name"`,
		"level-heuristic differs",
		"replace  ref[2:3] -> des[2:3]",
		"ref: <a>1</a>",
		"des: <a>2</a>",
		"level_with_tags.dat is identical",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

// TestTextWriterMaxContent tests content truncation.
func TestTextWriterMaxContent(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewTextWriter(&buf, WithMaxContent(4)).Write(sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if !strings.Contains(buf.String(), "ref: <a>1... (8 bytes total)") {
		t.Errorf("truncation marker missing:\n%s", buf.String())
	}
}

// TestJSONWriter tests that output parses and carries the key fields.
func TestJSONWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewJSONWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	var doc struct {
		ReportPath string `json:"report_path"`
		Differs    bool   `json:"differs"`
		Sections   []struct {
			Role    string `json:"role"`
			Differs bool   `json:"differs"`
			Entries []struct {
				Path string `json:"path"`
			} `json:"entries"`
			Blocks []struct {
				Op         string `json:"op"`
				RefContent string `json:"ref_content"`
			} `json:"blocks"`
		} `json:"sections"`
	}
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}

	if doc.ReportPath != "desync-report-2026" || !doc.Differs {
		t.Errorf("header = %+v", doc)
	}
	if len(doc.Sections) != 3 {
		t.Fatalf("expected 3 sections, got %d", len(doc.Sections))
	}
	if doc.Sections[0].Entries[0].Path != "data[0].name" {
		t.Errorf("entry path = %q", doc.Sections[0].Entries[0].Path)
	}
	if doc.Sections[1].Blocks[0].Op != "replace" || doc.Sections[1].Blocks[0].RefContent != "<a>1</a>" {
		t.Errorf("block = %+v", doc.Sections[1].Blocks[0])
	}
}

// TestMarkdownWriter tests GFM rendering of the key sections.
func TestMarkdownWriter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if _, err := NewMarkdownWriter(&buf).Write(sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"# Desync Analysis Report",
		"## Summary",
		"`script.dat`",
		"**differs**",
		"## script.dat",
		"`data[0].name`",
		"**replace** `ref[2:3]`",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	// Identical roles stay out of the detail sections
	if strings.Contains(out, "## level_with_tags.dat") {
		t.Error("identical role must not get a detail section")
	}
}

// TestMultiWriter tests fan-out to several writers.
func TestMultiWriter(t *testing.T) {
	t.Parallel()

	var a, b bytes.Buffer
	mw := NewMultiWriter(NewTextWriter(&a), NewTextWriter(&b))
	if _, err := mw.Write(sampleReport()); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if a.String() != b.String() || a.Len() == 0 {
		t.Error("both writers must receive identical output")
	}
}
