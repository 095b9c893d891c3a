package archive

import (
	"archive/zip"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/nao1215/desyncdiff/internal/model"
)

// writeLevelZip builds a level zip with the given entries.
func writeLevelZip(t *testing.T, path string, entries map[string]string) {
	t.Helper()

	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create zip: %v", err)
	}
	zw := zip.NewWriter(f)
	for name, content := range entries {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("create entry %s: %v", name, err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatalf("write entry %s: %v", name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close zip writer: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatalf("close zip file: %v", err)
	}
}

// TestOpenBundle tests role discovery, extraction and digests.
func TestOpenBundle(t *testing.T) {
	t.Parallel()

	zipPath := filepath.Join(t.TempDir(), ReferenceLevelZip)
	writeLevelZip(t, zipPath, map[string]string{
		"save1/level-heuristic-90":          "<a>x</a>",
		"save1/level_with_tags_tick_90.dat": "<b>y</b>",
		"save1/script.dat":                  "\x01\x02\x03",
		"save1/control.lua":                 "ignored",
	})

	bundle, err := OpenBundle(zipPath, DefaultPatterns())
	if err != nil {
		t.Fatalf("OpenBundle() error: %v", err)
	}
	defer func() {
		if err := bundle.Close(); err != nil {
			t.Errorf("Close() error: %v", err)
		}
	}()

	if bundle.Root != "save1" {
		t.Errorf("root = %q, expected save1", bundle.Root)
	}

	expected := map[model.Role]string{
		model.RoleHeuristic: "<a>x</a>",
		model.RoleLevelTags: "<b>y</b>",
		model.RoleScript:    "\x01\x02\x03",
	}
	for role, content := range expected {
		artifact, ok := bundle.Artifact(role)
		if !ok {
			t.Fatalf("missing artifact for %s", role)
		}
		data, err := io.ReadAll(artifact.File)
		if err != nil {
			t.Fatalf("read artifact %s: %v", role, err)
		}
		if string(data) != content {
			t.Errorf("%s content = %q, expected %q", role, data, content)
		}
		if artifact.Size != int64(len(content)) {
			t.Errorf("%s size = %d, expected %d", role, artifact.Size, len(content))
		}
		if len(artifact.Digest) != 64 {
			t.Errorf("%s digest = %q, expected 64 hex chars", role, artifact.Digest)
		}
	}
}

// TestOpenBundleMissingRole tests fail-fast behavior on malformed
// bundles.
func TestOpenBundleMissingRole(t *testing.T) {
	t.Parallel()

	zipPath := filepath.Join(t.TempDir(), DesyncedLevelZip)
	writeLevelZip(t, zipPath, map[string]string{
		"save1/level-heuristic-90": "<a>x</a>",
		// script.dat and the tagged dump are absent
	})

	_, err := OpenBundle(zipPath, DefaultPatterns())
	if !errors.Is(err, ErrArtifactNotFound) {
		t.Errorf("expected ErrArtifactNotFound, got %v", err)
	}
}

// TestExtractReport tests outer report extraction next to the zip.
func TestExtractReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	zipPath := filepath.Join(dir, "desync-report-2026.zip")
	writeLevelZip(t, zipPath, map[string]string{
		"desync-report-2026/" + ReferenceLevelZip: "ref",
		"desync-report-2026/" + DesyncedLevelZip:  "des",
	})

	extracted, err := ExtractReport(zipPath)
	if err != nil {
		t.Fatalf("ExtractReport() error: %v", err)
	}
	if extracted != filepath.Join(dir, "desync-report-2026") {
		t.Errorf("extracted dir = %q", extracted)
	}

	data, err := os.ReadFile(filepath.Join(extracted, ReferenceLevelZip))
	if err != nil {
		t.Fatalf("read extracted file: %v", err)
	}
	if string(data) != "ref" {
		t.Errorf("content = %q, expected ref", data)
	}
}

// TestExtractReportZipSlip tests that escaping entry names are refused.
func TestExtractReportZipSlip(t *testing.T) {
	t.Parallel()

	zipPath := filepath.Join(t.TempDir(), "evil.zip")
	writeLevelZip(t, zipPath, map[string]string{
		"../outside.txt": "nope",
	})

	if _, err := ExtractReport(zipPath); err == nil {
		t.Error("expected error for escaping entry")
	}
}
