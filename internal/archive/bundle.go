package archive

import (
	"archive/zip"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"golang.org/x/crypto/blake2b"

	"github.com/nao1215/desyncdiff/internal/model"
)

// Level zip names inside a desync report directory.
const (
	// ReferenceLevelZip holds the state the server considers correct.
	ReferenceLevelZip = "reference-level.zip"

	// DesyncedLevelZip holds the state of the desynced client.
	DesyncedLevelZip = "desynced-level.zip"
)

// ErrArtifactNotFound is returned when a level zip lacks an entry for
// one of the artifact roles.
var ErrArtifactNotFound = errors.New("artifact not found in level zip")

// Patterns describes how role entries are matched inside a level zip.
// The heuristic log and the tagged dump carry a tick number in their
// names; the script state has a fixed name under the save root.
type Patterns struct {
	// Heuristic matches the heuristic log entry.
	Heuristic *regexp.Regexp

	// LevelTags matches the tagged level dump entry.
	LevelTags *regexp.Regexp

	// ScriptName is the script state file name under the save root.
	ScriptName string
}

// DefaultPatterns returns the entry patterns of unmodified game saves.
func DefaultPatterns() Patterns {
	return Patterns{
		Heuristic:  regexp.MustCompile(`.*/level-heuristic-\d+$`),
		LevelTags:  regexp.MustCompile(`.*/level_with_tags_tick_\d+\.dat$`),
		ScriptName: "script.dat",
	}
}

// Artifact is one extracted role file, seekable and digested.
type Artifact struct {
	// Role identifies which comparison this artifact belongs to.
	Role model.Role

	// Name is the entry name inside the level zip.
	Name string

	// File is the extracted temporary file, positioned at the start.
	File *os.File

	// Size is the artifact length in bytes.
	Size int64

	// Digest is the hex BLAKE2b-256 digest of the artifact.
	Digest string
}

// Bundle is one opened level zip with its role artifacts extracted.
// Close releases every extracted file; callers must pair each
// successful OpenBundle with a Close on all exit paths.
type Bundle struct {
	// Root is the save directory name the zip entries live under.
	Root string

	artifacts map[model.Role]*Artifact
	tmpDir    string
}

// OpenBundle opens a level zip and extracts the three role artifacts.
// A missing role is an error: the report is malformed and analysis of
// it cannot proceed.
func OpenBundle(zipPath string, pats Patterns) (bundle *Bundle, err error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, fmt.Errorf("open level zip %s: %w", zipPath, err)
	}
	defer func() {
		if cerr := zr.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	tmpDir, err := os.MkdirTemp("", "desyncdiff-*")
	if err != nil {
		return nil, fmt.Errorf("create extraction dir: %w", err)
	}

	b := &Bundle{
		artifacts: make(map[model.Role]*Artifact),
		tmpDir:    tmpDir,
	}
	defer func() {
		if err != nil {
			_ = b.Close()
		}
	}()

	for _, zf := range zr.File {
		if b.Root == "" {
			if i := strings.Index(zf.Name, "/"); i >= 0 {
				b.Root = zf.Name[:i]
			}
		}

		role, matched := matchRole(zf.Name, b.Root, pats)
		if !matched {
			continue
		}
		artifact, aerr := extractArtifact(zf, tmpDir, role)
		if aerr != nil {
			return nil, aerr
		}
		b.artifacts[role] = artifact
	}

	for _, role := range model.Roles() {
		if _, ok := b.artifacts[role]; !ok {
			return nil, fmt.Errorf("%w: %s in %s", ErrArtifactNotFound, role, zipPath)
		}
	}
	return b, nil
}

// Artifact returns the extracted artifact for a role.
func (b *Bundle) Artifact(role model.Role) (*Artifact, bool) {
	a, ok := b.artifacts[role]
	return a, ok
}

// Close removes every extracted temporary file.
func (b *Bundle) Close() error {
	var first error
	for _, a := range b.artifacts {
		if err := a.File.Close(); err != nil && first == nil {
			first = err
		}
	}
	if err := os.RemoveAll(b.tmpDir); err != nil && first == nil {
		first = err
	}
	return first
}

func matchRole(name, root string, pats Patterns) (model.Role, bool) {
	switch {
	case pats.Heuristic.MatchString(name):
		return model.RoleHeuristic, true
	case pats.LevelTags.MatchString(name):
		return model.RoleLevelTags, true
	case root != "" && name == root+"/"+pats.ScriptName:
		return model.RoleScript, true
	default:
		return 0, false
	}
}

// extractArtifact copies one zip entry to a temporary file, hashing it
// on the way through.
func extractArtifact(zf *zip.File, dir string, role model.Role) (artifact *Artifact, err error) {
	src, err := zf.Open()
	if err != nil {
		return nil, fmt.Errorf("open entry %s: %w", zf.Name, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	dst, err := os.CreateTemp(dir, "artifact-*")
	if err != nil {
		return nil, fmt.Errorf("create temp file for %s: %w", zf.Name, err)
	}

	hash, err := blake2b.New256(nil)
	if err != nil {
		_ = dst.Close()
		return nil, err
	}

	size, err := io.Copy(io.MultiWriter(dst, hash), src)
	if err != nil {
		_ = dst.Close()
		return nil, fmt.Errorf("extract %s: %w", zf.Name, err)
	}
	if _, err := dst.Seek(0, io.SeekStart); err != nil {
		_ = dst.Close()
		return nil, err
	}

	return &Artifact{
		Role:   role,
		Name:   zf.Name,
		File:   dst,
		Size:   size,
		Digest: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

// ExtractReport unpacks an outer desync-report zip next to itself and
// returns the directory holding the two level zips. Entry names are
// confined to the destination directory.
func ExtractReport(zipPath string) (dir string, err error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return "", fmt.Errorf("open report zip %s: %w", zipPath, err)
	}
	defer func() {
		if cerr := zr.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	dest := filepath.Dir(zipPath)
	for _, zf := range zr.File {
		if err := extractEntry(zf, dest); err != nil {
			return "", err
		}
	}
	return strings.TrimSuffix(zipPath, ".zip"), nil
}

func extractEntry(zf *zip.File, dest string) (err error) {
	target := filepath.Join(dest, filepath.FromSlash(zf.Name))
	if !strings.HasPrefix(target, filepath.Clean(dest)+string(os.PathSeparator)) {
		return fmt.Errorf("zip entry %q escapes destination", zf.Name)
	}
	if zf.FileInfo().IsDir() {
		return os.MkdirAll(target, 0750)
	}
	if err := os.MkdirAll(filepath.Dir(target), 0750); err != nil {
		return err
	}

	src, err := zf.Open()
	if err != nil {
		return fmt.Errorf("open entry %s: %w", zf.Name, err)
	}
	defer func() {
		if cerr := src.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	dst, err := os.Create(target) //nolint:gosec // target is confined to dest above
	if err != nil {
		return err
	}
	defer func() {
		if cerr := dst.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}()

	_, err = io.Copy(dst, src) //nolint:gosec // report zips come from the local game install
	return err
}
