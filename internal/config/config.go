package config

import (
	"path/filepath"
	"regexp"

	"github.com/adrg/xdg"
)

// Default configuration values.
// The analysis limits mirror the artifact sizes seen in real desync
// reports: heuristic logs and tagged dumps routinely run to hundreds of
// megabytes, so defaults favor streaming over whole-file loads.
const (
	// DefaultBufferSize is the tokenizer's sliding window over a tagged
	// stream. 1 MiB comfortably holds any single tag or data run seen in
	// practice while keeping memory flat regardless of artifact size.
	DefaultBufferSize = 1 << 20

	// DefaultChunkWarnThreshold is the token count above which a diffed
	// chunk triggers a warning. Chunks this large usually mean the map
	// dump lost its entity structure and the quadratic matcher will be
	// slow; the analysis still runs.
	DefaultChunkWarnThreshold = 200000

	// DefaultHeuristicPattern matches the heuristic log entry inside a
	// level zip. The trailing number is the tick the dump was taken at.
	DefaultHeuristicPattern = `.*/level-heuristic-\d+$`

	// DefaultLevelTagsPattern matches the tagged level dump entry inside
	// a level zip.
	DefaultLevelTagsPattern = `.*/level_with_tags_tick_\d+\.dat$`

	// DefaultScriptFileName is the script state file name under the save
	// root inside a level zip.
	DefaultScriptFileName = "script.dat"

	// AppName is the application name used for XDG directory paths.
	AppName = "desyncdiff"
)

// Config holds all configuration options for the tool.
// This struct is populated from CLI flags and the optional config file,
// then passed through the application via dependency injection rather
// than global state.
//
// Design decision: We use a single flat struct instead of nested structs
// for simplicity. The number of options is manageable, and nesting would
// add complexity without significant benefit.
type Config struct {
	// ReportPath is the desync report to analyze: either a directory
	// holding reference-level.zip and desynced-level.zip, or a zip of
	// such a directory.
	ReportPath string

	// BufferSize is the tokenizer window size in bytes for tagged
	// streams. A value of 0 means use the default.
	BufferSize int

	// ChunkWarnThreshold is the token count above which diffing a chunk
	// logs a warning. 0 disables the warning.
	ChunkWarnThreshold int

	// HeuristicPattern matches the heuristic log entry inside a level
	// zip. Overridable for older game versions with different naming.
	HeuristicPattern string

	// LevelTagsPattern matches the tagged level dump entry inside a
	// level zip.
	LevelTagsPattern string

	// ScriptFileName is the script state entry name under the save root.
	ScriptFileName string

	// ConfigFilePath is the path to the configuration file.
	// If empty, the tool searches for .desyncdiff in the current
	// directory and then in the XDG config directory.
	ConfigFilePath string

	// JSONReport enables JSON report output instead of human-readable
	// format. Mutually exclusive with MarkdownReport.
	JSONReport bool

	// MarkdownReport enables Markdown report output instead of
	// human-readable format. Mutually exclusive with JSONReport.
	MarkdownReport bool

	// ReportFile is the output file path for the report.
	// When set, the report is written to this file instead of stdout.
	ReportFile string

	// DBDir is the directory path for storing the SQLite history
	// database. When empty, analysis runs are not persisted.
	DBDir string

	// SaveToDB indicates whether to save analysis runs to the database.
	// This is automatically set to true when DBDir is configured.
	SaveToDB bool

	// Verbose enables detailed log output using slog.LevelDebug.
	// When false, only info and above are logged.
	Verbose bool
}

// NewConfig creates a new Config with default values.
// All fields are set to safe, sensible defaults that work for most
// desync reports. Users can override specific values after creation.
func NewConfig() *Config {
	return &Config{
		BufferSize:         DefaultBufferSize,
		ChunkWarnThreshold: DefaultChunkWarnThreshold,
		HeuristicPattern:   DefaultHeuristicPattern,
		LevelTagsPattern:   DefaultLevelTagsPattern,
		ScriptFileName:     DefaultScriptFileName,
	}
}

// XDGDataDir returns the XDG data directory for the tool.
// On Linux: ~/.local/share/desyncdiff
func XDGDataDir() string {
	return filepath.Join(xdg.DataHome, AppName)
}

// XDGConfigDir returns the XDG config directory for the tool.
// On Linux: ~/.config/desyncdiff
func XDGConfigDir() string {
	return filepath.Join(xdg.ConfigHome, AppName)
}

// Validate checks if the configuration is valid.
// It returns a specific error describing what is invalid.
//
// Design decision: We validate once after CLI parsing, before the
// bundles are opened, to fail fast with a clear message. The first
// error found is returned because fixing one error often makes others
// irrelevant.
func (c *Config) Validate() error {
	if c.ReportPath == "" {
		return ErrNoReport
	}

	if c.BufferSize <= 0 {
		return ErrInvalidBufferSize
	}

	if c.ChunkWarnThreshold < 0 {
		return ErrInvalidChunkWarnThreshold
	}

	// JSONReport and MarkdownReport are mutually exclusive
	if c.JSONReport && c.MarkdownReport {
		return ErrConflictingReportFormats
	}

	for _, pattern := range []string{c.HeuristicPattern, c.LevelTagsPattern} {
		if _, err := regexp.Compile(pattern); err != nil {
			return ErrInvalidPattern
		}
	}

	return nil
}
