package config

import (
	"errors"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DefaultConfigFile is the default configuration file name.
const DefaultConfigFile = ".desyncdiff"

// ErrConfigNotFound is returned when the configuration file does not exist.
var ErrConfigNotFound = errors.New("configuration file not found")

// File is the YAML configuration file shape. Every field is optional;
// zero values leave the corresponding Config default untouched.
type File struct {
	// BufferSize is the tokenizer window size in bytes.
	BufferSize int `yaml:"buffer_size"`

	// ChunkWarnThreshold is the per-chunk token count warning limit.
	ChunkWarnThreshold int `yaml:"chunk_warn_threshold"`

	// HeuristicPattern matches the heuristic log entry in a level zip.
	HeuristicPattern string `yaml:"heuristic_pattern"`

	// LevelTagsPattern matches the tagged level dump entry in a level zip.
	LevelTagsPattern string `yaml:"level_tags_pattern"`

	// ScriptFileName is the script state entry name under the save root.
	ScriptFileName string `yaml:"script_file_name"`

	// DBDir is the history database directory.
	DBDir string `yaml:"db_dir"`
}

// LoadConfigFile loads settings from a YAML file.
// If the file does not exist, it returns ErrConfigNotFound.
// Callers should handle this error appropriately based on whether
// the config file path was explicitly specified by the user.
func LoadConfigFile(path string) (*File, error) {
	data, err := os.ReadFile(path) //nolint:gosec // User-provided config path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	var cf File
	if err := yaml.Unmarshal(data, &cf); err != nil {
		return nil, err
	}
	return &cf, nil
}

// FindConfigFile searches for the configuration file in the following order:
// 1. If configPath is specified, use it directly
// 2. Look for .desyncdiff in the current directory
// 3. Look for .desyncdiff in the XDG config directory
//
// Returns the path to the configuration file if found, or empty string if not found.
func FindConfigFile(configPath string) string {
	// If explicit path is provided, use it
	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			return configPath
		}
		return ""
	}

	// Check current directory
	cwd, err := os.Getwd()
	if err == nil {
		cwdConfig := filepath.Join(cwd, DefaultConfigFile)
		if _, err := os.Stat(cwdConfig); err == nil {
			return cwdConfig
		}
	}

	// Check XDG config directory
	xdgConfig := filepath.Join(XDGConfigDir(), DefaultConfigFile)
	if _, err := os.Stat(xdgConfig); err == nil {
		return xdgConfig
	}

	return ""
}

// Apply overlays the file's non-zero settings onto the config.
// CLI flags are applied after this, so explicit flags win over the file.
func (f *File) Apply(c *Config) {
	if f.BufferSize > 0 {
		c.BufferSize = f.BufferSize
	}
	if f.ChunkWarnThreshold > 0 {
		c.ChunkWarnThreshold = f.ChunkWarnThreshold
	}
	if f.HeuristicPattern != "" {
		c.HeuristicPattern = f.HeuristicPattern
	}
	if f.LevelTagsPattern != "" {
		c.LevelTagsPattern = f.LevelTagsPattern
	}
	if f.ScriptFileName != "" {
		c.ScriptFileName = f.ScriptFileName
	}
	if f.DBDir != "" {
		c.DBDir = f.DBDir
		c.SaveToDB = true
	}
}
