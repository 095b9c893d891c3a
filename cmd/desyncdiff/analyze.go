package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"regexp"
	"strings"
	"syscall"
	"time"

	"github.com/nao1215/desyncdiff/internal/archive"
	"github.com/nao1215/desyncdiff/internal/config"
	"github.com/nao1215/desyncdiff/internal/database"
	"github.com/nao1215/desyncdiff/internal/log"
	"github.com/nao1215/desyncdiff/internal/model"
	"github.com/nao1215/desyncdiff/internal/pipeline"
	"github.com/nao1215/desyncdiff/internal/report"
	"github.com/spf13/cobra"
)

// NewAnalyzeCmd creates the analyze command.
func NewAnalyzeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze <desync-report>",
		Short: "Compare the two level captures of a desync report",
		Long: `Analyze compares the reference and desynced level captures of a
Factorio desync report.

The report may be the extracted report directory or the zip the game
produced; zips are unpacked next to themselves first. Inside each level
capture three artifacts are compared:
- the heuristic log (tagged text)
- the script state dump (binary, decoded through its schema)
- the tagged level dump (tagged text)

Examples:
  # Analyze an extracted desync report directory
  desyncdiff analyze desync-report-2026-08-27

  # Analyze the zip straight from the game
  desyncdiff analyze desync-report-2026-08-27.zip

  # Output a Markdown report into a file
  desyncdiff analyze --markdown -o report.md desync-report-2026-08-27

  # Persist the run to the history database
  desyncdiff analyze --history desync-report-2026-08-27`,
		Args: cobra.ExactArgs(1),
		RunE: runAnalyzeCmd,
	}

	// Configuration file
	cmd.Flags().StringP("config", "c", "",
		"Configuration file path (default: .desyncdiff in current or XDG config directory)")

	// Report flags
	cmd.Flags().BoolP("json", "j", false,
		"Output JSON report (mutually exclusive with --markdown)")
	cmd.Flags().BoolP("markdown", "m", false,
		"Output Markdown report (mutually exclusive with --json)")
	cmd.Flags().StringP("output", "o", "",
		"Write report to specified file path (creates directories if needed)")

	// History flags
	cmd.Flags().Bool("history", false,
		"Save the analysis run to the history database")
	cmd.Flags().String("db-dir", "",
		"History database directory (default: XDG data directory)")

	return cmd
}

// runAnalyzeCmd executes the analyze command.
func runAnalyzeCmd(cmd *cobra.Command, args []string) error {
	cfg, err := buildAnalyzeConfig(cmd, args)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}

	logger := log.New(log.WithVerbose(cfg.Verbose))
	slog.SetDefault(logger)

	// Set up context with signal handling for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal, cancelling...")
		cancel()
	}()

	return runAnalyze(ctx, cfg, logger)
}

// getVerboseFlag retrieves the verbose flag from the command or its parent.
func getVerboseFlag(cmd *cobra.Command) bool {
	verbose, err := cmd.Flags().GetBool("verbose")
	if err != nil {
		verbose, err = cmd.Root().PersistentFlags().GetBool("verbose")
		if err != nil {
			return false
		}
	}
	return verbose
}

// buildAnalyzeConfig creates a Config from cobra command flags and the
// optional configuration file. Flags win over file settings.
func buildAnalyzeConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.NewConfig()
	cfg.ReportPath = args[0]
	cfg.Verbose = getVerboseFlag(cmd)

	var err error
	cfg.ConfigFilePath, err = cmd.Flags().GetString("config")
	if err != nil {
		return nil, err
	}

	// If the user explicitly specified a config file, error if not
	// found. Otherwise silently continue without one.
	explicitConfigPath := cfg.ConfigFilePath != ""
	configPath := config.FindConfigFile(cfg.ConfigFilePath)
	if configPath != "" {
		cf, err := config.LoadConfigFile(configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", configPath, err)
		}
		cf.Apply(cfg)
	} else if explicitConfigPath {
		return nil, fmt.Errorf("configuration file not found: %s", cfg.ConfigFilePath)
	}

	cfg.JSONReport, err = cmd.Flags().GetBool("json")
	if err != nil {
		return nil, err
	}

	cfg.MarkdownReport, err = cmd.Flags().GetBool("markdown")
	if err != nil {
		return nil, err
	}

	cfg.ReportFile, err = cmd.Flags().GetString("output")
	if err != nil {
		return nil, err
	}

	saveHistory, err := cmd.Flags().GetBool("history")
	if err != nil {
		return nil, err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return nil, err
	}
	if dbDir != "" {
		cfg.DBDir = dbDir
		cfg.SaveToDB = true
	}
	if saveHistory {
		cfg.SaveToDB = true
		if cfg.DBDir == "" {
			cfg.DBDir = config.XDGDataDir()
		}
	}

	return cfg, nil
}

// runAnalyze executes the analysis.
func runAnalyze(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	reportDir, err := resolveReportDir(cfg.ReportPath)
	if err != nil {
		return err
	}

	pats, err := buildPatterns(cfg)
	if err != nil {
		return err
	}

	logger.Info("opening level bundles", "report", reportDir)

	ref, err := archive.OpenBundle(filepath.Join(reportDir, archive.ReferenceLevelZip), pats)
	if err != nil {
		return fmt.Errorf("open reference capture: %w", err)
	}
	defer func() {
		if cerr := ref.Close(); cerr != nil {
			logger.Error("failed to clean up reference bundle", "error", cerr)
		}
	}()

	des, err := archive.OpenBundle(filepath.Join(reportDir, archive.DesyncedLevelZip), pats)
	if err != nil {
		return fmt.Errorf("open desynced capture: %w", err)
	}
	defer func() {
		if cerr := des.Close(); cerr != nil {
			logger.Error("failed to clean up desynced bundle", "error", cerr)
		}
	}()

	pipelineLogger := log.WithComponent(logger, "pipeline")
	p := pipeline.New(
		pipeline.WithLogger(pipelineLogger),
		pipeline.WithContinueOnError(true),
	)
	for _, role := range model.Roles() {
		p.AddStep(pipeline.NewCompareStep(role, ref, des,
			pipeline.WithBufferSize(cfg.BufferSize),
			pipeline.WithChunkWarnThreshold(cfg.ChunkWarnThreshold),
			pipeline.WithStepLogger(pipelineLogger),
		))
	}

	analysisReport := model.NewReport(cfg.ReportPath)

	startTime := time.Now()
	if err := p.Execute(ctx, analysisReport); err != nil {
		return fmt.Errorf("analysis failed: %w", err)
	}
	logger.Info("analysis completed",
		"elapsed", time.Since(startTime).Round(time.Millisecond),
		"differs", analysisReport.Differs(),
	)

	if err := outputReport(cfg, analysisReport); err != nil {
		return err
	}

	if cfg.SaveToDB {
		if err := saveReport(ctx, cfg, analysisReport, logger); err != nil {
			logger.Error("failed to save analysis run", "error", err)
		}
	}

	return nil
}

// resolveReportDir returns the extracted report directory for the given
// path, unpacking a report zip next to itself first if needed.
func resolveReportDir(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("desync report not found: %w", err)
	}
	if info.IsDir() {
		return path, nil
	}
	if !strings.HasSuffix(path, ".zip") {
		return "", fmt.Errorf("desync report must be a directory or zip: %s", path)
	}
	return archive.ExtractReport(path)
}

// buildPatterns compiles the configured artifact entry patterns.
func buildPatterns(cfg *config.Config) (archive.Patterns, error) {
	heuristic, err := regexp.Compile(cfg.HeuristicPattern)
	if err != nil {
		return archive.Patterns{}, fmt.Errorf("heuristic pattern: %w", err)
	}
	levelTags, err := regexp.Compile(cfg.LevelTagsPattern)
	if err != nil {
		return archive.Patterns{}, fmt.Errorf("level tags pattern: %w", err)
	}
	return archive.Patterns{
		Heuristic:  heuristic,
		LevelTags:  levelTags,
		ScriptName: cfg.ScriptFileName,
	}, nil
}

// outputReport outputs the analysis report in the requested format.
func outputReport(cfg *config.Config, analysisReport *model.Report) error {
	var output *os.File
	if cfg.ReportFile != "" {
		dir := filepath.Dir(cfg.ReportFile)
		if dir != "" && dir != "." {
			if err := os.MkdirAll(dir, 0750); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		f, err := os.OpenFile(cfg.ReportFile, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		output = f
	} else {
		output = os.Stdout
	}

	var writer report.Writer
	switch {
	case cfg.JSONReport:
		writer = report.NewJSONWriter(output)
	case cfg.MarkdownReport:
		writer = report.NewMarkdownWriter(output)
	default:
		writer = report.NewTextWriter(output)
	}

	_, err := writer.Write(analysisReport)
	return err
}

// saveReport persists the analysis run to the history database.
func saveReport(ctx context.Context, cfg *config.Config, analysisReport *model.Report, logger *slog.Logger) error {
	db, err := database.Open(cfg.DBDir, database.DefaultOptions())
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	runID, err := db.SaveReport(ctx, analysisReport)
	if err != nil {
		return err
	}
	logger.Info("analysis run saved", "run", runID, "dir", cfg.DBDir)
	return nil
}
