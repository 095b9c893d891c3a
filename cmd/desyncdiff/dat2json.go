package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/nao1215/desyncdiff/internal/dat"
	"github.com/nao1215/desyncdiff/internal/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// defaultDat2JSONConcurrency bounds parallel decodes. Decoding is
// CPU-light but each file is buffered through its own cursor, so a
// small constant keeps memory predictable on big batches.
const defaultDat2JSONConcurrency = 4

// NewDat2JSONCmd creates the dat2json command.
func NewDat2JSONCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dat2json <file.dat>...",
		Short: "Decode binary game state dumps to JSON",
		Long: `Dat2json decodes binary .dat game state dumps through their schemas
and writes the result as JSON next to each input file.

The format is inferred from the file name (script.dat decodes as
"script", mod-settings.dat as "mod-settings", and so on) and can be
overridden with --format when files are named differently.

Supported formats: ` + strings.Join(dat.Formats(), ", ") + `

Examples:
  # Decode a script dump to script.dat.json
  desyncdiff dat2json script.dat

  # Decode several dumps in parallel
  desyncdiff dat2json script.dat mod-settings.dat achievements.dat

  # Decode a renamed file with an explicit format
  desyncdiff dat2json --format script level-dump.bin

  # Print to stdout instead of writing files
  desyncdiff dat2json --stdout script.dat`,
		Args: cobra.MinimumNArgs(1),
		RunE: runDat2JSONCmd,
	}

	cmd.Flags().StringP("format", "F", "",
		"Schema format to decode with (default: inferred from file name)")
	cmd.Flags().Bool("stdout", false,
		"Print JSON to stdout instead of writing <file>.json")

	return cmd
}

// runDat2JSONCmd executes the dat2json command.
func runDat2JSONCmd(cmd *cobra.Command, args []string) error {
	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return err
	}
	toStdout, err := cmd.Flags().GetBool("stdout")
	if err != nil {
		return err
	}

	logger := log.New(log.WithVerbose(getVerboseFlag(cmd)))
	slog.SetDefault(logger)

	// Stdout output must stay ordered, so only file output runs in
	// parallel.
	if toStdout {
		for _, path := range args {
			if err := decodeToWriter(path, format, cmd.OutOrStdout().Write); err != nil {
				return err
			}
		}
		return nil
	}

	g, _ := errgroup.WithContext(context.Background())
	g.SetLimit(defaultDat2JSONConcurrency)
	for _, path := range args {
		g.Go(func() error {
			outPath := path + ".json"
			if err := decodeToFile(path, format, outPath); err != nil {
				return err
			}
			logger.Info("decoded", "input", path, "output", outPath)
			return nil
		})
	}
	return g.Wait()
}

// inferFormat derives the schema format from the file name.
func inferFormat(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".dat")
}

// decodeFile decodes one dump and renders it as indented JSON.
func decodeFile(path, format string) ([]byte, error) {
	if format == "" {
		format = inferFormat(path)
	}

	f, err := os.Open(path) //nolint:gosec // User-provided input path is intentional
	if err != nil {
		return nil, err
	}
	defer f.Close()

	value, err := dat.Decode(format, f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	data, err := json.MarshalIndent(dat.ToGenericValue(value), "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// decodeToFile writes the decoded JSON next to the input file.
func decodeToFile(path, format, outPath string) error {
	data, err := decodeFile(path, format)
	if err != nil {
		return err
	}
	return os.WriteFile(outPath, data, 0600)
}

// decodeToWriter streams the decoded JSON through the given write func.
func decodeToWriter(path, format string, write func([]byte) (int, error)) error {
	data, err := decodeFile(path, format)
	if err != nil {
		return err
	}
	_, err = write(data)
	return err
}
