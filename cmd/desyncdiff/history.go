package main

import (
	"fmt"
	"strconv"

	"github.com/nao1215/desyncdiff/internal/config"
	"github.com/nao1215/desyncdiff/internal/database"
	"github.com/spf13/cobra"
)

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "List past analysis runs",
		Long: `History lists analysis runs saved with 'analyze --history'.

Without arguments the most recent runs are listed. With a run ID the
per-artifact results of that run are shown.

Examples:
  # List the last runs
  desyncdiff history

  # Show the artifact breakdown of run 3
  desyncdiff history 3`,
		Args: cobra.MaximumNArgs(1),
		RunE: runHistoryCmd,
	}

	cmd.Flags().IntP("limit", "n", 20, "Maximum number of runs to list")
	cmd.Flags().String("db-dir", "", "History database directory (default: XDG data directory)")

	return cmd
}

// runHistoryCmd executes the history command.
func runHistoryCmd(cmd *cobra.Command, args []string) error {
	limit, err := cmd.Flags().GetInt("limit")
	if err != nil {
		return err
	}
	dbDir, err := cmd.Flags().GetString("db-dir")
	if err != nil {
		return err
	}
	if dbDir == "" {
		dbDir = config.XDGDataDir()
	}

	// Listing never creates a database; an empty history is reported as
	// such instead of leaving an empty file behind.
	db, err := database.Open(dbDir, database.Options{CreateIfNotExists: false, EnableWAL: true})
	if err != nil {
		fmt.Fprintln(cmd.OutOrStdout(), "No analysis history found. Run 'desyncdiff analyze --history' first.")
		return nil
	}
	defer db.Close()

	if len(args) == 1 {
		runID, err := strconv.ParseInt(args[0], 10, 64)
		if err != nil {
			return fmt.Errorf("invalid run ID %q: %w", args[0], err)
		}
		return showRun(cmd, db, runID)
	}
	return listRuns(cmd, db, limit)
}

// listRuns prints the most recent runs.
func listRuns(cmd *cobra.Command, db *database.HistoryDB, limit int) error {
	runs, err := db.RecentRuns(cmd.Context(), limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No analysis runs recorded.")
		return nil
	}

	for _, run := range runs {
		verdict := "identical"
		if run.Differs {
			verdict = "differs"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%4d  %s  %-9s  %s\n",
			run.ID,
			run.Timestamp.Format("2006-01-02 15:04"),
			verdict,
			run.ReportPath,
		)
		if run.FirstDivergence != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "      first divergence: %s\n", run.FirstDivergence)
		}
	}
	return nil
}

// showRun prints the artifact breakdown of one run.
func showRun(cmd *cobra.Command, db *database.HistoryDB, runID int64) error {
	roles, err := db.RunRoles(cmd.Context(), runID)
	if err != nil {
		return err
	}
	if len(roles) == 0 {
		fmt.Fprintf(cmd.OutOrStdout(), "No run with ID %d.\n", runID)
		return nil
	}

	for _, role := range roles {
		verdict := "identical"
		if role.Differs {
			verdict = fmt.Sprintf("differs (%d entries, %d blocks)", role.EntryCount, role.BlockCount)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%-22s %s\n", role.Role, verdict)
		if role.ErrorMessage != "" {
			fmt.Fprintf(cmd.OutOrStdout(), "  error: %s\n", role.ErrorMessage)
		}
	}
	return nil
}
