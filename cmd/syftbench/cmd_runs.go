package main

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"syftbench/internal/results"
	"syftbench/internal/taskmap"
)

var runsCase string

// runsCmd inspects the run archive.
var runsCmd = &cobra.Command{
	Use:   "runs [run-id]",
	Short: "List archived runs",
	Long: `Lists runs recorded in the result archive, newest first. With a
run ID, prints that run's per-case rows; with --case, shows that
benchmark case's history across runs instead.

The archive is optional; runs record into it only when
results.archive_path is set in the configuration.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runRuns,
}

func init() {
	runsCmd.Flags().StringVar(&runsCase, "case", "", "show history for one benchmark case")
}

func runRuns(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.Results.ArchivePath == "" {
		return fmt.Errorf("no archive configured; set results.archive_path in %s", configPath)
	}

	arch, err := results.OpenArchive(cfg.Results.ArchivePath)
	if err != nil {
		return err
	}
	defer arch.Close()

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	defer w.Flush()

	if len(args) == 1 {
		rows, err := arch.RunRows(args[0])
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return fmt.Errorf("no archived rows for run %q", args[0])
		}
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\t%.3f\n", r.Test, r.Status, r.TimeSec)
		}
		return nil
	}

	if runsCase != "" {
		for _, sc := range cfg.Solvers {
			for _, mode := range taskmap.Modes() {
				rows, err := arch.CaseHistory(runsCase, sc.Name, string(mode))
				if err != nil {
					return err
				}
				for _, r := range rows {
					fmt.Fprintf(w, "%s\t%s\t%s\t%.3f\n", sc.Name, mode, r.Status, r.TimeSec)
				}
			}
		}
		return nil
	}

	runs, err := arch.Runs()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("No archived runs.")
		return nil
	}
	fmt.Fprintln(w, "ID\tSOLVER\tMODE\tSHARD\tSTARTED\tDURATION")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%d/%d\t%s\t%s\n",
			r.ID, r.Solver, r.Mode, r.Shard, r.Shards,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond))
	}
	return nil
}
