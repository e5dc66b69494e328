package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"syftbench/internal/results"
	"syftbench/internal/taskmap"
	"syftbench/internal/watch"
)

var (
	watchTimeout time.Duration
	watchMerge   bool
)

// watchCmd blocks until every result artifact of the run exists.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Wait until every task's result file exists",
	Long: `Watches the results directory until all tasks of the configured run
have written their CSVs, then optionally merges them. Lets a login-node
shell chain submission, waiting, and aggregation:

  syftbench submit && syftbench watch --merge`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchTimeout, "timeout", 0, "give up after this long (0 waits forever)")
	watchCmd.Flags().BoolVar(&watchMerge, "merge", false, "merge shard files once complete")
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if watchTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, watchTimeout)
		defer cancel()
	}

	if err := watch.Wait(ctx, logger, cfg.Results.Dir, cfg.Suite.Shards); err != nil {
		return fmt.Errorf("run did not complete: %w", err)
	}
	fmt.Printf("all %d result files present\n", taskmap.TaskCount(cfg.Suite.Shards))

	if watchMerge {
		paths, err := results.MergeAll(cfg.Results.Dir, cfg.Suite.Shards, results.MergeOptions{})
		if err != nil {
			return err
		}
		for _, p := range paths {
			fmt.Printf("merged -> %s\n", p)
		}
	}
	return nil
}
