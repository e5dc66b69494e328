// Package watch blocks until every result artifact of a run exists,
// letting a login-node shell wait for a job array instead of polling the
// scheduler.
package watch

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"syftbench/internal/taskmap"
)

// ExpectedPaths returns every artifact path a run with the given shard
// count will produce.
func ExpectedPaths(resultsDir string, shards int) []string {
	paths := make([]string, 0, taskmap.TaskCount(shards))
	for task := 0; task < taskmap.TaskCount(shards); task++ {
		a, _ := taskmap.Resolve(task, shards)
		paths = append(paths, a.OutputPath(resultsDir))
	}
	return paths
}

// Wait returns once every expected artifact for the run exists, or when
// ctx is done. The results directory is created if missing so the watch
// can start before the first task does.
func Wait(ctx context.Context, log *zap.Logger, resultsDir string, shards int) error {
	if log == nil {
		log = zap.NewNop()
	}
	if err := os.MkdirAll(resultsDir, 0755); err != nil {
		return err
	}

	pending := make(map[string]bool)
	for _, p := range ExpectedPaths(resultsDir, shards) {
		pending[filepath.Clean(p)] = true
	}

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()
	if err := w.Add(resultsDir); err != nil {
		return err
	}

	// Scan after the watch is registered: artifacts written between the
	// scan and the first event would otherwise be missed.
	for p := range pending {
		if _, err := os.Stat(p); err == nil {
			delete(pending, p)
		}
	}
	log.Info("waiting for result artifacts",
		zap.Int("expected", taskmap.TaskCount(shards)),
		zap.Int("pending", len(pending)))

	for len(pending) > 0 {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			// Result files land via rename, so Create covers both the
			// temp file and the final artifact.
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) {
				continue
			}
			p := filepath.Clean(ev.Name)
			if pending[p] {
				delete(pending, p)
				log.Info("artifact arrived",
					zap.String("path", p),
					zap.Int("pending", len(pending)))
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
	return nil
}
