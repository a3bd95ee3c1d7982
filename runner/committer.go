package runner

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/zhubert/pushbatch/logger"
	"github.com/zhubert/pushbatch/plan"
)

// BatchResult reports the outcome of committing one batch.
type BatchResult struct {
	Seq           int
	StagedAdds    int
	StagedDeletes int
	Skipped       []string // paths filtered out before staging
	Failures      int      // failed staging, commit, or push operations
	Committed     bool     // commit and push both succeeded
	NoOp          bool     // nothing valid to stage; treated as success
}

// CommitBatch stages, commits, and pushes one batch. Adds are filtered to
// paths still present on disk and deletes to paths confirmed absent; the
// rest are logged and skipped since the tree may have moved between
// planning and execution. Each path is staged individually so one failing
// path does not block the others. The commit and push run only when at
// least one staging operation succeeded; a batch with zero valid changes
// is a no-op success.
func (r *Runner) CommitBatch(ctx context.Context, batch plan.Batch, totalBatches int) BatchResult {
	log := logger.WithComponent("committer")
	result := BatchResult{Seq: batch.Seq}

	fmt.Fprintf(r.out, "Batch %d/%d: %d files, %d deletions, %.2f MB\n",
		batch.Seq, totalBatches, len(batch.AddPaths), len(batch.DeletePaths), batch.TotalSizeMB)

	adds, dels := r.filterBatch(batch, &result, log)
	if len(adds) == 0 && len(dels) == 0 {
		fmt.Fprintln(r.out, "  no valid paths, skipping batch")
		result.NoOp = true
		return result
	}

	for _, path := range adds {
		if err := r.client.StageAdd(ctx, path); err != nil {
			log.Warn("stage add failed", "path", path, "error", err)
			result.Failures++
			continue
		}
		result.StagedAdds++
	}
	for _, path := range dels {
		if err := r.client.StageRemove(ctx, path); err != nil {
			log.Warn("stage remove failed", "path", path, "error", err)
			result.Failures++
			continue
		}
		result.StagedDeletes++
	}

	fmt.Fprintf(r.out, "  staged %d/%d adds, %d/%d removals\n",
		result.StagedAdds, len(adds), result.StagedDeletes, len(dels))

	if result.StagedAdds == 0 && result.StagedDeletes == 0 {
		fmt.Fprintln(r.out, "  no changes staged, skipping commit")
		result.NoOp = true
		return result
	}

	if err := r.client.Commit(ctx, r.msgFile); err != nil {
		log.Warn("commit failed", "seq", batch.Seq, "error", err)
		fmt.Fprintf(r.out, "  commit failed: %v\n", err)
		result.Failures++
		return result
	}
	if err := r.client.Push(ctx); err != nil {
		log.Warn("push failed", "seq", batch.Seq, "error", err)
		fmt.Fprintf(r.out, "  push failed: %v\n", err)
		result.Failures++
		return result
	}

	result.Committed = true
	log.Info("batch pushed", "seq", batch.Seq, "adds", result.StagedAdds, "deletes", result.StagedDeletes)
	return result
}

// filterBatch validates batch paths against the current tree state.
func (r *Runner) filterBatch(batch plan.Batch, result *BatchResult, log *slog.Logger) (adds, dels []string) {
	for _, path := range batch.AddPaths {
		if _, err := os.Stat(r.absPath(path)); err != nil {
			log.Warn("path does not exist, skipping", "path", path)
			result.Skipped = append(result.Skipped, path)
			continue
		}
		adds = append(adds, path)
	}

	for _, path := range batch.DeletePaths {
		if _, err := os.Stat(r.absPath(path)); err == nil {
			log.Warn("file marked deleted but still exists, skipping", "path", path)
			result.Skipped = append(result.Skipped, path)
			continue
		}
		dels = append(dels, path)
	}
	return adds, dels
}
