// Package runner orchestrates a pushbatch run: split oversized untracked
// files, take the change inventory, plan batches, and drive git through
// staging, commit, and push for each batch in order. Execution is fully
// sequential; later batches' diffs depend on the state earlier ones leave
// behind, so batches never overlap. A failing batch is logged and the run
// continues (best-effort policy); the Summary carries the aggregate
// success flag.
package runner

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/zhubert/pushbatch/config"
	"github.com/zhubert/pushbatch/git"
	"github.com/zhubert/pushbatch/inventory"
	"github.com/zhubert/pushbatch/logger"
	"github.com/zhubert/pushbatch/plan"
	"github.com/zhubert/pushbatch/split"
)

// Summary is the aggregate outcome of one run.
type Summary struct {
	RunID        string
	NothingToDo  bool
	SingleShot   bool
	DryRun       bool
	TotalMB      float64
	CommittedMB  float64
	Batches      int
	Committed    int // batches committed and pushed
	SplitFiles   int
	CommandFails int // staging/commit/push/split failures across the run
}

// Success reports whether the run completed with no command failures.
func (s *Summary) Success() bool {
	return s.CommandFails == 0
}

// Runner executes one run against a single repository.
type Runner struct {
	client   *git.Client
	inv      *inventory.Service
	splitter *split.Splitter
	cfg      *config.Config
	msgFile  string
	dryRun   bool
	out      io.Writer
}

// Option configures a Runner.
type Option func(*Runner)

// WithDryRun plans and prints batches without mutating anything.
func WithDryRun(enabled bool) Option {
	return func(r *Runner) { r.dryRun = enabled }
}

// WithOutput redirects user-facing progress output. Default is stdout.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// New creates a Runner committing with the message in msgFile.
func New(client *git.Client, cfg *config.Config, msgFile string, opts ...Option) *Runner {
	r := &Runner{
		client:   client,
		inv:      inventory.NewService(client, cfg, client.RepoDir()),
		splitter: split.New(cfg.ChunkSizeBytes(), cfg.MergeTool),
		cfg:      cfg,
		msgFile:  msgFile,
		out:      os.Stdout,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes the full pipeline. It returns an error only for hard stops
// (the status query itself failing); command failures inside the run are
// counted in the Summary instead.
func (r *Runner) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{RunID: uuid.New().String(), DryRun: r.dryRun}
	log := logger.WithRun(summary.RunID)
	log.Info("run started", "repo", r.client.RepoDir(), "dryRun", r.dryRun)

	if !r.dryRun {
		r.splitLargeFiles(ctx, summary, log)
	}

	snap, err := r.inv.Take(ctx)
	if err != nil {
		log.Error("status query failed", "error", err)
		return summary, err
	}
	if snap.Empty() {
		fmt.Fprintln(r.out, "No modified, untracked or deleted files found")
		summary.NothingToDo = true
		return summary, nil
	}

	summary.TotalMB = snap.TotalSizeMB()
	fmt.Fprintf(r.out, "Total size: %.2f MB, deletions: %d\n", summary.TotalMB, len(snap.Deletes))

	if summary.TotalMB <= r.cfg.SingleShotMaxMB && len(snap.Deletes) == 0 {
		r.singleShot(ctx, summary, log)
		return summary, nil
	}

	batches := plan.Pack(
		plan.Aggregate(toFiles(snap.Adds), toPaths(snap.Deletes), r.cfg.CollapseThresholdMB),
		r.cfg.BatchCeilingMB,
	)
	summary.Batches = len(batches)
	fmt.Fprintf(r.out, "Committing in %d batches\n", len(batches))

	if r.dryRun {
		r.printPlan(batches)
		return summary, nil
	}

	for _, batch := range batches {
		result := r.CommitBatch(ctx, batch, len(batches))
		summary.CommandFails += result.Failures
		if result.Committed || result.NoOp {
			summary.Committed++
			summary.CommittedMB += batch.TotalSizeMB
			r.printProgress(summary)
		}
	}

	log.Info("run finished",
		"batches", summary.Batches,
		"committed", summary.Committed,
		"failures", summary.CommandFails)
	return summary, nil
}

// singleShot stages everything at once for small changesets with no
// deletions, bypassing batch planning.
func (r *Runner) singleShot(ctx context.Context, summary *Summary, log *slog.Logger) {
	summary.SingleShot = true
	fmt.Fprintln(r.out, "Committing all files at once")
	if r.dryRun {
		return
	}

	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"stage", r.client.StageAll},
		{"commit", func(ctx context.Context) error { return r.client.Commit(ctx, r.msgFile) }},
		{"push", r.client.Push},
	}
	for _, step := range steps {
		if err := step.fn(ctx); err != nil {
			log.Error("single-shot step failed", "step", step.name, "error", err)
			fmt.Fprintf(r.out, "%s failed: %v\n", step.name, err)
			summary.CommandFails++
			return
		}
	}
	summary.Committed = 1
	summary.CommittedMB = summary.TotalMB
	log.Info("single-shot commit pushed", "sizeMB", summary.TotalMB)
}

// splitLargeFiles routes every oversized untracked file through the
// splitter. A failure on one file is counted and does not stop the rest.
func (r *Runner) splitLargeFiles(ctx context.Context, summary *Summary, log *slog.Logger) {
	large, err := r.inv.LargeFiles(ctx)
	if err != nil {
		log.Warn("large-file scan failed", "error", err)
		return
	}
	if len(large) == 0 {
		return
	}

	fmt.Fprintf(r.out, "Found %d large untracked files (>%.0f MB)\n", len(large), r.cfg.LargeFileThresholdMB)
	for _, path := range large {
		fmt.Fprintf(r.out, "  splitting %s (%.2f MB)\n", path, r.inv.SizeMB(path))
		manifest, err := r.splitter.Process(r.absPath(path))
		if err != nil {
			log.Warn("split failed", "path", path, "error", err)
			fmt.Fprintf(r.out, "  split failed for %s: %v\n", path, err)
			summary.CommandFails++
			continue
		}
		summary.SplitFiles++
		log.Info("split file", "path", path, "parts", len(manifest.Parts))
	}
}

func (r *Runner) printPlan(batches []plan.Batch) {
	for _, b := range batches {
		fmt.Fprintf(r.out, "  batch %d: %d adds, %d deletions, %.2f MB\n",
			b.Seq, len(b.AddPaths), len(b.DeletePaths), b.TotalSizeMB)
	}
}

func (r *Runner) printProgress(summary *Summary) {
	percent := 100.0
	if summary.TotalMB > 0 {
		percent = summary.CommittedMB / summary.TotalMB * 100
	}
	fmt.Fprintf(r.out, "Progress: %.2f/%.2f MB (%.1f%%)\n",
		summary.CommittedMB, summary.TotalMB, percent)
}

func (r *Runner) absPath(rel string) string {
	return filepath.Join(r.client.RepoDir(), rel)
}

func toFiles(entries []inventory.Entry) []plan.File {
	files := make([]plan.File, len(entries))
	for i, e := range entries {
		files[i] = plan.File{Path: e.Path, SizeMB: e.SizeMB}
	}
	return files
}

func toPaths(entries []inventory.Entry) []string {
	paths := make([]string, len(entries))
	for i, e := range entries {
		paths[i] = e.Path
	}
	return paths
}
