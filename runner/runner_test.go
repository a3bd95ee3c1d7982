package runner

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	pexec "github.com/zhubert/pushbatch/exec"
	"github.com/zhubert/pushbatch/config"
)

func statusResponse(lines ...string) pexec.MockResponse {
	return pexec.MockResponse{Stdout: []byte(strings.Join(lines, "\n") + "\n")}
}

func TestRun_NothingToDo(t *testing.T) {
	mock := pexec.NewMockExecutor()
	mock.AddExactMatch("git", []string{"status", "--porcelain"}, pexec.MockResponse{})
	r, _ := newTestRunner(t, mock, config.Default())

	summary, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.NothingToDo {
		t.Errorf("summary = %+v, want nothing-to-do", summary)
	}
	if !summary.Success() {
		t.Error("empty run should succeed")
	}
}

func TestRun_StatusFailureIsHardStop(t *testing.T) {
	mock := pexec.NewMockExecutor()
	mock.AddExactMatch("git", []string{"status", "--porcelain"}, pexec.MockResponse{
		Err: fmt.Errorf("fatal: not a git repository"),
	})
	r, _ := newTestRunner(t, mock, config.Default())

	if _, err := r.Run(ctx); err == nil {
		t.Error("expected error when status query fails")
	}
}

func TestRun_SingleShot(t *testing.T) {
	mock := pexec.NewMockExecutor()
	mock.AddExactMatch("git", []string{"status", "--porcelain"},
		statusResponse("?? a.txt", " M b.txt"))
	r, repo := newTestRunner(t, mock, config.Default())
	writeTreeFile(t, repo, "a.txt", 100)
	writeTreeFile(t, repo, "b.txt", 200)

	summary, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.SingleShot {
		t.Fatalf("summary = %+v, want single-shot", summary)
	}
	if summary.Committed != 1 || !summary.Success() {
		t.Errorf("summary = %+v", summary)
	}

	calls := mock.GetCalls()
	if !hasCall(calls, "add", "-A") {
		t.Error("missing git add -A")
	}
	if !hasCall(calls, "push") {
		t.Error("missing git push")
	}
}

func TestRun_DeletionsForceBatchPath(t *testing.T) {
	mock := pexec.NewMockExecutor()
	mock.AddExactMatch("git", []string{"status", "--porcelain"},
		statusResponse("?? a/x.txt", "?? a/y.txt", " D a/gone.txt"))
	r, repo := newTestRunner(t, mock, config.Default())
	writeTreeFile(t, repo, "a/x.txt", 100)
	writeTreeFile(t, repo, "a/y.txt", 100)

	summary, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.SingleShot {
		t.Fatal("deletions present, run must take the batch path")
	}
	if summary.Batches != 1 || summary.Committed != 1 {
		t.Errorf("summary = %+v", summary)
	}

	calls := mock.GetCalls()
	if !hasCall(calls, "add", "--", "a/x.txt") || !hasCall(calls, "add", "--", "a/y.txt") {
		t.Error("missing per-path add calls")
	}
	if !hasCall(calls, "rm", "--", "a/gone.txt") {
		t.Error("missing git rm call")
	}
	if hasCall(calls, "add", "-A") {
		t.Error("batch path must not stage everything at once")
	}
}

func TestRun_LargeChangesetBatches(t *testing.T) {
	cfg := config.Default()
	// Tiny thresholds so ordinary test files exercise the packing paths:
	// collapse at 1KB, ceiling 2KB, single-shot below 1KB.
	cfg.CollapseThresholdMB = 1.0 / 1024
	cfg.BatchCeilingMB = 2.0 / 1024
	cfg.SingleShotMaxMB = 1.0 / 1024
	cfg.LargeFileThresholdMB = 100 // keep the splitter out of this test

	mock := pexec.NewMockExecutor()
	mock.AddExactMatch("git", []string{"status", "--porcelain"},
		statusResponse("?? d1/a.bin", "?? d1/b.bin", "?? d2/c.bin", "?? d2/d.bin"))
	r, repo := newTestRunner(t, mock, cfg)
	for _, rel := range []string{"d1/a.bin", "d1/b.bin", "d2/c.bin", "d2/d.bin"} {
		writeTreeFile(t, repo, rel, 1024)
	}

	summary, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.SingleShot {
		t.Fatal("4KB total with 1KB single-shot limit must batch")
	}
	if summary.Batches < 2 {
		t.Errorf("batches = %d, want at least 2", summary.Batches)
	}
	if summary.Committed != summary.Batches {
		t.Errorf("summary = %+v, want all batches committed", summary)
	}

	commits := 0
	for _, c := range mock.GetCalls() {
		if len(c.Args) > 0 && c.Args[0] == "commit" {
			commits++
		}
	}
	if commits != summary.Batches {
		t.Errorf("commits = %d, batches = %d", commits, summary.Batches)
	}
}

func TestRun_DryRunPlansWithoutMutation(t *testing.T) {
	mock := pexec.NewMockExecutor()
	mock.AddExactMatch("git", []string{"status", "--porcelain"},
		statusResponse("?? a/x.txt", " D a/gone.txt"))
	r, repo := newTestRunner(t, mock, config.Default())
	r.dryRun = true
	writeTreeFile(t, repo, "a/x.txt", 100)

	summary, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if !summary.DryRun || summary.Batches != 1 {
		t.Errorf("summary = %+v", summary)
	}
	for _, c := range mock.GetCalls() {
		if c.Args[0] != "status" {
			t.Errorf("dry run issued mutating command: %v", c.Args)
		}
	}
}

func TestRun_SplitsLargeUntrackedFiles(t *testing.T) {
	cfg := config.Default()
	cfg.LargeFileThresholdMB = 1.0 / 1024 // 1KB
	cfg.ChunkSizeMB = 1.0 / 1024

	mock := pexec.NewMockExecutor()
	mock.AddExactMatch("git", []string{"status", "--porcelain"},
		statusResponse("?? big.bin"))
	r, repo := newTestRunner(t, mock, cfg)
	writeTreeFile(t, repo, "big.bin", 2500) // ~2.5 chunks

	summary, err := r.Run(ctx)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if summary.SplitFiles != 1 {
		t.Errorf("SplitFiles = %d, want 1", summary.SplitFiles)
	}

	splitDir := filepath.Join(repo, "big.bin-split")
	entries, err := os.ReadDir(splitDir)
	if err != nil {
		t.Fatalf("split dir missing: %v", err)
	}
	if len(entries) != 3 {
		t.Errorf("parts = %d, want 3", len(entries))
	}

	ignore, err := os.ReadFile(filepath.Join(repo, ".gitignore"))
	if err != nil {
		t.Fatalf("gitignore missing: %v", err)
	}
	if !strings.Contains(string(ignore), "big.bin.merged") {
		t.Errorf("gitignore = %q", string(ignore))
	}
}

func TestSummary_Success(t *testing.T) {
	s := &Summary{}
	if !s.Success() {
		t.Error("zero failures should be success")
	}
	s.CommandFails = 1
	if s.Success() {
		t.Error("failures should make the run unsuccessful")
	}
}
