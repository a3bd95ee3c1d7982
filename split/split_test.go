package split

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zhubert/pushbatch/logger"
	"github.com/zhubert/pushbatch/paths"
)

func setupTest(t *testing.T) {
	t.Helper()
	t.Setenv("PUSHBATCH_HOME", t.TempDir())
	paths.Reset()
	logger.Reset()
	t.Cleanup(func() {
		logger.Reset()
		paths.Reset()
	})
}

func writeFile(t *testing.T, path string, size int) {
	t.Helper()
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

func TestSplit_ExactAndRemainderParts(t *testing.T) {
	setupTest(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "blob.bin")
	// 120 units with 50-unit chunks: parts of 50, 50, 20.
	writeFile(t, src, 120)

	s := New(50, "")
	manifest, err := s.Split(src)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	if manifest.SplitDir != filepath.Join(dir, "blob.bin-split") {
		t.Errorf("SplitDir = %q", manifest.SplitDir)
	}
	if len(manifest.Parts) != 3 {
		t.Fatalf("expected 3 parts, got %d", len(manifest.Parts))
	}
	wantSizes := []int64{50, 50, 20}
	for i, part := range manifest.Parts {
		wantName := fmt.Sprintf("blob.bin-part%04d", i+1)
		if filepath.Base(part) != wantName {
			t.Errorf("part %d name = %q, want %q", i, filepath.Base(part), wantName)
		}
		info, err := os.Stat(part)
		if err != nil {
			t.Fatalf("part %d missing: %v", i, err)
		}
		if info.Size() != wantSizes[i] {
			t.Errorf("part %d size = %d, want %d", i, info.Size(), wantSizes[i])
		}
	}
	if manifest.SizeBytes != 120 {
		t.Errorf("SizeBytes = %d, want 120", manifest.SizeBytes)
	}
}

func TestSplit_ReassemblesToOriginal(t *testing.T) {
	setupTest(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "data.tar")
	writeFile(t, src, 333)

	s := New(100, "")
	manifest, err := s.Split(src)
	if err != nil {
		t.Fatalf("Split failed: %v", err)
	}

	var reassembled []byte
	for _, part := range manifest.Parts {
		data, err := os.ReadFile(part)
		if err != nil {
			t.Fatalf("failed to read part: %v", err)
		}
		reassembled = append(reassembled, data...)
	}

	original, _ := os.ReadFile(src)
	if !bytes.Equal(reassembled, original) {
		t.Error("concatenated parts differ from original")
	}
}

func TestSplit_MissingFile(t *testing.T) {
	setupTest(t)
	s := New(50, "")
	if _, err := s.Split(filepath.Join(t.TempDir(), "nope.bin")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestProcess_UpdatesIgnoreFile(t *testing.T) {
	setupTest(t)
	dir := t.TempDir()
	src := filepath.Join(dir, "blob.bin")
	writeFile(t, src, 75)

	s := New(50, "")
	if _, err := s.Process(src); err != nil {
		t.Fatalf("Process failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, ".gitignore"))
	if err != nil {
		t.Fatalf("gitignore not created: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 2 || lines[0] != "blob.bin" || lines[1] != "blob.bin.merged" {
		t.Errorf("gitignore lines = %v", lines)
	}
}

func TestUpdateIgnoreFile_PreservesExistingAndDedups(t *testing.T) {
	dir := t.TempDir()
	ignorePath := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(ignorePath, []byte("*.log\nblob.bin\n"), 0644); err != nil {
		t.Fatalf("failed to seed gitignore: %v", err)
	}

	if err := UpdateIgnoreFile(dir, "blob.bin", "blob.bin.merged"); err != nil {
		t.Fatalf("UpdateIgnoreFile failed: %v", err)
	}

	data, _ := os.ReadFile(ignorePath)
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	want := []string{"*.log", "blob.bin", "blob.bin.merged"}
	if len(lines) != len(want) {
		t.Fatalf("lines = %v, want %v", lines, want)
	}
	for i := range want {
		if lines[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, lines[i], want[i])
		}
	}
}

func TestUpdateIgnoreFile_NoChangeNoRewrite(t *testing.T) {
	dir := t.TempDir()
	ignorePath := filepath.Join(dir, ".gitignore")
	if err := os.WriteFile(ignorePath, []byte("a.bin\na.bin.merged\n"), 0644); err != nil {
		t.Fatalf("failed to seed gitignore: %v", err)
	}
	before, _ := os.ReadFile(ignorePath)

	if err := UpdateIgnoreFile(dir, "a.bin", "a.bin.merged"); err != nil {
		t.Fatalf("UpdateIgnoreFile failed: %v", err)
	}

	after, _ := os.ReadFile(ignorePath)
	if !bytes.Equal(before, after) {
		t.Errorf("gitignore changed despite no new patterns: %q -> %q", before, after)
	}
}
