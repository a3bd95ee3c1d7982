// Package split chunks oversized files into fixed-size parts so they can
// be committed within a hosting provider's per-push limits. The original
// file stays on disk and is ignored by git; an external merge tool
// reconstructs it from the parts.
package split

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/zhubert/pushbatch/logger"
)

// Manifest describes the chunk set produced for one source file.
type Manifest struct {
	Source    string   // original file path
	SplitDir  string   // sibling directory holding the parts
	Parts     []string // part file paths, in order
	SizeBytes int64    // original file size
}

// Splitter chunks files and maintains the surrounding bookkeeping: ignore
// patterns for the original and its future merged form, and the companion
// merge executable.
type Splitter struct {
	chunkSize int64  // bytes per part
	mergeTool string // companion executable filename, empty to skip
}

// New returns a Splitter producing parts of at most chunkSize bytes.
func New(chunkSize int64, mergeTool string) *Splitter {
	return &Splitter{chunkSize: chunkSize, mergeTool: mergeTool}
}

// Process gives path the full oversized-file treatment: register ignore
// patterns, copy the merge tool next to it when available, and split it
// into parts. An I/O error aborts processing for this file only.
func (s *Splitter) Process(path string) (*Manifest, error) {
	dir := filepath.Dir(path)
	name := filepath.Base(path)

	if err := UpdateIgnoreFile(dir, name, name+".merged"); err != nil {
		return nil, fmt.Errorf("failed to update ignore file in %s: %w", dir, err)
	}

	// Best effort: the merge tool is a convenience for whoever clones the
	// repo, not required for the split itself.
	if s.mergeTool != "" {
		if err := s.copyMergeTool(dir); err != nil {
			logger.WithComponent("split").Warn("merge tool copy skipped", "dir", dir, "error", err)
		}
	}

	return s.Split(path)
}

// Split reads path sequentially and writes consecutive chunks as
// sequentially numbered part files under a sibling "<name>-split" directory.
func (s *Splitter) Split(path string) (*Manifest, error) {
	log := logger.WithComponent("split")

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}

	dir := filepath.Dir(path)
	name := filepath.Base(path)
	splitDir := filepath.Join(dir, name+"-split")
	if err := os.MkdirAll(splitDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create split dir %s: %w", splitDir, err)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	manifest := &Manifest{
		Source:    path,
		SplitDir:  splitDir,
		SizeBytes: info.Size(),
	}

	buf := make([]byte, s.chunkSize)
	for partNum := 1; ; partNum++ {
		n, readErr := io.ReadFull(f, buf)
		if n > 0 {
			partPath := filepath.Join(splitDir, fmt.Sprintf("%s-part%04d", name, partNum))
			if err := os.WriteFile(partPath, buf[:n], 0644); err != nil {
				return nil, fmt.Errorf("failed to write part %s: %w", partPath, err)
			}
			manifest.Parts = append(manifest.Parts, partPath)
		}
		if readErr == io.EOF || readErr == io.ErrUnexpectedEOF {
			break
		}
		if readErr != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, readErr)
		}
	}

	log.Info("split file", "path", path, "parts", len(manifest.Parts), "sizeBytes", manifest.SizeBytes)
	return manifest, nil
}

// UpdateIgnoreFile appends patterns to dir/.gitignore, creating it when
// missing. Existing lines keep their order; only patterns not already
// present are appended.
func UpdateIgnoreFile(dir string, patterns ...string) error {
	ignorePath := filepath.Join(dir, ".gitignore")

	var lines []string
	data, err := os.ReadFile(ignorePath)
	if err == nil {
		content := strings.TrimRight(string(data), "\n")
		if content != "" {
			lines = strings.Split(content, "\n")
		}
	} else if !os.IsNotExist(err) {
		return err
	}

	existing := make(map[string]bool, len(lines))
	for _, line := range lines {
		existing[line] = true
	}

	changed := false
	for _, pattern := range patterns {
		if !existing[pattern] {
			lines = append(lines, pattern)
			existing[pattern] = true
			changed = true
		}
	}
	if !changed {
		return nil
	}

	return os.WriteFile(ignorePath, []byte(strings.Join(lines, "\n")+"\n"), 0644)
}

// copyMergeTool copies the merge executable from the pushbatch install
// location into dir, if present there and not already in dir.
func (s *Splitter) copyMergeTool(dir string) error {
	exePath, err := os.Executable()
	if err != nil {
		return err
	}

	source := filepath.Join(filepath.Dir(exePath), s.mergeTool)
	target := filepath.Join(dir, s.mergeTool)

	if _, err := os.Stat(target); err == nil {
		return nil
	}
	info, err := os.Stat(source)
	if err != nil {
		return fmt.Errorf("%s not found alongside pushbatch: %w", s.mergeTool, err)
	}

	data, err := os.ReadFile(source)
	if err != nil {
		return err
	}
	if err := os.WriteFile(target, data, info.Mode().Perm()); err != nil {
		return err
	}

	logger.WithComponent("split").Info("copied merge tool", "target", target)
	return nil
}
