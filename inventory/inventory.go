// Package inventory derives a fresh snapshot of pending changes from git
// status and the working tree: additions with measured sizes, deletions,
// and the oversized untracked files that must be split before planning.
package inventory

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zhubert/pushbatch/config"
	"github.com/zhubert/pushbatch/git"
	"github.com/zhubert/pushbatch/logger"
)

// Statuser is the slice of the git client the inventory needs.
type Statuser interface {
	Status(ctx context.Context) ([]git.Change, error)
}

// Entry is one pending change with its measured size. Deletions always
// carry size zero since the file no longer exists to measure.
type Entry struct {
	Path   string
	SizeMB float64
	Kind   git.ChangeKind
}

// Snapshot is the categorized change set for one run. Adds contains files
// only: changes git reports at directory granularity (untracked
// directories) are expanded to their member files.
type Snapshot struct {
	Adds    []Entry
	Deletes []Entry
}

// TotalSizeMB is the sum of all addition sizes.
func (s *Snapshot) TotalSizeMB() float64 {
	total := 0.0
	for _, e := range s.Adds {
		total += e.SizeMB
	}
	return total
}

// Empty reports whether the snapshot has no pending changes.
func (s *Snapshot) Empty() bool {
	return len(s.Adds) == 0 && len(s.Deletes) == 0
}

// Service builds snapshots for one repository.
type Service struct {
	client  Statuser
	cfg     *config.Config
	repoDir string
}

// NewService returns a Service reading status from client and sizes from
// the working tree under repoDir.
func NewService(client Statuser, cfg *config.Config, repoDir string) *Service {
	return &Service{client: client, cfg: cfg, repoDir: repoDir}
}

// SizeMB returns the size of the file at repo-relative path in megabytes,
// or 0 if it cannot be measured.
func (s *Service) SizeMB(path string) float64 {
	info, err := os.Stat(s.abs(path))
	if err != nil {
		return 0
	}
	return float64(info.Size()) / (1024 * 1024)
}

// Take queries status and builds the snapshot. Directory-granular changes
// are expanded recursively; unreadable paths are logged and skipped.
// A failed status query returns an error and no snapshot.
func (s *Service) Take(ctx context.Context) (*Snapshot, error) {
	changes, err := s.client.Status(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("inventory")
	snap := &Snapshot{}

	for _, change := range changes {
		if change.Kind == git.KindDeleted {
			snap.Deletes = append(snap.Deletes, Entry{Path: change.Path, Kind: git.KindDeleted})
			continue
		}

		info, err := os.Stat(s.abs(change.Path))
		if err != nil {
			log.Warn("skipping unreadable path", "path", change.Path, "error", err)
			continue
		}
		if info.IsDir() {
			snap.Adds = append(snap.Adds, s.expandDir(change.Path)...)
			continue
		}
		snap.Adds = append(snap.Adds, Entry{
			Path:   change.Path,
			SizeMB: float64(info.Size()) / (1024 * 1024),
			Kind:   git.KindAdded,
		})
	}
	return snap, nil
}

// LargeFiles returns repo-relative paths of untracked files above the
// configured threshold: single-file entries over the limit plus a
// recursive scan of untracked directories. Excluded paths are skipped.
func (s *Service) LargeFiles(ctx context.Context) ([]string, error) {
	changes, err := s.client.Status(ctx)
	if err != nil {
		return nil, err
	}

	log := logger.WithComponent("inventory")
	var large []string
	seenDirs := make(map[string]bool)

	for _, change := range changes {
		if !change.Untracked() || s.cfg.Excluded(change.Path) {
			continue
		}

		info, err := os.Stat(s.abs(change.Path))
		if err != nil {
			log.Warn("skipping unreadable path", "path", change.Path, "error", err)
			continue
		}

		if !info.IsDir() {
			if float64(info.Size())/(1024*1024) > s.cfg.LargeFileThresholdMB {
				large = append(large, change.Path)
			}
			continue
		}

		dir := filepath.Clean(change.Path)
		if seenDirs[dir] {
			continue
		}
		seenDirs[dir] = true
		large = append(large, s.largeFilesUnder(dir)...)
	}
	return large, nil
}

// largeFilesUnder walks an untracked directory for files over the
// threshold. Walk errors on one subtree do not stop the scan.
func (s *Service) largeFilesUnder(dir string) []string {
	log := logger.WithComponent("inventory")
	var large []string

	err := filepath.WalkDir(s.abs(dir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("scan error", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel := s.rel(path)
		if s.cfg.Excluded(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			log.Warn("scan error", "path", path, "error", err)
			return nil
		}
		if float64(info.Size())/(1024*1024) > s.cfg.LargeFileThresholdMB {
			large = append(large, rel)
		}
		return nil
	})
	if err != nil {
		log.Warn("scan aborted", "dir", dir, "error", err)
	}
	return large
}

// expandDir enumerates all files under a directory-granular change,
// honoring excludes.
func (s *Service) expandDir(dir string) []Entry {
	log := logger.WithComponent("inventory")
	var entries []Entry

	err := filepath.WalkDir(s.abs(dir), func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warn("expand error", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			return nil
		}
		rel := s.rel(path)
		if s.cfg.Excluded(rel) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			log.Warn("expand error", "path", path, "error", err)
			return nil
		}
		entries = append(entries, Entry{
			Path:   rel,
			SizeMB: float64(info.Size()) / (1024 * 1024),
			Kind:   git.KindAdded,
		})
		return nil
	})
	if err != nil {
		log.Warn("expand aborted", "dir", dir, "error", err)
	}
	return entries
}

// abs converts a repo-relative path to an absolute one.
func (s *Service) abs(path string) string {
	return filepath.Join(s.repoDir, path)
}

// rel converts an absolute path back to repo-relative slash form.
func (s *Service) rel(path string) string {
	rel, err := filepath.Rel(s.repoDir, path)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}
