// Package paths provides centralized path resolution for pushbatch's data
// directories. Everything lives under ~/.pushbatch: tool-level state and
// the transient log files.
package paths

import (
	"os"
	"path/filepath"
	"sync"
)

var (
	mu       sync.Mutex
	homeDir  string
	resolved bool
)

// resolve computes the home directory once and caches it.
func resolve() (string, error) {
	mu.Lock()
	defer mu.Unlock()

	if resolved {
		return homeDir, nil
	}

	if override := os.Getenv("PUSHBATCH_HOME"); override != "" {
		homeDir = override
		resolved = true
		return homeDir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}

	homeDir = filepath.Join(home, ".pushbatch")
	resolved = true
	return homeDir, nil
}

// HomeDir returns ~/.pushbatch, creating it if needed.
func HomeDir() (string, error) {
	dir, err := resolve()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	return dir, nil
}

// LogsDir returns the directory for log files, creating it if needed.
func LogsDir() (string, error) {
	dir, err := resolve()
	if err != nil {
		return "", err
	}
	logs := filepath.Join(dir, "logs")
	if err := os.MkdirAll(logs, 0755); err != nil {
		return "", err
	}
	return logs, nil
}

// Reset clears the cached resolution so the next call re-resolves.
// This is primarily for testing purposes.
func Reset() {
	mu.Lock()
	defer mu.Unlock()
	resolved = false
	homeDir = ""
}
