package git

import (
	"context"
	"fmt"
	"strings"
)

// ChangeKind classifies a pending change for batching purposes. Untracked,
// modified, renamed, and staged-but-uncommitted entries are all additions;
// only deletions are treated differently.
type ChangeKind int

const (
	KindAdded ChangeKind = iota
	KindDeleted
)

func (k ChangeKind) String() string {
	if k == KindDeleted {
		return "deleted"
	}
	return "added"
}

// Change is a single pending working-tree change. For renames, Path is the
// destination path.
type Change struct {
	Path string
	Kind ChangeKind
	Code string // two-character porcelain status code
}

// Untracked reports whether the change is an untracked entry ("??").
func (c Change) Untracked() bool {
	return c.Code == "??"
}

// Status queries git status --porcelain and parses it into changes.
// A non-zero exit from git is returned as an error; callers treat that as
// a hard stop for the run.
func (c *Client) Status(ctx context.Context) ([]Change, error) {
	output, err := c.executor.Output(ctx, c.repoDir, "git", "status", "--porcelain")
	if err != nil {
		return nil, fmt.Errorf("git status failed: %w", err)
	}

	// Only trim trailing whitespace - leading space is significant in
	// porcelain format (" M file" carries status in the first column).
	raw := strings.TrimRight(string(output), "\n\r\t ")
	if raw == "" {
		return nil, nil
	}

	var changes []Change
	for _, line := range strings.Split(raw, "\n") {
		change, ok := parseStatusLine(line)
		if !ok {
			continue
		}
		changes = append(changes, change)
	}
	return changes, nil
}

// parseStatusLine parses one porcelain line of the form "XY PATH" or
// "XY OLD -> NEW". Renames collapse to a single change at the destination.
func parseStatusLine(line string) (Change, bool) {
	if len(line) < 4 {
		return Change{}, false
	}

	code := line[:2]
	path := strings.TrimSpace(line[3:])
	path = strings.ReplaceAll(path, `"`, "")
	if idx := strings.Index(path, " -> "); idx >= 0 {
		path = path[idx+len(" -> "):]
	}
	if path == "" {
		return Change{}, false
	}

	kind := KindAdded
	if strings.Contains(code, "D") {
		kind = KindDeleted
	}
	return Change{Path: path, Kind: kind, Code: code}, true
}
