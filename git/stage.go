package git

import (
	"context"
	"fmt"

	"github.com/zhubert/pushbatch/logger"
)

// StageAdd stages a single path for commit.
func (c *Client) StageAdd(ctx context.Context, path string) error {
	if output, err := c.executor.CombinedOutput(ctx, c.repoDir, "git", "add", "--", path); err != nil {
		return fmt.Errorf("git add %s failed: %s - %w", path, string(output), err)
	}
	return nil
}

// StageRemove stages the removal of a single deleted path.
func (c *Client) StageRemove(ctx context.Context, path string) error {
	if output, err := c.executor.CombinedOutput(ctx, c.repoDir, "git", "rm", "--", path); err != nil {
		return fmt.Errorf("git rm %s failed: %s - %w", path, string(output), err)
	}
	return nil
}

// StageAll stages every pending change, the single-shot path for small
// changesets.
func (c *Client) StageAll(ctx context.Context) error {
	if output, err := c.executor.CombinedOutput(ctx, c.repoDir, "git", "add", "-A"); err != nil {
		return fmt.Errorf("git add -A failed: %s - %w", string(output), err)
	}
	return nil
}

// Commit creates a commit using the message from messageFile.
func (c *Client) Commit(ctx context.Context, messageFile string) error {
	logger.WithComponent("git").Info("committing", "messageFile", messageFile)
	if output, err := c.executor.CombinedOutput(ctx, c.repoDir, "git", "commit", "-F", messageFile); err != nil {
		return fmt.Errorf("git commit failed: %s - %w", string(output), err)
	}
	return nil
}

// Push pushes the current branch to its remote.
func (c *Client) Push(ctx context.Context) error {
	logger.WithComponent("git").Info("pushing")
	if output, err := c.executor.CombinedOutput(ctx, c.repoDir, "git", "push"); err != nil {
		return fmt.Errorf("git push failed: %s - %w", string(output), err)
	}
	return nil
}
