package git

import (
	pexec "github.com/zhubert/pushbatch/exec"
)

// Client provides git operations against a single repository with explicit
// dependency injection. Each Client holds its own executor and repository
// directory, avoiding package-level state and string-built shell commands.
type Client struct {
	executor pexec.CommandExecutor
	repoDir  string
}

// NewClient creates a new Client for repoDir with the default real executor.
func NewClient(repoDir string) *Client {
	return &Client{executor: pexec.NewRealExecutor(), repoDir: repoDir}
}

// NewClientWithExecutor creates a new Client with a custom executor.
// This is primarily used for testing where a mock executor is needed.
func NewClientWithExecutor(repoDir string, exec pexec.CommandExecutor) *Client {
	return &Client{executor: exec, repoDir: repoDir}
}

// RepoDir returns the repository directory the client operates on.
func (c *Client) RepoDir() string {
	return c.repoDir
}
