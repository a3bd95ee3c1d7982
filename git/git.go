// Package git provides the typed git operations pushbatch drives: status
// inventory, per-path staging, commit, and push.
//
// The package is organized into focused modules:
//   - client.go: Client struct and constructors
//   - status.go: porcelain status query and parsing
//   - stage.go: staging, commit, and push operations
package git
