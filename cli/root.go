package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/zhubert/pushbatch/config"
	"github.com/zhubert/pushbatch/git"
	"github.com/zhubert/pushbatch/logger"
	"github.com/zhubert/pushbatch/runner"
)

var (
	version = "dev"

	debug   bool
	dryRun  bool
	repoDir string
)

// NewRootCommand builds the pushbatch root command.
func NewRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "pushbatch <commit-message-file>",
		Short: "Commit and push large pending changes in size-bounded batches",
		Long: `pushbatch commits a working tree whose pending changes may exceed a
hosting provider's per-push size limits. Oversized untracked files are
split into ignorable parts, remaining changes are grouped into
directory-coherent batches under a soft size ceiling, and each batch is
staged, committed with the supplied message, and pushed in order.`,
		Version:      version,
		Args:         cobra.ExactArgs(1),
		SilenceUsage: true,
		RunE:         run,
	}

	cmd.Flags().BoolVar(&debug, "debug", false, "Enable debug logging")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan batches without committing anything")
	cmd.Flags().StringVar(&repoDir, "repo", ".", "Repository working directory")
	return cmd
}

func run(cmd *cobra.Command, args []string) error {
	// The commit step runs with the repository as working directory, so
	// the message file path must survive that change.
	msgFile, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid commit message file path: %w", err)
	}
	if _, err := os.Stat(msgFile); err != nil {
		return fmt.Errorf("commit message file %q not found", args[0])
	}

	if err := CheckRequired(); err != nil {
		return err
	}

	logger.SetDebug(debug)

	cfg, err := config.Load(repoDir)
	if err != nil {
		return err
	}

	client := git.NewClient(repoDir)
	r := runner.New(client, cfg, msgFile, runner.WithDryRun(dryRun))

	summary, err := r.Run(cmd.Context())
	if err != nil {
		return err
	}
	if !summary.Success() {
		return fmt.Errorf("run completed with %d failed operations", summary.CommandFails)
	}
	if !summary.NothingToDo && !summary.DryRun {
		fmt.Println("All operations completed successfully")
	}
	return nil
}
