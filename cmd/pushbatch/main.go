package main

import (
	"os"

	"github.com/zhubert/pushbatch/cli"
	"github.com/zhubert/pushbatch/logger"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

// run wraps command execution so deferred cleanup fires before the
// process exits.
func run(args []string) int {
	defer logger.Close()

	cmd := cli.NewRootCommand()
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}
