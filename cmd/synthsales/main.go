package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rshade/synthsales/internal/cli"
	"github.com/rshade/synthsales/pkg/version"
)

func main() {
	if code := run(); code != 0 {
		os.Exit(code)
	}
}

// run executes the root command and returns the process exit code. SIGINT and
// SIGTERM cancel the command context; batches already running are allowed to finish.
func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	root := cli.NewRootCmd(version.GetFullVersion())
	err := root.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return extractExitCode(err)
}

// extractExitCode maps a command error to an exit code: 0 for nil, the carried code
// for a *cli.ExitError, 1 otherwise.
func extractExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *cli.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
