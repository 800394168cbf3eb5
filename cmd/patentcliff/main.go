// Command patentcliff is the command-line client: it consolidates patent
// search exports locally or through a PatentCliff API server.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/turtacn/PatentCliff/internal/config"
	"github.com/turtacn/PatentCliff/internal/interfaces/cli"
)

// Build-time variables injected via ldflags.
var (
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

func init() {
	cli.Version = version
	cli.GitCommit = commit
	cli.BuildDate = buildDate
	config.Version = version
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := cli.Execute(ctx)
	stop()
	if err != nil {
		// Execute has already printed the error.
		os.Exit(1)
	}
}

//Personal.AI order the ending
