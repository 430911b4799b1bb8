package main // Entry point package

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/iliyamo/boardcamp-api/internal/cli" // cobra commands: serve, migrate
)

func main() {
	// SIGINT/SIGTERM cancel the command context; serve drains and exits
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.NewRootCommand().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
