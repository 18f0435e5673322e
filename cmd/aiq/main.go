package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/appear/aiq/internal/command"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Errors are already reported by the command that failed.
	if err := command.Execute(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}
