package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	_ "golang.org/x/crypto/x509roots/fallback" // Embed CA certs for scratch container

	"github.com/prtools/prdigest/internal/cli"
)

// main is the entry point for the prdigest CLI binary. Cobra prints
// "Error: ..." to stderr on failure; main only sets the exit code.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := cli.Execute(ctx, os.Args[1:]); err != nil {
		os.Exit(1)
	}
}
