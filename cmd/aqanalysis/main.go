// Package main provides the entrypoint for the aqanalysis CLI.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/pollutantsai/aianalysis/internal/commands"
)

// Version is set at compile time via ldflags.
var Version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := commands.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr, Version)
	stop()
	os.Exit(code)
}
