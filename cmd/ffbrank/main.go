package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ffbrank/ffbrank/cmd/ffbrank/commands"
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := commands.ExecuteContext(ctx)
	stop()
	os.Exit(code)
}
