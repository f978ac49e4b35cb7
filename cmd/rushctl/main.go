package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/birbparty/rush-analytics/internal/cli"
	"github.com/birbparty/rush-analytics/sdk"
)

func main() {
	// Load .env file if present (ignore error if missing).
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	err := cli.Execute(ctx, sdk.Version, os.Args[1:], os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	code := cli.ExitCode(err)
	cancel()
	os.Exit(code)
}
