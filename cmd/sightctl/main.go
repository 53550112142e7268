// Sightctl is a command-line client for the sight review API.
//
// Usage:
//
//	sightctl submit --data review.json --photo seat.jpg
//	sightctl update 42 --data review.json --photo seat.jpg
//	sightctl get 42
//	sightctl arena 3 --stage-type 1 --section 12 --seat 40
//	sightctl mine
//	sightctl delete 42
//
// The base URL and token are read from SIGHT_BASE_URL and SIGHT_API_TOKEN
// unless given as flags.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"conkiri_sight/internal/cli"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := cli.Run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
