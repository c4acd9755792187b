package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

const version = "0.3.0"

func main() {
	logger := shared.NewLogger(nil)

	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "tidal-mcp",
		Usage:    "MCP server for TIDAL music streaming",
		Version:  version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
