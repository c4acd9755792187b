package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/urfave/cli/v3"

	"github.com/Raydius/tidal-dl-mcp/internal/backend"
	"github.com/Raydius/tidal-dl-mcp/internal/bridge"
	"github.com/Raydius/tidal-dl-mcp/internal/shared"
	"github.com/Raydius/tidal-dl-mcp/internal/supervisor"
	"github.com/Raydius/tidal-dl-mcp/internal/tidal"
	"github.com/Raydius/tidal-dl-mcp/internal/tools"
)

// Serve starts the backend, then speaks MCP over stdio until the client
// disconnects. The backend is stopped on the way out.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := shared.ConfigureLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	sup := supervisor.New(cfg, logger)
	if err := sup.Start(ctx); err != nil {
		return err
	}
	defer sup.Stop()

	api := bridge.New(cfg.BackendURL(), logger)
	server := mcp.NewServer(&mcp.Implementation{Name: "tidal-mcp", Version: version}, nil)
	tools.New(api, logger).Register(server)

	logger.Info("MCP server running", "transport", "stdio", "backend", cfg.BackendURL())
	return server.Run(ctx, &mcp.StdioTransport{})
}

// API runs the backend HTTP process in the foreground.
func (r *Runner) API(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := shared.ConfigureLogger(cfg)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := tidal.NewClient(logger)
	return backend.NewServer(cfg, logger, client).Run(ctx)
}
