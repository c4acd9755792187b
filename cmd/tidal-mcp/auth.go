package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/Raydius/tidal-dl-mcp/internal/downloader"
	"github.com/Raydius/tidal-dl-mcp/internal/shared"
	"github.com/Raydius/tidal-dl-mcp/internal/tidal"
)

// AuthLogin runs the device-authorization flow in-process and writes the
// credential file the backend reads.
func (r *Runner) AuthLogin(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := shared.ConfigureLogger(cfg)

	ctx, cancel := context.WithTimeout(ctx, tidal.LoginTimeout)
	defer cancel()

	session, err := tidal.NewClient(logger).Login(ctx, cfg.SessionFile)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAuthFailed, err)
	}

	return r.writeJSON(map[string]string{
		"status":  "success",
		"user_id": session.User.ID,
	})
}

// AuthStatus restores the stored session and reports whether it is valid.
func (r *Runner) AuthStatus(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := shared.ConfigureLogger(cfg)

	session, err := tidal.NewClient(logger).Restore(ctx, cfg.SessionFile)
	if err != nil {
		return r.writeJSON(map[string]any{
			"authenticated": false,
			"message":       err.Error(),
		})
	}

	return r.writeJSON(map[string]any{
		"authenticated": true,
		"user":          session.User,
	})
}

// AuthLogout removes the credential file.
func (r *Runner) AuthLogout(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	if err := tidal.RemoveCredentials(cfg.SessionFile); err != nil {
		return err
	}
	return r.writeJSON(map[string]string{"status": "success", "message": "Logged out"})
}

// DownloadStatus reports whether the download CLI is installed.
func (r *Runner) DownloadStatus(ctx context.Context, cmd *cli.Command) error {
	cfg, err := r.loadConfig(cmd)
	if err != nil {
		return err
	}
	logger := shared.ConfigureLogger(cfg)

	return r.writeJSON(downloader.New(logger).CheckStatus(ctx))
}
