// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
	}
}

// serveCommand runs the MCP tool-server, supervising the backend process.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the MCP server over stdio (starts the backend automatically)",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Serve,
	}
}

// apiCommand runs the backend HTTP process directly.
func apiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "api",
		Usage:  "Run the backend HTTP API on the loopback port",
		Flags:  []cli.Flag{configFlag()},
		Action: r.API,
	}
}

// authCommand handles authentication operations against a running backend.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage TIDAL authentication",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authenticate with TIDAL via the browser device flow",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Check current authentication state",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthStatus,
			},
			{
				Name:   "logout",
				Usage:  "Remove stored TIDAL credentials",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogout,
			},
		},
	}
}

// downloadCommand checks the external download CLI.
func downloadCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "Download operations via tidal-dl-ng",
		Commands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "Check whether tidal-dl-ng is installed",
				Flags:  []cli.Flag{configFlag()},
				Action: r.DownloadStatus,
			},
		},
	}
}
