package main

import (
	"encoding/json"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each
// command action.
type Runner struct {
	logger *log.Logger
	output io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Logger *log.Logger
	Output io.Writer
}

// NewRunner creates a new Runner with the provided configuration.
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	return &Runner{logger: opts.Logger, output: opts.Output}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, apiCommand, authCommand, downloadCommand,
	} {
		commands = append(commands, fn(r))
	}
	return commands
}

// loadConfig resolves the effective config for a command: the --config flag
// when given, a config.toml in the working directory when present, otherwise
// defaults plus environment.
func (r *Runner) loadConfig(cmd *cli.Command) (*shared.Config, error) {
	path := cmd.String("config")
	if path == "" {
		if _, err := os.Stat("config.toml"); err == nil {
			path = "config.toml"
		}
	}
	return shared.LoadConfig(path)
}

func (r *Runner) writeJSON(data any) error {
	output, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	if _, err := r.output.Write(output); err != nil {
		return err
	}
	_, err = r.output.Write([]byte("\n"))
	return err
}
