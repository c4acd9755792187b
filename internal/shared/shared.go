// package shared defines helpers used by both the tool-server and backend processes
package shared

import (
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

// NewLogger creates a new [log.Logger] instance writing to the specified [io.Writer],
// with timestamps and caller reporting enabled.
//
// The writer defaults to [os.Stderr]. Stdout is never used for logging: the
// tool-server speaks MCP JSON-RPC on stdout and any stray bytes corrupt the stream.
func NewLogger(w io.Writer) *log.Logger {
	if w == nil {
		w = os.Stderr
	}
	opts := log.Options{ReportTimestamp: true, ReportCaller: true}
	return log.NewWithOptions(w, opts)
}

// ConfigureLogger builds a logger from the given config: level from
// Config.LogLevel, plus an optional file sink when Config.LogToFile is set.
func ConfigureLogger(cfg *Config) *log.Logger {
	var w io.Writer = os.Stderr

	if cfg.LogToFile {
		if f, err := openLogFile(); err == nil {
			w = io.MultiWriter(os.Stderr, f)
		}
	}

	logger := NewLogger(w)
	if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(lvl)
	}
	return logger
}

func openLogFile() (*os.File, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(home, ".tidal-mcp", "logs")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return os.OpenFile(filepath.Join(dir, "tidal-mcp.log"), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
}

// GenerateID generates a new v4 [uuid.UUID] as a string
func GenerateID() string {
	return uuid.New().String()
}
