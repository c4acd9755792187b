package shared

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
)

// Environment variable names recognized by both processes.
const (
	EnvPort        = "TIDAL_MCP_PORT"
	EnvLogLevel    = "TIDAL_MCP_LOG_LEVEL"
	EnvLogToFile   = "TIDAL_MCP_LOG_FILE"
	EnvSessionFile = "TIDAL_MCP_SESSION_FILE"
)

// DefaultPort is the loopback port the backend listens on unless overridden.
const DefaultPort = 5050

// Config represents the application configuration shared by the tool-server and
// backend processes. Values are resolved defaults < TOML file < environment.
type Config struct {
	Port        int    `toml:"port"`
	LogLevel    string `toml:"log_level"`
	LogToFile   bool   `toml:"log_to_file"`
	SessionFile string `toml:"session_file"`
}

// DefaultConfig returns a Config with built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Port:        DefaultPort,
		LogLevel:    "info",
		SessionFile: filepath.Join(os.TempDir(), "tidal-session-oauth.json"),
	}
}

// LoadConfig resolves the effective configuration. When path is non-empty the TOML
// file at that location is applied over the defaults; environment variables are
// applied last and win.
func LoadConfig(path string) (*Config, error) {
	config := DefaultConfig()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	config.applyEnv()

	if config.Port < 1 || config.Port > 65535 {
		return nil, fmt.Errorf("%w: port %d out of range", ErrInvalidConfig, config.Port)
	}

	return config, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv(EnvPort); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			c.Port = port
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.LogLevel = strings.ToLower(v)
	}
	if v := os.Getenv(EnvLogToFile); v != "" {
		c.LogToFile = strings.EqualFold(v, "true") || v == "1"
	}
	if v := os.Getenv(EnvSessionFile); v != "" {
		c.SessionFile = v
	}
}

// BackendURL returns the loopback base URL of the backend process.
func (c *Config) BackendURL() string {
	return fmt.Sprintf("http://127.0.0.1:%d", c.Port)
}
