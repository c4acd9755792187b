package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Port != DefaultPort {
			t.Errorf("expected port %d, got %d", DefaultPort, config.Port)
		}
		if config.LogLevel != "info" {
			t.Errorf("expected log level 'info', got %s", config.LogLevel)
		}
		if config.SessionFile == "" {
			t.Error("expected a default session file path")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		t.Run("No File Uses Defaults", func(t *testing.T) {
			config, err := LoadConfig("")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Port != DefaultPort {
				t.Errorf("expected port %d, got %d", DefaultPort, config.Port)
			}
		})

		t.Run("Missing File Errors", func(t *testing.T) {
			if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
				t.Error("expected error for missing file")
			}
		})

		t.Run("TOML Overrides Defaults", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			content := "port = 6060\nlog_level = \"debug\"\nlog_to_file = true\n"
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				t.Fatal(err)
			}

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Port != 6060 {
				t.Errorf("expected port 6060, got %d", config.Port)
			}
			if config.LogLevel != "debug" {
				t.Errorf("expected log level 'debug', got %s", config.LogLevel)
			}
			if !config.LogToFile {
				t.Error("expected log_to_file true")
			}
		})

		t.Run("Environment Wins Over TOML", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("port = 6060\n"), 0o644); err != nil {
				t.Fatal(err)
			}

			t.Setenv(EnvPort, "7070")
			t.Setenv(EnvLogLevel, "WARN")
			t.Setenv(EnvSessionFile, "/tmp/custom-session.json")

			config, err := LoadConfig(path)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Port != 7070 {
				t.Errorf("expected port 7070, got %d", config.Port)
			}
			if config.LogLevel != "warn" {
				t.Errorf("expected lowercased log level 'warn', got %s", config.LogLevel)
			}
			if config.SessionFile != "/tmp/custom-session.json" {
				t.Errorf("unexpected session file %s", config.SessionFile)
			}
		})

		t.Run("Malformed Port Env Is Ignored", func(t *testing.T) {
			t.Setenv(EnvPort, "not-a-port")

			config, err := LoadConfig("")
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if config.Port != DefaultPort {
				t.Errorf("expected default port, got %d", config.Port)
			}
		})

		t.Run("Out Of Range Port Errors", func(t *testing.T) {
			t.Setenv(EnvPort, "70000")

			if _, err := LoadConfig(""); err == nil {
				t.Error("expected error for out of range port")
			}
		})
	})

	t.Run("BackendURL", func(t *testing.T) {
		config := &Config{Port: 5050}
		if got := config.BackendURL(); got != "http://127.0.0.1:5050" {
			t.Errorf("unexpected backend URL %s", got)
		}
	})
}
