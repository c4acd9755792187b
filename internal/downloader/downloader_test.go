package downloader

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

// writeScript drops an executable shell script into dir under name.
func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not runnable on windows")
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestDownloader(scriptPath string) *Downloader {
	d := New(shared.NewLogger(io.Discard))
	d.extraDirs = nil
	d.lookPath = func(name string) (string, error) {
		if scriptPath != "" && name == executableNames[0] {
			return scriptPath, nil
		}
		return "", errors.New("not found")
	}
	return d
}

func TestDownloader(t *testing.T) {
	ctx := context.Background()

	t.Run("FindExecutable", func(t *testing.T) {
		t.Run("Missing Everywhere", func(t *testing.T) {
			d := newTestDownloader("")
			if got := d.FindExecutable(); got != "" {
				t.Errorf("expected empty path, got %s", got)
			}
		})

		t.Run("Found On PATH", func(t *testing.T) {
			script := writeScript(t, t.TempDir(), "tdn", "exit 0")
			d := newTestDownloader(script)
			if got := d.FindExecutable(); got != script {
				t.Errorf("expected %s, got %s", script, got)
			}
		})

		t.Run("Found In Well Known Directory", func(t *testing.T) {
			dir := t.TempDir()
			script := writeScript(t, dir, "tidal-dl-ng", "exit 0")
			d := newTestDownloader("")
			d.extraDirs = []string{dir}
			if got := d.FindExecutable(); got != script {
				t.Errorf("expected %s, got %s", script, got)
			}
		})
	})

	t.Run("CheckStatus", func(t *testing.T) {
		t.Run("Not Installed", func(t *testing.T) {
			status := newTestDownloader("").CheckStatus(ctx)
			if status.Installed {
				t.Error("expected not installed")
			}
			if status.Message == "" {
				t.Error("expected an install hint")
			}
		})

		t.Run("Reports Version", func(t *testing.T) {
			script := writeScript(t, t.TempDir(), "tdn", `echo "tidal-dl-ng 0.25.6"`)
			status := newTestDownloader(script).CheckStatus(ctx)
			if !status.Installed {
				t.Fatal("expected installed")
			}
			if status.Version != "tidal-dl-ng 0.25.6" {
				t.Errorf("unexpected version %q", status.Version)
			}
		})

		t.Run("Version Probe Failure Still Installed", func(t *testing.T) {
			script := writeScript(t, t.TempDir(), "tdn", "exit 1")
			status := newTestDownloader(script).CheckStatus(ctx)
			if !status.Installed {
				t.Error("expected installed despite probe failure")
			}
			if status.Warning == "" {
				t.Error("expected a warning")
			}
		})
	})

	t.Run("DownloadURL", func(t *testing.T) {
		t.Run("Not Installed", func(t *testing.T) {
			_, err := newTestDownloader("").DownloadURL(ctx, "https://tidal.com/browse/track/1", time.Second)
			if !errors.Is(err, shared.ErrToolNotInstalled) {
				t.Errorf("expected ErrToolNotInstalled, got %v", err)
			}
		})

		t.Run("Success Captures Output", func(t *testing.T) {
			script := writeScript(t, t.TempDir(), "tdn", `echo "downloaded $2"`)
			result, err := newTestDownloader(script).DownloadURL(ctx, "https://tidal.com/browse/track/1", 10*time.Second)
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result.Output == "" {
				t.Error("expected subprocess output")
			}
		})

		t.Run("Timeout", func(t *testing.T) {
			script := writeScript(t, t.TempDir(), "tdn", "sleep 10")
			_, err := newTestDownloader(script).DownloadURL(ctx, "https://tidal.com/browse/track/1", 100*time.Millisecond)
			if !errors.Is(err, shared.ErrTimeout) {
				t.Errorf("expected ErrTimeout, got %v", err)
			}
		})

		t.Run("Auth Failure Heuristic", func(t *testing.T) {
			script := writeScript(t, t.TempDir(), "tdn", `echo "Error: not logged in"; exit 1`)
			_, err := newTestDownloader(script).DownloadURL(ctx, "https://tidal.com/browse/track/1", 10*time.Second)
			if !errors.Is(err, shared.ErrToolNotAuthenticated) {
				t.Errorf("expected ErrToolNotAuthenticated, got %v", err)
			}
		})

		t.Run("Plain Failure", func(t *testing.T) {
			script := writeScript(t, t.TempDir(), "tdn", `echo "disk full"; exit 1`)
			_, err := newTestDownloader(script).DownloadURL(ctx, "https://tidal.com/browse/track/1", 10*time.Second)
			if err == nil || errors.Is(err, shared.ErrToolNotAuthenticated) {
				t.Errorf("expected a generic failure, got %v", err)
			}
		})
	})

	t.Run("DownloadFavorites", func(t *testing.T) {
		t.Run("Rejects Unknown Type", func(t *testing.T) {
			script := writeScript(t, t.TempDir(), "tdn", "exit 0")
			_, err := newTestDownloader(script).DownloadFavorites(ctx, "podcasts", time.Second)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})

		t.Run("Passes Category", func(t *testing.T) {
			script := writeScript(t, t.TempDir(), "tdn", `echo "$1 $2"`)
			result, err := newTestDownloader(script).DownloadFavorites(ctx, "albums", 10*time.Second)
			if err != nil {
				t.Fatal(err)
			}
			if result.Output != "dl_fav albums\n" {
				t.Errorf("unexpected args: %q", result.Output)
			}
		})
	})

	t.Run("looksLikeAuthFailure", func(t *testing.T) {
		tc := []struct {
			name   string
			output string
			want   bool
		}{
			{"Not Logged In", "ERROR: Not logged in", true},
			{"Authentication", "authentication expired", true},
			{"Login Prompt", "please run login first", true},
			{"Unrelated", "network unreachable", false},
		}
		for _, tt := range tc {
			t.Run(tt.name, func(t *testing.T) {
				if got := looksLikeAuthFailure(tt.output); got != tt.want {
					t.Errorf("looksLikeAuthFailure(%q) = %v, want %v", tt.output, got, tt.want)
				}
			})
		}
	})
}
