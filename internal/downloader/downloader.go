// package downloader shells out to the tidal-dl-ng CLI for content downloads.
//
// The CLI keeps its own authentication ('tdn login'), entirely separate from
// the backend's TIDAL session. Downloads are fire-and-forget subprocess
// invocations: no resumability, no exactly-once guarantee.
package downloader

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

// Per-content-type execution timeouts.
const (
	TrackTimeout     = 300 * time.Second
	AlbumTimeout     = 600 * time.Second
	PlaylistTimeout  = 1200 * time.Second
	FavoritesTimeout = 1800 * time.Second
)

// executable names the CLI is installed under.
var executableNames = []string{"tdn", "tidal-dl-ng"}

// FavoriteTypes are the favorites categories the CLI can download.
var FavoriteTypes = []string{"tracks", "albums", "artists", "videos"}

// Status reports whether the CLI is available.
type Status struct {
	Installed bool   `json:"installed"`
	Path      string `json:"path,omitempty"`
	Version   string `json:"version,omitempty"`
	Message   string `json:"message,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

// Result carries the subprocess output of a completed download.
type Result struct {
	Output string `json:"output"`
}

// Downloader locates and invokes the external CLI.
type Downloader struct {
	logger *log.Logger

	// lookPath resolves a name on PATH; replaced in tests.
	lookPath func(name string) (string, error)
	// extraDirs are well-known installation directories searched after PATH.
	extraDirs []string
}

// New creates a Downloader.
func New(logger *log.Logger) *Downloader {
	home, _ := os.UserHomeDir()
	return &Downloader{
		logger:   logger,
		lookPath: exec.LookPath,
		extraDirs: []string{
			filepath.Join(home, ".local", "bin"),
			"/usr/local/bin",
			"/opt/homebrew/bin",
		},
	}
}

// FindExecutable resolves the CLI binary: PATH first, then well-known
// installation directories. Returns an empty string when not found.
func (d *Downloader) FindExecutable() string {
	for _, name := range executableNames {
		if path, err := d.lookPath(name); err == nil {
			return path
		}
	}
	for _, dir := range d.extraDirs {
		for _, name := range executableNames {
			candidate := filepath.Join(dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// CheckStatus reports whether the CLI is installed and which version responds.
func (d *Downloader) CheckStatus(ctx context.Context) Status {
	path := d.FindExecutable()
	if path == "" {
		return Status{
			Installed: false,
			Message:   "tidal-dl-ng is not installed. Install with: pip install tidal-dl-ng",
		}
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, path, "--version").Output()
	if err != nil {
		return Status{Installed: true, Path: path, Version: "unknown", Warning: err.Error()}
	}
	return Status{Installed: true, Path: path, Version: strings.TrimSpace(string(out))}
}

// DownloadURL downloads the content at a TIDAL browse URL, waiting up to
// timeout for the subprocess to finish.
func (d *Downloader) DownloadURL(ctx context.Context, url string, timeout time.Duration) (*Result, error) {
	return d.run(ctx, timeout, "dl", url)
}

// DownloadFavorites downloads a whole favorites category.
func (d *Downloader) DownloadFavorites(ctx context.Context, favoriteType string, timeout time.Duration) (*Result, error) {
	valid := false
	for _, t := range FavoriteTypes {
		if favoriteType == t {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("%w: favorite type %q must be one of: %s",
			shared.ErrInvalidInput, favoriteType, strings.Join(FavoriteTypes, ", "))
	}
	return d.run(ctx, timeout, "dl_fav", favoriteType)
}

func (d *Downloader) run(ctx context.Context, timeout time.Duration, args ...string) (*Result, error) {
	path := d.FindExecutable()
	if path == "" {
		return nil, shared.ErrToolNotInstalled
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	d.logger.Info("running download", "cmd", path, "args", args)
	out, err := exec.CommandContext(ctx, path, args...).CombinedOutput()
	output := string(out)

	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: download exceeded %s", shared.ErrTimeout, timeout)
		}
		if looksLikeAuthFailure(output) {
			return nil, fmt.Errorf("%w: run 'tdn login' in a terminal first", shared.ErrToolNotAuthenticated)
		}
		return nil, fmt.Errorf("download failed: %w: %s", err, strings.TrimSpace(output))
	}

	return &Result{Output: output}, nil
}

// looksLikeAuthFailure heuristically detects an unauthenticated CLI from its
// combined output.
func looksLikeAuthFailure(output string) bool {
	lower := strings.ToLower(output)
	for _, keyword := range []string{"not logged in", "authentication", "login"} {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}
