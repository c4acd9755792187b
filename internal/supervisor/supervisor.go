// package supervisor starts and stops the backend process on behalf of the
// tool-server. The backend is the same binary invoked with its api command;
// the supervisor owns its whole lifecycle.
package supervisor

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

const (
	// startupTimeout bounds how long Start waits for the backend to accept
	// connections before giving up.
	startupTimeout = 30 * time.Second
	// pollInterval is the cadence of readiness probes during startup.
	pollInterval = 500 * time.Millisecond
	// stopGrace is how long Stop waits after the interrupt signal before
	// killing the child outright.
	stopGrace = 5 * time.Second
)

// Supervisor manages the backend child process.
type Supervisor struct {
	config *shared.Config
	logger *log.Logger

	// executable overrides backend binary resolution; set in tests.
	executable string

	cmd     *exec.Cmd
	exited  chan struct{}
	exitErr error
	stopped bool
}

// New creates a Supervisor for the given config.
func New(cfg *shared.Config, logger *log.Logger) *Supervisor {
	return &Supervisor{config: cfg, logger: logger}
}

// backendName is the binary the supervisor launches with the api subcommand.
const backendName = "tidal-mcp"

// backendCommand resolves the command that runs the backend: the running
// binary itself when available, then PATH, then well-known installation
// directories, then the bare name. Resolution never fails; a bad path
// surfaces as a start error instead.
func (s *Supervisor) backendCommand(ctx context.Context) *exec.Cmd {
	path := s.executable
	if path == "" {
		path = findBackendExecutable()
	}
	// The exec watcher's default Cancel is Process.Kill, which would race
	// Stop's SIGTERM-then-grace sequence on shutdown. Termination is Stop's
	// job alone.
	return exec.CommandContext(context.WithoutCancel(ctx), path, "api")
}

func findBackendExecutable() string {
	if self, err := os.Executable(); err == nil {
		return self
	}
	if path, err := exec.LookPath(backendName); err == nil {
		return path
	}
	home, _ := os.UserHomeDir()
	for _, dir := range []string{filepath.Join(home, ".local", "bin"), "/usr/local/bin", "/opt/homebrew/bin"} {
		candidate := filepath.Join(dir, backendName)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return backendName
}

// Start launches the backend and blocks until it accepts connections on the
// configured port. Exactly one of three outcomes is returned: the backend is
// ready (nil), the backend exited before becoming ready (error with the exit
// code), or the startup timeout elapsed (error, child terminated).
func (s *Supervisor) Start(ctx context.Context) error {
	if s.alreadyRunning() {
		s.logger.Info("backend already listening", "port", s.config.Port)
		return nil
	}

	cmd := s.backendCommand(ctx)
	// stdout must stay clean for the tool-server's own protocol stream.
	cmd.Stdout = os.Stderr
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start backend: %w", err)
	}
	s.cmd = cmd
	s.exited = make(chan struct{})
	s.logger.Info("backend starting", "pid", cmd.Process.Pid, "port", s.config.Port)

	go func() {
		s.exitErr = cmd.Wait()
		close(s.exited)
	}()

	deadline := time.NewTimer(startupTimeout)
	defer deadline.Stop()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.Stop()
			return ctx.Err()
		case <-s.exited:
			if s.exitErr != nil {
				return fmt.Errorf("backend exited during startup: %w", s.exitErr)
			}
			return fmt.Errorf("backend exited during startup")
		case <-deadline.C:
			s.Stop()
			return fmt.Errorf("%w: backend not ready after %s", shared.ErrTimeout, startupTimeout)
		case <-ticker.C:
			if s.alreadyRunning() {
				s.logger.Info("backend ready", "port", s.config.Port)
				return nil
			}
		}
	}
}

// alreadyRunning probes the backend port with a short TCP dial.
func (s *Supervisor) alreadyRunning() bool {
	addr := fmt.Sprintf("127.0.0.1:%d", s.config.Port)
	conn, err := net.DialTimeout("tcp", addr, 250*time.Millisecond)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// Stop terminates the backend: interrupt first, then kill after the grace
// period. Safe to call multiple times and when Start never ran; the child is
// signaled at most once.
func (s *Supervisor) Stop() {
	if s.cmd == nil || s.cmd.Process == nil || s.stopped {
		return
	}
	s.stopped = true

	select {
	case <-s.exited:
		return
	default:
	}

	s.logger.Info("stopping backend", "pid", s.cmd.Process.Pid)
	if err := s.cmd.Process.Signal(syscall.SIGTERM); err != nil {
		return
	}

	select {
	case <-s.exited:
	case <-time.After(stopGrace):
		s.logger.Warn("backend did not exit, killing", "pid", s.cmd.Process.Pid)
		_ = s.cmd.Process.Kill()
		<-s.exited
	}
}
