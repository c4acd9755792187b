package supervisor

import (
	"context"
	"io"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/Raydius/tidal-dl-mcp/internal/shared"
)

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not runnable on windows")
	}
	path := filepath.Join(t.TempDir(), "backend.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+body+"\n"), 0o755); err != nil {
		t.Fatal(err)
	}
	return path
}

func newTestSupervisor(t *testing.T, port int, script string) *Supervisor {
	t.Helper()
	cfg := &shared.Config{Port: port, LogLevel: "error"}
	sup := New(cfg, shared.NewLogger(io.Discard))
	sup.executable = script
	return sup
}

// freePort reserves an ephemeral port and releases it.
func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port
}

func TestSupervisor(t *testing.T) {
	t.Run("Start", func(t *testing.T) {
		t.Run("Reuses Already Listening Backend", func(t *testing.T) {
			l, err := net.Listen("tcp", "127.0.0.1:0")
			if err != nil {
				t.Fatal(err)
			}
			defer l.Close()
			port := l.Addr().(*net.TCPAddr).Port

			// The executable would fail instantly; it must never be spawned.
			sup := newTestSupervisor(t, port, "/nonexistent/backend")
			if err := sup.Start(context.Background()); err != nil {
				t.Fatalf("expected reuse of running backend, got %v", err)
			}
			if sup.cmd != nil {
				t.Error("expected no child process to be spawned")
			}
		})

		t.Run("Fails Fast When Child Exits", func(t *testing.T) {
			script := writeScript(t, "exit 3")
			sup := newTestSupervisor(t, freePort(t), script)

			start := time.Now()
			err := sup.Start(context.Background())
			if err == nil {
				t.Fatal("expected error when child exits during startup")
			}
			if !strings.Contains(err.Error(), "exited during startup") {
				t.Errorf("unexpected error: %v", err)
			}
			if !strings.Contains(err.Error(), "exit status 3") {
				t.Errorf("expected child exit code in error, got: %v", err)
			}
			if elapsed := time.Since(start); elapsed > startupTimeout/2 {
				t.Errorf("expected fail-fast, took %s", elapsed)
			}
		})

		t.Run("Cancellation Delivers SIGTERM Not SIGKILL", func(t *testing.T) {
			marker := filepath.Join(t.TempDir(), "term-received")
			// The child records SIGTERM; a SIGKILL would leave no marker.
			// sleep runs in the background so the trap fires promptly.
			script := writeScript(t, "trap 'touch "+marker+"; exit 0' TERM\nsleep 60 &\nwait")
			sup := newTestSupervisor(t, freePort(t), script)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- sup.Start(ctx) }()
			time.Sleep(300 * time.Millisecond)
			cancel()

			select {
			case <-done:
			case <-time.After(10 * time.Second):
				t.Fatal("Start did not return after cancellation")
			}

			deadline := time.Now().Add(5 * time.Second)
			for {
				if _, err := os.Stat(marker); err == nil {
					break
				}
				if time.Now().After(deadline) {
					t.Fatal("child never saw SIGTERM; it was killed outright")
				}
				time.Sleep(50 * time.Millisecond)
			}
		})

		t.Run("Canceled Context Stops Child", func(t *testing.T) {
			script := writeScript(t, "sleep 60")
			sup := newTestSupervisor(t, freePort(t), script)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- sup.Start(ctx) }()

			time.Sleep(200 * time.Millisecond)
			cancel()

			select {
			case err := <-done:
				if err == nil {
					t.Error("expected context error")
				}
			case <-time.After(10 * time.Second):
				t.Fatal("Start did not return after cancellation")
			}

			select {
			case <-sup.exited:
			case <-time.After(10 * time.Second):
				t.Fatal("child did not exit after Stop")
			}
		})
	})

	t.Run("Stop", func(t *testing.T) {
		t.Run("Idempotent", func(t *testing.T) {
			script := writeScript(t, "sleep 60")
			sup := newTestSupervisor(t, freePort(t), script)

			ctx, cancel := context.WithCancel(context.Background())
			done := make(chan error, 1)
			go func() { done <- sup.Start(ctx) }()
			time.Sleep(200 * time.Millisecond)
			cancel()
			<-done

			// Further calls must not signal again or panic.
			sup.Stop()
			sup.Stop()
		})

		t.Run("Safe Without Start", func(t *testing.T) {
			sup := newTestSupervisor(t, freePort(t), "/nonexistent/backend")
			sup.Stop()
		})
	})
}
