// Package daemonctl inspects and stops a running daemon from the CLI using
// the instance lock, the pid file and the /healthz endpoint.
package daemonctl

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"ruokalista/internal/api"
	"ruokalista/internal/config"
	"ruokalista/internal/preflight"
)

// ErrDaemonNotRunning indicates no daemon holds the instance lock.
var ErrDaemonNotRunning = errors.New("daemon not running")

// PIDPath is the file the daemon writes its process ID to.
func PIDPath(cfg *config.Config) string {
	return filepath.Join(cfg.Paths.LogDir, "ruokalista.pid")
}

// ProcessInfo reports whether a daemon holds the instance lock and its PID
// when the pid file is readable.
func ProcessInfo(cfg *config.Config) (bool, int, error) {
	lock := flock.New(cfg.LockPath())
	ok, err := lock.TryLock()
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return false, 0, nil
		}
		return false, 0, fmt.Errorf("probe lock: %w", err)
	}
	if ok {
		_ = lock.Unlock()
		return false, 0, nil
	}
	pid, _ := readPID(PIDPath(cfg))
	return true, pid, nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid file %s", path)
	}
	return pid, nil
}

// HealthURL derives the local /healthz URL from server.bind.
func HealthURL(cfg *config.Config) string {
	host, port, err := net.SplitHostPort(strings.TrimSpace(cfg.Server.Bind))
	if err != nil {
		return ""
	}
	if host == "" || host == "0.0.0.0" || host == "::" {
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, port) + "/healthz"
}

// QueryHealth fetches /healthz from a running daemon.
func QueryHealth(ctx context.Context, cfg *config.Config) (*api.HealthResponse, error) {
	url := HealthURL(cfg)
	if url == "" {
		return nil, fmt.Errorf("cannot derive health url from bind %q", cfg.Server.Bind)
	}
	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		if errors.Is(err, syscall.ECONNREFUSED) {
			return nil, ErrDaemonNotRunning
		}
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("health endpoint returned %d", resp.StatusCode)
	}
	var health api.HealthResponse
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, fmt.Errorf("decode health: %w", err)
	}
	return &health, nil
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// StopAndTerminate sends SIGTERM to the daemon and SIGKILL if it still holds
// the lock after gracePeriod.
func StopAndTerminate(cfg *config.Config, gracePeriod time.Duration) (StopResult, error) {
	running, pid, err := ProcessInfo(cfg)
	if err != nil {
		return StopResult{}, err
	}
	if !running {
		return StopResult{}, ErrDaemonNotRunning
	}
	if pid <= 0 {
		return StopResult{}, fmt.Errorf("unable to determine daemon pid (pid file: %s)", PIDPath(cfg))
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return StopResult{}, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return StopResult{}, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}

	result := StopResult{PID: pid}
	if waitForRelease(cfg, gracePeriod) {
		return result, nil
	}
	if err := proc.Kill(); err != nil {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	if err := os.Remove(PIDPath(cfg)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return result, fmt.Errorf("remove pid file: %w", err)
	}
	result.ForcedKill = true
	return result, nil
}

func waitForRelease(cfg *config.Config, timeout time.Duration) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if running, _, err := ProcessInfo(cfg); err == nil && !running {
			return true
		}
		time.Sleep(200 * time.Millisecond)
	}
	return false
}

// StatusSnapshot is what `ruokalista status` prints.
type StatusSnapshot struct {
	Running bool
	PID     int
	Health  *api.HealthResponse
	Checks  []preflight.Result
}

// BuildStatusSnapshot combines process state, live health when the daemon
// runs, and preflight checks.
func BuildStatusSnapshot(ctx context.Context, cfg *config.Config) (*StatusSnapshot, error) {
	if cfg == nil {
		return nil, errors.New("configuration not available")
	}
	snap := &StatusSnapshot{}
	running, pid, err := ProcessInfo(cfg)
	if err != nil {
		return nil, err
	}
	snap.Running = running
	snap.PID = pid
	if running {
		if health, err := QueryHealth(ctx, cfg); err == nil {
			snap.Health = health
		}
	}
	snap.Checks = preflight.RunAll(ctx, cfg)
	return snap, nil
}
