// Package process inspects, waits for and starts operating system processes.
package process

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"
)

// ErrWaitTimeout is returned when a process outlives the wait timeout
var ErrWaitTimeout = errors.New("timed out waiting for process to exit")

// pollInterval is how often liveness is rechecked where the OS cannot block on exit
const pollInterval = 100 * time.Millisecond

// IsAlive reports whether a process with pid is running
func IsAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	return isAlive(pid)
}

// WaitForExit blocks until pid exits or timeout elapses
// A pid that cannot be found counts as already exited
func WaitForExit(pid int, timeout time.Duration) error {
	if pid <= 0 {
		return nil
	}
	return waitForExit(pid, timeout)
}

// pollExit polls IsAlive until the process is gone or the deadline passes
func pollExit(pid int, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for IsAlive(pid) {
		if time.Now().After(deadline) {
			return fmt.Errorf("pid %d: %w", pid, ErrWaitTimeout)
		}
		time.Sleep(pollInterval)
	}
	return nil
}

// Start launches path detached from the current process and returns its pid
// An empty dir runs it in the executable's directory
func Start(path string, args []string, dir string) (int, error) {
	if dir == "" {
		dir = filepath.Dir(path)
	}
	cmd := exec.Command(path, args...)
	cmd.Dir = dir
	setDetached(cmd)

	if err := cmd.Start(); err != nil {
		return 0, fmt.Errorf("failed to start %s: %w", filepath.Base(path), err)
	}
	pid := cmd.Process.Pid
	if err := cmd.Process.Release(); err != nil {
		return pid, fmt.Errorf("failed to release %s: %w", filepath.Base(path), err)
	}
	return pid, nil
}

// MakeExecutable adds execute permission to path; a no-op on windows
func MakeExecutable(path string) error {
	if runtime.GOOS == "windows" {
		return nil
	}
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	return os.Chmod(path, info.Mode().Perm()|0111)
}
