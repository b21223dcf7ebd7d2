package process

import (
	"errors"
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// CommandRunner is an interface for running external commands.
// This allows for mocking in tests.
type CommandRunner interface {
	Run(name string, args ...string) ([]byte, error)
}

// DefaultCommandRunner uses os/exec to run commands.
type DefaultCommandRunner struct{}

// Run executes a command and returns its standard output.
func (r *DefaultCommandRunner) Run(name string, args ...string) ([]byte, error) {
	return exec.Command(name, args...).Output()
}

// Finder looks up running processes by executable name
type Finder struct {
	runner CommandRunner
	goos   string
}

// NewFinder creates a finder for the current OS; a nil runner uses os/exec
func NewFinder(runner CommandRunner) *Finder {
	if runner == nil {
		runner = &DefaultCommandRunner{}
	}
	return &Finder{runner: runner, goos: runtime.GOOS}
}

// RunningByName reports whether any process has the exact name
// On windows the ".exe" suffix is implied
func (f *Finder) RunningByName(name string) (bool, error) {
	if name == "" {
		return false, fmt.Errorf("process name is required")
	}

	if f.goos == "windows" {
		image := name
		if !strings.HasSuffix(strings.ToLower(image), ".exe") {
			image += ".exe"
		}
		out, err := f.runner.Run("tasklist", "/FI", "IMAGENAME eq "+image, "/NH", "/FO", "CSV")
		if err != nil {
			return false, fmt.Errorf("tasklist failed: %w", err)
		}
		return strings.Contains(strings.ToLower(string(out)), `"`+strings.ToLower(image)+`"`), nil
	}

	out, err := f.runner.Run("pgrep", "-x", name)
	if err != nil {
		// pgrep exits 1 when nothing matched
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
			return false, nil
		}
		return false, fmt.Errorf("pgrep failed: %w", err)
	}
	return strings.TrimSpace(string(out)) != "", nil
}
