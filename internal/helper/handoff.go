// Package helper implements the self-replacement handoff between the launcher
// and the short-lived updater process.
//
// The launcher downloads its own update archive, starts the updater with a
// Handoff and exits. The updater waits for the launcher to go away, extracts
// the archive over the launcher's directory and starts the new launcher.
package helper

import (
	"errors"
	"fmt"
	"strconv"
)

// Exit codes returned by the updater process. A failed relaunch after a
// successful extraction still exits ExitOK; the install is complete.
const (
	ExitOK            = 0
	ExitBadArgs       = 1
	ExitExtractFailed = 3
)

// StagingDirPattern names the temp directory the launcher copies the updater into
const StagingDirPattern = "tuoupdater-*"

// Usage is printed when the arguments cannot be parsed
const Usage = "Usage: tuoupdater <launcher-pid> <zip-path> <extract-dir> <launcher-exe-path>"

// ErrUsage is returned for a missing or malformed argument list
var ErrUsage = errors.New("invalid arguments")

// Handoff is everything the updater needs to finish a launcher update
type Handoff struct {
	CallerPID    int    // Launcher process to wait for
	ArchivePath  string // Downloaded update archive
	ExtractDir   string // Launcher install directory
	RelaunchPath string // Launcher executable to start afterwards
}

// Args returns the positional argument list for the updater
func (h Handoff) Args() []string {
	return []string{
		strconv.Itoa(h.CallerPID),
		h.ArchivePath,
		h.ExtractDir,
		h.RelaunchPath,
	}
}

// Validate checks that every path is present
func (h Handoff) Validate() error {
	switch {
	case h.ArchivePath == "":
		return fmt.Errorf("%w: zip path is required", ErrUsage)
	case h.ExtractDir == "":
		return fmt.Errorf("%w: extract dir is required", ErrUsage)
	case h.RelaunchPath == "":
		return fmt.Errorf("%w: launcher exe path is required", ErrUsage)
	}
	return nil
}

// ParseArgs parses the updater's positional arguments; extra arguments are ignored
func ParseArgs(args []string) (Handoff, error) {
	if len(args) < 4 {
		return Handoff{}, fmt.Errorf("%w: expected 4 arguments, got %d", ErrUsage, len(args))
	}

	pid, err := strconv.Atoi(args[0])
	if err != nil {
		return Handoff{}, fmt.Errorf("%w: invalid PID %q", ErrUsage, args[0])
	}

	h := Handoff{
		CallerPID:    pid,
		ArchivePath:  args[1],
		ExtractDir:   args[2],
		RelaunchPath: args[3],
	}
	if err := h.Validate(); err != nil {
		return Handoff{}, err
	}
	return h, nil
}
