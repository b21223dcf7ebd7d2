package helper

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/adamancini/tuolauncher/internal/archive"
	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/process"
)

const (
	// DefaultExitTimeout bounds the wait for the launcher to exit
	DefaultExitTimeout = 10 * time.Second
	// DefaultSettleDelay lets the OS release file handles after exit
	DefaultSettleDelay = 500 * time.Millisecond
	// LogFileName is the updater's log file in the temp directory
	LogFileName = "tuoupdater.log"
)

// Helper runs the updater side of a Handoff
type Helper struct {
	Timeout     time.Duration
	SettleDelay time.Duration
	Log         *logrus.Entry

	waitForExit func(pid int, timeout time.Duration) error
	extract     func(src, dest string) (int, error)
	normalize   func(dir string, now time.Time) (int, error)
	makeExec    func(path string) error
	start       func(path string, args []string, dir string) (int, error)
	sleep       func(time.Duration)
	now         func() time.Time
}

// New creates a Helper with the default timeouts
func New(log *logrus.Entry) *Helper {
	return &Helper{
		Timeout:     DefaultExitTimeout,
		SettleDelay: DefaultSettleDelay,
		Log:         logging.OrDiscard(log),
		waitForExit: process.WaitForExit,
		extract:     archive.ExtractZip,
		normalize:   archive.NormalizeTimestamps,
		makeExec:    process.MakeExecutable,
		start:       process.Start,
		sleep:       time.Sleep,
		now:         time.Now,
	}
}

// Run performs the handoff and returns the process exit code
//
// If the launcher does not exit within Timeout, the launcher is started again
// without touching the install and ExitExtractFailed is returned. Extraction
// failures leave the directory as is and also return ExitExtractFailed.
func (h *Helper) Run(ho Handoff) int {
	log := h.Log.WithFields(logrus.Fields{
		"pid":     ho.CallerPID,
		"archive": ho.ArchivePath,
		"dir":     ho.ExtractDir,
	})

	log.Info("Waiting for launcher to exit")
	if err := h.waitForExit(ho.CallerPID, h.Timeout); err != nil {
		if errors.Is(err, process.ErrWaitTimeout) {
			log.WithError(err).Error("Launcher did not exit, relaunching without update")
			h.relaunch(log, ho)
			return ExitExtractFailed
		}
		// The launcher cannot be looked up, so it is not holding any files
		log.WithError(err).Warn("Could not wait for launcher, continuing")
	}

	h.sleep(h.SettleDelay)

	n, err := h.extract(ho.ArchivePath, ho.ExtractDir)
	if err != nil {
		log.WithError(err).Error("Failed to extract update")
		return ExitExtractFailed
	}
	log.WithField("files", n).Info("Extracted update")

	adjusted, err := h.normalize(ho.ExtractDir, h.now())
	if err != nil {
		log.WithError(err).Error("Failed to normalize file times")
		return ExitExtractFailed
	}
	if adjusted > 0 {
		log.WithField("files", adjusted).Debug("Clamped future file times")
	}

	if err := os.Remove(ho.ArchivePath); err != nil && !os.IsNotExist(err) {
		log.WithError(err).Warn("Failed to remove update archive")
	}

	if !h.relaunch(log, ho) {
		log.Warn("Update installed but the launcher must be started manually")
	}
	return ExitOK
}

// relaunch restores the execute bit and starts the launcher in its own directory
func (h *Helper) relaunch(log *logrus.Entry, ho Handoff) bool {
	if err := h.makeExec(ho.RelaunchPath); err != nil {
		log.WithError(err).Warn("Failed to set execute permission")
	}

	pid, err := h.start(ho.RelaunchPath, nil, filepath.Dir(ho.RelaunchPath))
	if err != nil {
		log.WithError(err).Error("Failed to relaunch launcher")
		return false
	}
	log.WithField("new_pid", pid).Info("Relaunched launcher")
	return true
}

// Main is the updater entry point; it returns the process exit code
func Main(args []string, stderr io.Writer) int {
	ho, err := ParseArgs(args)
	if err != nil {
		fmt.Fprintln(stderr, Usage)
		fmt.Fprintln(stderr, err)
		return ExitBadArgs
	}

	opts := logging.DefaultOptions()
	opts.File = filepath.Join(os.TempDir(), LogFileName)
	logger, err := logging.New(opts)
	if err != nil {
		fmt.Fprintf(stderr, "Warning: file logging unavailable: %v\n", err)
		logger = logrus.New()
		logger.SetOutput(stderr)
	}

	log := logging.Component(logger, "updater")
	code := New(log).Run(ho)

	if exe, err := os.Executable(); err == nil {
		if err := removeStagingDir(exe); err != nil {
			log.WithError(err).Debug("Staging directory left behind")
		}
	}
	return code
}

// removeStagingDir deletes the staged copy of the updater along with its
// directory. Executables outside a staging directory are left alone. On
// windows the running executable cannot be removed; the launcher sweeps it later.
func removeStagingDir(exe string) error {
	dir := filepath.Dir(exe)
	if !IsStagingDir(dir) {
		return nil
	}
	return os.RemoveAll(dir)
}

// IsStagingDir reports whether dir was created for a staged updater
func IsStagingDir(dir string) bool {
	ok, _ := filepath.Match(StagingDirPattern, filepath.Base(dir))
	return ok
}
