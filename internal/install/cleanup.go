package install

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adamancini/tuolauncher/internal/helper"
)

// StaleHelperAge is how old a staged updater directory must be before
// SweepStagedHelpers removes it; younger ones may belong to a running update
const StaleHelperAge = time.Hour

// CleanDir removes every top-level entry of dir whose name is not retained.
// A missing dir is not an error. Removal continues past failures, which are
// returned joined.
func CleanDir(dir string, retained []string) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("failed to read %s: %w", dir, err)
	}

	keep := make(map[string]bool, len(retained))
	for _, name := range retained {
		keep[name] = true
	}

	var errs []error
	removed := 0
	for _, entry := range entries {
		if keep[entry.Name()] {
			continue
		}
		if err := os.RemoveAll(filepath.Join(dir, entry.Name())); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", entry.Name(), err))
			continue
		}
		removed++
	}

	return removed, errors.Join(errs...)
}

// SweepStagedHelpers removes updater staging directories in tempDir (the
// system temp dir when empty) last modified before now minus StaleHelperAge.
// The updater removes its own directory on exit where the OS allows it;
// this catches the rest.
func SweepStagedHelpers(tempDir string, now time.Time) (int, error) {
	if tempDir == "" {
		tempDir = os.TempDir()
	}
	matches, err := filepath.Glob(filepath.Join(tempDir, helper.StagingDirPattern))
	if err != nil {
		return 0, err
	}

	var errs []error
	removed := 0
	for _, dir := range matches {
		info, err := os.Stat(dir)
		if err != nil || !info.IsDir() || now.Sub(info.ModTime()) < StaleHelperAge {
			continue
		}
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("remove %s: %w", filepath.Base(dir), err))
			continue
		}
		removed++
	}
	return removed, errors.Join(errs...)
}
