package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// NormalizeTimestamps clamps future times of the top-level files in dir to now
//
// Archives built on machines with a skewed clock carry modification (and on
// some systems creation) times ahead of the local clock. Subdirectories are
// not visited. It returns the number of files adjusted.
func NormalizeTimestamps(dir string, now time.Time) (int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read directory: %w", err)
	}

	adjusted := 0
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		info, err := entry.Info()
		if err != nil {
			return adjusted, fmt.Errorf("failed to stat %s: %w", entry.Name(), err)
		}

		changed := false
		if info.ModTime().After(now) {
			if err := os.Chtimes(path, now, now); err != nil {
				return adjusted, fmt.Errorf("failed to set times on %s: %w", entry.Name(), err)
			}
			changed = true
		}

		created, err := clampCreationTime(path, info, now)
		if err != nil {
			return adjusted, fmt.Errorf("failed to set creation time on %s: %w", entry.Name(), err)
		}
		if changed || created {
			adjusted++
		}
	}

	return adjusted, nil
}
