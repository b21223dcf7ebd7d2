//go:build !windows

package archive

import (
	"os"
	"time"
)

// clampCreationTime is a no-op where creation time cannot be set
func clampCreationTime(string, os.FileInfo, time.Time) (bool, error) {
	return false, nil
}
