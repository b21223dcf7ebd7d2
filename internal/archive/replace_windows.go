//go:build windows

package archive

import (
	"os"

	"golang.org/x/sys/windows"
)

// replaceFile renames src over dst, clearing a read-only dst first
func replaceFile(src, dst string) error {
	if info, err := os.Stat(dst); err == nil && info.Mode().Perm()&0200 == 0 {
		_ = os.Chmod(dst, 0644)
	}
	from, err := windows.UTF16PtrFromString(src)
	if err != nil {
		return err
	}
	to, err := windows.UTF16PtrFromString(dst)
	if err != nil {
		return err
	}
	return windows.MoveFileEx(from, to, windows.MOVEFILE_REPLACE_EXISTING|windows.MOVEFILE_WRITE_THROUGH)
}
