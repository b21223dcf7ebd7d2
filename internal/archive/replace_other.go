//go:build !windows

package archive

import "os"

func replaceFile(src, dst string) error {
	return os.Rename(src, dst)
}
