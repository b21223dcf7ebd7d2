// Package archive extracts release archives over an install directory.
package archive

import (
	"archive/zip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ExtractZip extracts the archive at src into dest, overwriting existing files
//
// Each file is written to a temporary sibling and renamed into place, so a
// failure leaves every target either old or new, never truncated. Entries
// that would land outside dest are rejected. Extraction is not atomic across
// files: on error the directory may hold a mix of old and new files.
func ExtractZip(src, dest string) (n int, err error) {
	absDest, err := filepath.Abs(dest)
	if err != nil {
		return 0, fmt.Errorf("failed to resolve destination: %w", err)
	}
	if err := os.MkdirAll(absDest, 0755); err != nil {
		return 0, fmt.Errorf("failed to create destination: %w", err)
	}

	zr, err := zip.OpenReader(src)
	if err != nil {
		return 0, fmt.Errorf("failed to open ZIP file: %w", err)
	}
	defer func() {
		if closeErr := zr.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	for _, file := range zr.File {
		destPath, err := entryPath(absDest, file.Name)
		if err != nil {
			return n, err
		}

		if file.FileInfo().IsDir() {
			if err := os.MkdirAll(destPath, dirMode(file)); err != nil {
				return n, fmt.Errorf("failed to create directory: %w", err)
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(destPath), 0755); err != nil {
			return n, fmt.Errorf("failed to create parent directory: %w", err)
		}
		if err := extractFile(file, destPath); err != nil {
			return n, fmt.Errorf("failed to extract %s: %w", file.Name, err)
		}
		n++
	}

	return n, nil
}

// entryPath resolves name under dest, rejecting entries that escape it
func entryPath(dest, name string) (string, error) {
	if filepath.IsAbs(name) || strings.HasPrefix(name, "/") {
		return "", fmt.Errorf("invalid path in ZIP: %s", name)
	}
	destPath := filepath.Join(dest, filepath.FromSlash(name))
	rel, err := filepath.Rel(dest, destPath)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid path in ZIP: %s", name)
	}
	return destPath, nil
}

func fileMode(file *zip.File) os.FileMode {
	if perm := file.Mode().Perm(); perm != 0 {
		return perm
	}
	return 0644
}

func dirMode(file *zip.File) os.FileMode {
	if perm := file.Mode().Perm(); perm != 0 {
		return perm | 0700
	}
	return 0755
}

// extractFile writes one entry through a temporary file and renames it over destPath
func extractFile(file *zip.File, destPath string) (err error) {
	rc, err := file.Open()
	if err != nil {
		return err
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(filepath.Dir(destPath), "."+filepath.Base(destPath)+".*.tmp")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmpPath)
		}
	}()

	if _, err = io.Copy(tmp, rc); err != nil {
		tmp.Close()
		return err
	}
	if err = tmp.Close(); err != nil {
		return err
	}
	if err = os.Chmod(tmpPath, fileMode(file)); err != nil {
		return err
	}
	if !file.Modified.IsZero() {
		if err = os.Chtimes(tmpPath, file.Modified, file.Modified); err != nil {
			return err
		}
	}
	return replaceFile(tmpPath, destPath)
}
