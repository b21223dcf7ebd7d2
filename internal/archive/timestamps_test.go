package archive

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestNormalizeTimestamps(t *testing.T) {
	dir := t.TempDir()
	now := time.Now().Truncate(time.Second)
	future := now.Add(time.Hour)
	past := now.Add(-24 * time.Hour)

	write := func(name string, mtime time.Time) string {
		t.Helper()
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(name), 0644); err != nil {
			t.Fatal(err)
		}
		if err := os.Chtimes(path, mtime, mtime); err != nil {
			t.Fatal(err)
		}
		return path
	}

	futureFile := write("future.dll", future)
	pastFile := write("past.dll", past)
	nested := write(filepath.Join("sub", "nested.dll"), future)

	n, err := NormalizeTimestamps(dir, now)
	if err != nil {
		t.Fatalf("NormalizeTimestamps() error = %v", err)
	}
	if n < 1 {
		t.Errorf("NormalizeTimestamps() adjusted %d files, want at least 1", n)
	}

	info, err := os.Stat(futureFile)
	if err != nil {
		t.Fatal(err)
	}
	if info.ModTime().After(now) {
		t.Errorf("future file mtime = %v, want <= %v", info.ModTime(), now)
	}

	info, err = os.Stat(pastFile)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().Equal(past) {
		t.Errorf("past file mtime = %v, want unchanged %v", info.ModTime(), past)
	}

	// Only top-level files are normalized
	info, err = os.Stat(nested)
	if err != nil {
		t.Fatal(err)
	}
	if !info.ModTime().After(now) {
		t.Errorf("nested file mtime = %v, want untouched future time", info.ModTime())
	}
}

func TestNormalizeTimestamps_MissingDir(t *testing.T) {
	if _, err := NormalizeTimestamps(filepath.Join(t.TempDir(), "nope"), time.Now()); err == nil {
		t.Error("NormalizeTimestamps() expected error for missing directory")
	}
}
