package install

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestCleanDir(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"Data", "Fonts", "Plugins", "old"} {
		if err := os.MkdirAll(filepath.Join(dir, d, "nested"), 0755); err != nil {
			t.Fatal(err)
		}
	}
	for _, f := range []string{"ClassicUO.exe", "settings.json", "Data/client.cfg"} {
		if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := CleanDir(dir, []string{"Data", "Fonts", "settings.json"})
	if err != nil {
		t.Fatalf("CleanDir() error: %v", err)
	}
	if removed != 3 {
		t.Errorf("CleanDir() removed %d entries, want 3", removed)
	}

	for _, kept := range []string{"Data/client.cfg", "Fonts/nested", "settings.json"} {
		if _, err := os.Stat(filepath.Join(dir, kept)); err != nil {
			t.Errorf("%s should be retained: %v", kept, err)
		}
	}
	for _, gone := range []string{"Plugins", "old", "ClassicUO.exe"} {
		if _, err := os.Stat(filepath.Join(dir, gone)); !os.IsNotExist(err) {
			t.Errorf("%s should be removed", gone)
		}
	}
}

func TestCleanDir_Missing(t *testing.T) {
	removed, err := CleanDir(filepath.Join(t.TempDir(), "absent"), nil)
	if err != nil || removed != 0 {
		t.Errorf("CleanDir(missing) = %d, %v, want 0, nil", removed, err)
	}
}

func TestSweepStagedHelpers(t *testing.T) {
	tmp := t.TempDir()
	now := time.Now()

	dirs := []struct {
		name string
		age  time.Duration
		gone bool
	}{
		{"tuoupdater-old", 2 * StaleHelperAge, true},
		{"tuoupdater-recent", time.Minute, false},
		{"unrelated-old", 2 * StaleHelperAge, false},
	}
	for _, d := range dirs {
		dir := filepath.Join(tmp, d.name)
		if err := os.MkdirAll(dir, 0755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "tuoupdater"), []byte("helper"), 0755); err != nil {
			t.Fatal(err)
		}
		stamp := now.Add(-d.age)
		if err := os.Chtimes(dir, stamp, stamp); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := SweepStagedHelpers(tmp, now)
	if err != nil {
		t.Fatalf("SweepStagedHelpers() error: %v", err)
	}
	if removed != 1 {
		t.Errorf("SweepStagedHelpers() removed %d, want 1", removed)
	}
	for _, d := range dirs {
		_, err := os.Stat(filepath.Join(tmp, d.name))
		if gone := os.IsNotExist(err); gone != d.gone {
			t.Errorf("%s removed = %v, want %v", d.name, gone, d.gone)
		}
	}
}
