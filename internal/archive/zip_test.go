package archive

import (
	"archive/zip"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"
)

type zipEntry struct {
	name     string
	body     string
	mode     os.FileMode
	modified time.Time
}

// writeZip builds an archive from entries; names ending in "/" are directories
func writeZip(t *testing.T, path string, entries []zipEntry) {
	t.Helper()
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	for _, e := range entries {
		hdr := &zip.FileHeader{Name: e.name, Method: zip.Deflate, Modified: e.modified}
		if e.mode != 0 {
			hdr.SetMode(e.mode)
		}
		w, err := zw.CreateHeader(hdr)
		if err != nil {
			t.Fatal(err)
		}
		if e.body != "" {
			if _, err := w.Write([]byte(e.body)); err != nil {
				t.Fatal(err)
			}
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestExtractZip(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "update.zip")
	dest := filepath.Join(dir, "client")

	writeZip(t, src, []zipEntry{
		{name: "ClassicUO.bin.x86_64", body: "new binary", mode: 0755},
		{name: "Data/", mode: os.ModeDir | 0755},
		{name: "Data/Client/settings.json", body: `{"a":1}`},
		{name: "readme.txt", body: "hello"},
	})

	// Existing files are overwritten, unrelated files are kept
	if err := os.MkdirAll(dest, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "readme.txt"), []byte("old"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dest, "keep.me"), []byte("mine"), 0644); err != nil {
		t.Fatal(err)
	}

	n, err := ExtractZip(src, dest)
	if err != nil {
		t.Fatalf("ExtractZip() error = %v", err)
	}
	if n != 3 {
		t.Errorf("ExtractZip() extracted %d files, want 3", n)
	}

	tests := []struct {
		path string
		want string
	}{
		{"readme.txt", "hello"},
		{"keep.me", "mine"},
		{"ClassicUO.bin.x86_64", "new binary"},
		{filepath.Join("Data", "Client", "settings.json"), `{"a":1}`},
	}
	for _, tt := range tests {
		got, err := os.ReadFile(filepath.Join(dest, tt.path))
		if err != nil {
			t.Errorf("read %s: %v", tt.path, err)
			continue
		}
		if string(got) != tt.want {
			t.Errorf("%s = %q, want %q", tt.path, got, tt.want)
		}
	}

	if runtime.GOOS != "windows" {
		info, err := os.Stat(filepath.Join(dest, "ClassicUO.bin.x86_64"))
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm()&0100 == 0 {
			t.Errorf("mode = %v, want executable bit kept", info.Mode())
		}
	}

	leftovers, _ := filepath.Glob(filepath.Join(dest, ".*.tmp"))
	if len(leftovers) != 0 {
		t.Errorf("temporary files left behind: %v", leftovers)
	}
}

func TestExtractZip_ZipSlip(t *testing.T) {
	tests := []struct {
		name  string
		entry string
	}{
		{"parent traversal", "../evil.txt"},
		{"nested traversal", "a/../../evil.txt"},
		{"absolute", "/etc/evil.txt"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			src := filepath.Join(dir, "bad.zip")
			dest := filepath.Join(dir, "out")
			writeZip(t, src, []zipEntry{{name: tt.entry, body: "x"}})

			if _, err := ExtractZip(src, dest); err == nil {
				t.Fatal("ExtractZip() expected error for escaping entry")
			}
			if _, err := os.Stat(filepath.Join(dir, "evil.txt")); !os.IsNotExist(err) {
				t.Error("escaping entry was written")
			}
		})
	}
}

func TestExtractZip_MissingArchive(t *testing.T) {
	dir := t.TempDir()
	if _, err := ExtractZip(filepath.Join(dir, "missing.zip"), filepath.Join(dir, "out")); err == nil {
		t.Error("ExtractZip() expected error for missing archive")
	}
}

func TestExtractZip_Corrupt(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "corrupt.zip")
	if err := os.WriteFile(src, []byte("this is not a zip"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := ExtractZip(src, filepath.Join(dir, "out")); err == nil {
		t.Error("ExtractZip() expected error for corrupt archive")
	}
}

func TestExtractZip_DefaultMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("permission bits not meaningful on windows")
	}
	dir := t.TempDir()
	src := filepath.Join(dir, "plain.zip")
	writeZip(t, src, []zipEntry{{name: "plain.txt", body: "x"}})

	dest := filepath.Join(dir, "out")
	if _, err := ExtractZip(src, dest); err != nil {
		t.Fatalf("ExtractZip() error = %v", err)
	}
	info, err := os.Stat(filepath.Join(dest, "plain.txt"))
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm()&0600 != 0600 {
		t.Errorf("mode = %v, want owner read/write", info.Mode())
	}
}
