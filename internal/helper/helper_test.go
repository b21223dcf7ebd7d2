package helper

import (
	"archive/zip"
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/process"
)

// recorder captures the side effects a Helper performs
type recorder struct {
	calls    []string
	waitErr  error
	startErr error
}

func newTestHelper(rec *recorder) *Helper {
	h := New(logging.Discard())
	h.waitForExit = func(pid int, timeout time.Duration) error {
		rec.calls = append(rec.calls, fmt.Sprintf("wait %d %v", pid, timeout))
		return rec.waitErr
	}
	h.sleep = func(d time.Duration) {
		rec.calls = append(rec.calls, fmt.Sprintf("sleep %v", d))
	}
	h.makeExec = func(path string) error {
		rec.calls = append(rec.calls, "chmod "+filepath.Base(path))
		return nil
	}
	h.start = func(path string, args []string, dir string) (int, error) {
		rec.calls = append(rec.calls, "start "+filepath.Base(path)+" in "+filepath.Base(dir))
		return 99, rec.startErr
	}
	return h
}

func writeArchive(t *testing.T, path string, files map[string]string, modified time.Time) {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, body := range files {
		w, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate, Modified: modified})
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(body)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		t.Fatal(err)
	}
}

func setupHandoff(t *testing.T, modified time.Time) Handoff {
	t.Helper()
	dir := t.TempDir()
	launcherDir := filepath.Join(dir, "launcher")
	if err := os.MkdirAll(launcherDir, 0755); err != nil {
		t.Fatal(err)
	}
	exe := filepath.Join(launcherDir, "tuolauncher")
	if err := os.WriteFile(exe, []byte("old launcher"), 0644); err != nil {
		t.Fatal(err)
	}

	zipPath := filepath.Join(dir, "update.zip")
	writeArchive(t, zipPath, map[string]string{
		"tuolauncher":    "new launcher",
		"lib/shared.dat": "data",
	}, modified)

	return Handoff{CallerPID: 4242, ArchivePath: zipPath, ExtractDir: launcherDir, RelaunchPath: exe}
}

func TestHelperRun_Success(t *testing.T) {
	ho := setupHandoff(t, time.Now().Add(-time.Hour))
	rec := &recorder{}
	h := newTestHelper(rec)

	if code := h.Run(ho); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}

	want := []string{
		"wait 4242 10s",
		"sleep 500ms",
		"chmod tuolauncher",
		"start tuolauncher in launcher",
	}
	if strings.Join(rec.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}

	got, err := os.ReadFile(ho.RelaunchPath)
	if err != nil || string(got) != "new launcher" {
		t.Errorf("launcher content = %q, err %v", got, err)
	}
	if _, err := os.Stat(filepath.Join(ho.ExtractDir, "lib", "shared.dat")); err != nil {
		t.Errorf("nested file not extracted: %v", err)
	}
	if _, err := os.Stat(ho.ArchivePath); !os.IsNotExist(err) {
		t.Error("archive should be deleted after a successful update")
	}
}

func TestHelperRun_ClampsFutureTimes(t *testing.T) {
	ho := setupHandoff(t, time.Now().Add(time.Hour))
	h := newTestHelper(&recorder{})

	if code := h.Run(ho); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}

	info, err := os.Stat(ho.RelaunchPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.ModTime().After(time.Now()) {
		t.Errorf("mtime = %v, want <= now", info.ModTime())
	}
}

func TestHelperRun_WaitTimeout(t *testing.T) {
	ho := setupHandoff(t, time.Now())
	rec := &recorder{waitErr: fmt.Errorf("pid 4242: %w", process.ErrWaitTimeout)}
	h := newTestHelper(rec)

	if code := h.Run(ho); code != ExitExtractFailed {
		t.Fatalf("Run() = %d, want %d", code, ExitExtractFailed)
	}

	want := []string{"wait 4242 10s", "chmod tuolauncher", "start tuolauncher in launcher"}
	if strings.Join(rec.calls, "|") != strings.Join(want, "|") {
		t.Errorf("calls = %v, want %v", rec.calls, want)
	}

	got, _ := os.ReadFile(ho.RelaunchPath)
	if string(got) != "old launcher" {
		t.Errorf("launcher was modified on timeout: %q", got)
	}
	if _, err := os.Stat(ho.ArchivePath); err != nil {
		t.Error("archive should be kept on timeout")
	}
}

func TestHelperRun_LookupFailureProceeds(t *testing.T) {
	ho := setupHandoff(t, time.Now())
	h := newTestHelper(&recorder{waitErr: errors.New("access denied")})

	if code := h.Run(ho); code != ExitOK {
		t.Fatalf("Run() = %d, want %d", code, ExitOK)
	}
}

func TestHelperRun_ExtractFailure(t *testing.T) {
	ho := setupHandoff(t, time.Now())
	if err := os.WriteFile(ho.ArchivePath, []byte("corrupt"), 0644); err != nil {
		t.Fatal(err)
	}
	rec := &recorder{}
	h := newTestHelper(rec)

	if code := h.Run(ho); code != ExitExtractFailed {
		t.Fatalf("Run() = %d, want %d", code, ExitExtractFailed)
	}
	for _, call := range rec.calls {
		if strings.HasPrefix(call, "start") {
			t.Error("launcher should not be started after a failed extraction")
		}
	}
}

func TestHelperRun_RelaunchFailure(t *testing.T) {
	ho := setupHandoff(t, time.Now())
	h := newTestHelper(&recorder{startErr: errors.New("exec format error")})

	// The files are already replaced, so the outcome is still success
	if code := h.Run(ho); code != ExitOK {
		t.Errorf("Run() = %d, want %d", code, ExitOK)
	}
	if _, err := os.Stat(ho.ArchivePath); !os.IsNotExist(err) {
		t.Errorf("archive should be removed, stat err = %v", err)
	}
}

func TestRemoveStagingDir(t *testing.T) {
	tests := []struct {
		name    string
		dir     string
		removed bool
	}{
		{"staging directory", "tuoupdater-123456", true},
		{"install directory", "TazUOLauncher", false},
		{"similar name", "tuoupdater", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), tt.dir)
			if err := os.MkdirAll(dir, 0755); err != nil {
				t.Fatal(err)
			}
			exe := filepath.Join(dir, "tuoupdater")
			if err := os.WriteFile(exe, []byte("helper"), 0755); err != nil {
				t.Fatal(err)
			}
			if err := os.WriteFile(filepath.Join(dir, "update.zip"), []byte("zip"), 0644); err != nil {
				t.Fatal(err)
			}

			if err := removeStagingDir(exe); err != nil {
				t.Fatalf("removeStagingDir() error = %v", err)
			}
			_, err := os.Stat(dir)
			if gone := os.IsNotExist(err); gone != tt.removed {
				t.Errorf("directory removed = %v, want %v", gone, tt.removed)
			}
		})
	}
}

func TestHelperMain_BadArgs(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"missing", []string{"1", "a.zip"}},
		{"bad pid", []string{"pid", "a.zip", "dir", "exe"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stderr bytes.Buffer
			if code := Main(tt.args, &stderr); code != ExitBadArgs {
				t.Errorf("Main() = %d, want %d", code, ExitBadArgs)
			}
			if !strings.Contains(stderr.String(), Usage) {
				t.Errorf("stderr = %q, want usage", stderr.String())
			}
		})
	}
}
