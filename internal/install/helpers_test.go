package install

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/adamancini/tuolauncher/internal/types"
	"github.com/adamancini/tuolauncher/internal/update"
)

var linux = update.Platform{OS: "linux", Arch: "amd64"}

// fakeSource serves fixed releases; fetched data is remembered for Get
type fakeSource struct {
	mu       sync.Mutex
	releases map[types.Channel]*update.Release
	err      error
	known    map[types.Channel]*update.Release
	fetches  int
}

func newFakeSource(rels ...*update.Release) *fakeSource {
	s := &fakeSource{
		releases: make(map[types.Channel]*update.Release),
		known:    make(map[types.Channel]*update.Release),
	}
	for _, rel := range rels {
		s.releases[rel.Channel] = rel
	}
	return s
}

func (s *fakeSource) FetchChannel(_ context.Context, ch types.Channel) (*update.Release, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetches++
	if s.err != nil {
		return nil, s.err
	}
	rel, ok := s.releases[ch]
	if !ok {
		return nil, &update.Error{Kind: update.KindHTTPStatus, Op: "fetch", Channel: ch, StatusCode: http.StatusNotFound}
	}
	s.known[ch] = rel
	return rel, nil
}

func (s *fakeSource) Get(ch types.Channel) (*update.Release, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	rel, ok := s.known[ch]
	return rel, ok
}

type stubFinder struct {
	running bool
	err     error
}

func (f stubFinder) RunningByName(string) (bool, error) {
	return f.running, f.err
}

type stubConfirmer struct {
	answer bool
	asked  int
}

func (c *stubConfirmer) Confirm(string, string) (bool, error) {
	c.asked++
	return c.answer, nil
}

func noVersion(context.Context, string) (string, error) {
	return "", os.ErrNotExist
}

// buildZip returns an archive holding files
func buildZip(t *testing.T, files map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range files {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := w.Write([]byte(content)); err != nil {
			t.Fatal(err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

// serveBytes serves body at every path
func serveBytes(t *testing.T, status int, body []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write(body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func release(ch types.Channel, version, url string) *update.Release {
	return &update.Release{
		Channel: ch,
		Name:    version,
		TagName: version,
		Version: update.ParseVersionLenient(version),
		Assets: []update.Asset{
			{Name: "TazUO-win-x64.zip", DownloadURL: url + "/TazUO-win-x64.zip"},
			{Name: "TazUO-linux-x64.zip", DownloadURL: url + "/TazUO-linux-x64.zip"},
		},
	}
}

type testEnv struct {
	clientDir string
	exe       string
	tempDir   string
	settings  Settings
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	root := t.TempDir()
	clientDir := filepath.Join(root, "TazUO")
	exe := filepath.Join(clientDir, "ClassicUO.bin.x86_64")
	tempDir := filepath.Join(root, "tmp")
	if err := os.MkdirAll(tempDir, 0755); err != nil {
		t.Fatal(err)
	}
	return &testEnv{
		clientDir: clientDir,
		exe:       exe,
		tempDir:   tempDir,
		settings: Settings{
			ClientDir:         clientDir,
			ClientExecutable:  exe,
			ClientProcessName: "TazUO",
			ArchivePrefix:     "TazUO",
			RetainedPaths:     []string{"Data", "LegionScripts", "Fonts", "ExternalImages"},
			TempDir:           tempDir,
		},
	}
}

func (e *testEnv) manager(src ReleaseSource, opts ...ManagerOption) *Manager {
	iv := NewInstalledVersion(filepath.Join(e.clientDir, "v.txt"), e.exe, noVersion, nil)
	base := []ManagerOption{
		WithInstalledVersion(iv),
		WithPlatform(linux),
		WithProcessFinder(stubFinder{}),
	}
	return NewManager(src, update.NewHTTPDownloader(), e.settings, append(base, opts...)...)
}

func tempEntries(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}
