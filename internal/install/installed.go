package install

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/sirupsen/logrus"

	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/update"
)

// versionTimeout bounds "<client> --version"
const versionTimeout = 5 * time.Second

// VersionQuery reports the version text printed by an executable
type VersionQuery func(ctx context.Context, exe string) (string, error)

// ExecVersion runs "<exe> --version" with a timeout
func ExecVersion(ctx context.Context, exe string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, versionTimeout)
	defer cancel()

	var stdout bytes.Buffer
	cmd := exec.CommandContext(ctx, exe, "--version")
	cmd.Stdout = &stdout
	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%s --version: %w", filepath.Base(exe), err)
	}
	return stdout.String(), nil
}

// InstalledVersion resolves and caches the version of the installed client
//
// Resolution order: the marker file, then the executable's own report, then
// update.ZeroVersion. The result is cached until Invalidate is called.
type InstalledVersion struct {
	markerPath string
	exePath    string
	query      VersionQuery
	log        *logrus.Entry

	mu     sync.Mutex
	cached *update.Version
}

// NewInstalledVersion creates a resolver for the client at exePath with its
// version marker at markerPath
func NewInstalledVersion(markerPath, exePath string, query VersionQuery, log *logrus.Entry) *InstalledVersion {
	if query == nil {
		query = ExecVersion
	}
	return &InstalledVersion{
		markerPath: markerPath,
		exePath:    exePath,
		query:      query,
		log:        logging.OrDiscard(log),
	}
}

// Get returns the cached version, resolving it on first use
func (iv *InstalledVersion) Get(ctx context.Context) update.Version {
	iv.mu.Lock()
	defer iv.mu.Unlock()

	if iv.cached != nil {
		return *iv.cached
	}
	v := iv.resolve(ctx)
	iv.cached = &v
	return v
}

// Invalidate drops the cached version so the next Get re-reads the disk
func (iv *InstalledVersion) Invalidate() {
	iv.mu.Lock()
	iv.cached = nil
	iv.mu.Unlock()
}

// Exists reports whether the client executable is present
func (iv *InstalledVersion) Exists() bool {
	_, err := os.Stat(iv.exePath)
	return err == nil
}

func (iv *InstalledVersion) resolve(ctx context.Context) update.Version {
	if data, err := os.ReadFile(iv.markerPath); err == nil {
		if v, err := update.ParseVersion(strings.TrimSpace(string(data))); err == nil {
			return v
		}
		iv.log.WithField("path", iv.markerPath).Warn("Ignoring unparsable version marker")
	}

	if !iv.Exists() {
		return update.ZeroVersion
	}

	out, err := iv.query(ctx, iv.exePath)
	if err != nil {
		iv.log.WithError(err).Debug("Client did not report a version")
		return update.ZeroVersion
	}
	if v, ok := scanVersion(out); ok {
		return v
	}
	return update.ZeroVersion
}

// scanVersion returns the first dotted version found in text
func scanVersion(text string) (update.Version, bool) {
	for _, field := range strings.Fields(text) {
		field = strings.Trim(field, "(),;")
		if v, err := update.ParseVersion(field); err == nil && !v.IsZero() {
			return v, true
		}
	}
	return update.ZeroVersion, false
}

// Watch invalidates the cache whenever the marker or the executable changes
// on disk. onChange, when non-nil, runs after each invalidation. It blocks
// until ctx is cancelled.
func (iv *InstalledVersion) Watch(ctx context.Context, onChange func()) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	clientDir := filepath.Dir(iv.markerPath)
	parentDir := filepath.Dir(clientDir)

	// The parent catches the client directory being created or removed
	if err := watcher.Add(parentDir); err != nil {
		return fmt.Errorf("watch %s: %w", parentDir, err)
	}
	if err := watcher.Add(clientDir); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("watch %s: %w", clientDir, err)
	}

	iv.log.WithField("dir", clientDir).Debug("Watching client directory")

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !iv.relevant(event, clientDir) {
				continue
			}
			if event.Name == clientDir && event.Has(fsnotify.Create) {
				if err := watcher.Add(clientDir); err != nil {
					iv.log.WithError(err).Warn("Failed to watch new client directory")
				}
			}
			iv.Invalidate()
			if onChange != nil {
				onChange()
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			iv.log.WithError(err).Warn("Watcher error")
		}
	}
}

func (iv *InstalledVersion) relevant(event fsnotify.Event, clientDir string) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	switch filepath.Clean(event.Name) {
	case filepath.Clean(iv.markerPath), filepath.Clean(iv.exePath), clientDir:
		return true
	}
	return false
}
