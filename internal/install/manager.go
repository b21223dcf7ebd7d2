// Package install orchestrates update jobs for the client and the launcher.
//
// Each target owns one lane with the state machine
//
//	idle -> checking -> update-available -> downloading -> installing -> ready | failed
//
// and at most one in-flight job. Client installs run in process; launcher
// installs are handed to the updater helper because a running executable
// cannot replace its own files.
package install

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/adamancini/tuolauncher/internal/archive"
	"github.com/adamancini/tuolauncher/internal/helper"
	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/process"
	"github.com/adamancini/tuolauncher/internal/types"
	"github.com/adamancini/tuolauncher/internal/update"
)

// ReleaseSource provides release metadata per channel
type ReleaseSource interface {
	FetchChannel(ctx context.Context, ch types.Channel) (*update.Release, error)
	Get(ch types.Channel) (*update.Release, bool)
}

// Downloader fetches an asset into a temporary file
type Downloader interface {
	Download(ctx context.Context, url, dir string, progress update.ProgressFunc) (*update.Download, error)
}

// ProcessFinder reports whether a process with the given name is running
type ProcessFinder interface {
	RunningByName(name string) (bool, error)
}

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(title, message string) (bool, error)
}

// Settings locates the files a Manager installs into
type Settings struct {
	ClientDir          string
	ClientExecutable   string
	ClientProcessName  string
	ArchivePrefix      string
	RetainedPaths      []string
	CleanBeforeInstall bool

	LauncherExecutable string
	LauncherVersion    update.Version
	HelperExecutable   string

	// TempDir receives downloads; empty means os.TempDir
	TempDir string
}

// StartOptions modify a single Start call
type StartOptions struct {
	// Force installs even when the release is not newer
	Force bool
	// Clean wipes the client directory first, keeping retained paths
	Clean bool
	// OnProgress receives download progress on the job goroutine
	OnProgress update.ProgressFunc
}

// CheckResult is the outcome of comparing installed and remote versions
type CheckResult struct {
	Target    types.Target
	Channel   types.Channel
	Installed update.Version
	Remote    update.Version
	Release   *update.Release
	Available bool
	State     types.JobState
}

type lane struct {
	state    types.JobState
	channel  types.Channel
	release  *update.Release
	job      *Job
	reserved bool
}

func (l *lane) busy() bool {
	return l.reserved || l.state.IsActive()
}

// Manager runs update checks and jobs
type Manager struct {
	src        ReleaseSource
	downloader Downloader
	settings   Settings
	installed  *InstalledVersion
	finder     ProcessFinder
	confirmer  Confirmer
	platform   update.Platform
	log        *logrus.Entry

	extract  func(src, dest string) (int, error)
	makeExec func(path string) error
	spawn    func(path string, args []string, dir string) (int, error)
	getpid   func() int

	mu    sync.Mutex
	lanes map[types.Target]*lane
}

// ManagerOption configures a Manager
type ManagerOption func(*Manager)

// WithInstalledVersion sets the resolver used for the client's installed version
func WithInstalledVersion(iv *InstalledVersion) ManagerOption {
	return func(m *Manager) {
		m.installed = iv
	}
}

// WithProcessFinder sets how a running client is detected
func WithProcessFinder(f ProcessFinder) ManagerOption {
	return func(m *Manager) {
		m.finder = f
	}
}

// WithConfirmer sets who is asked before updating a running client.
// Without one, updates of a running client are declined.
func WithConfirmer(c Confirmer) ManagerOption {
	return func(m *Manager) {
		m.confirmer = c
	}
}

// WithPlatform overrides the detected platform
func WithPlatform(p update.Platform) ManagerOption {
	return func(m *Manager) {
		m.platform = p
	}
}

// WithManagerLogger sets the logger
func WithManagerLogger(l *logrus.Entry) ManagerOption {
	return func(m *Manager) {
		m.log = l
	}
}

// WithSpawner overrides how the updater helper is started
func WithSpawner(spawn func(path string, args []string, dir string) (int, error)) ManagerOption {
	return func(m *Manager) {
		m.spawn = spawn
	}
}

// NewManager creates a Manager with idle lanes for every target
func NewManager(src ReleaseSource, dl Downloader, s Settings, opts ...ManagerOption) *Manager {
	m := &Manager{
		src:        src,
		downloader: dl,
		settings:   s,
		finder:     process.NewFinder(nil),
		platform:   update.Detect(),
		extract:    archive.ExtractZip,
		makeExec:   process.MakeExecutable,
		spawn:      process.Start,
		getpid:     os.Getpid,
		lanes:      make(map[types.Target]*lane),
	}
	for _, t := range types.AllTargets() {
		m.lanes[t] = &lane{state: types.StateIdle}
	}
	for _, opt := range opts {
		opt(m)
	}
	m.log = logging.OrDiscard(m.log)
	if m.installed == nil {
		m.installed = NewInstalledVersion(
			filepath.Join(s.ClientDir, "v.txt"), s.ClientExecutable, nil, m.log)
	}
	return m
}

// Installed returns the client's installed version resolver
func (m *Manager) Installed() *InstalledVersion {
	return m.installed
}

// State returns the lane state of target
func (m *Manager) State(target types.Target) types.JobState {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lanes[target]; ok {
		return l.state
	}
	return types.StateIdle
}

// Job returns the current or last job of target
func (m *Manager) Job(target types.Target) *Job {
	m.mu.Lock()
	defer m.mu.Unlock()
	if l, ok := m.lanes[target]; ok {
		return l.job
	}
	return nil
}

func resolveChannel(target types.Target, ch types.Channel) (types.Channel, error) {
	if err := target.Validate(); err != nil {
		return "", err
	}
	if ch == "" {
		return target.DefaultChannel(), nil
	}
	if err := ch.Validate(); err != nil {
		return "", err
	}
	if ch.Target() != target {
		return "", fmt.Errorf("channel '%s' does not publish %s builds", ch, target)
	}
	return ch, nil
}

func (m *Manager) installedVersion(ctx context.Context, target types.Target) update.Version {
	if target.IsLauncher() {
		return m.settings.LauncherVersion
	}
	return m.installed.Get(ctx)
}

// Check fetches the channel's release and compares it with the installed
// version. A failed fetch falls back to previously fetched data; with none
// the lane returns to idle and the fetch error is returned.
func (m *Manager) Check(ctx context.Context, target types.Target, ch types.Channel) (*CheckResult, error) {
	ch, err := resolveChannel(target, ch)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	l := m.lanes[target]
	if l.busy() {
		m.mu.Unlock()
		return nil, ErrJobInProgress
	}
	l.state = types.StateChecking
	m.mu.Unlock()

	log := m.log.WithFields(logrus.Fields{"target": target, "channel": ch})

	rel, fetchErr := m.src.FetchChannel(ctx, ch)
	if fetchErr != nil {
		if prior, ok := m.src.Get(ch); ok {
			log.WithError(fetchErr).Warn("Using previously fetched release data")
			rel, fetchErr = prior, nil
		}
	}

	installed := m.installedVersion(ctx, target)

	m.mu.Lock()
	defer m.mu.Unlock()

	// A forced Start may have taken the lane meanwhile
	owned := l.state == types.StateChecking

	if rel == nil {
		if owned {
			l.state = types.StateIdle
		}
		return nil, fetchErr
	}

	res := &CheckResult{
		Target:    target,
		Channel:   ch,
		Installed: installed,
		Remote:    rel.Version,
		Release:   rel,
		Available: rel.Version.IsGreaterThan(installed),
	}

	if owned {
		l.channel = ch
		l.release = rel
		if res.Available {
			l.state = types.StateUpdateAvailable
		} else {
			l.state = types.StateIdle
		}
	}
	res.State = l.state

	log.WithFields(logrus.Fields{
		"installed": installed.String(),
		"remote":    rel.Version.String(),
		"available": res.Available,
	}).Debug("Checked for update")

	return res, nil
}

// Start begins downloading and installing the channel's release for target.
// It returns as soon as the job is running; use Job.Wait for the outcome.
func (m *Manager) Start(ctx context.Context, target types.Target, ch types.Channel, opts StartOptions) (*Job, error) {
	ch, err := resolveChannel(target, ch)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	l := m.lanes[target]
	if l.busy() {
		m.mu.Unlock()
		return nil, ErrJobInProgress
	}
	available := l.state == types.StateUpdateAvailable && l.channel == ch
	if !available && !opts.Force {
		m.mu.Unlock()
		return nil, ErrNoUpdate
	}
	var rel *update.Release
	if l.channel == ch {
		rel = l.release
	}
	l.reserved = true
	m.mu.Unlock()

	job, err := m.prepare(ctx, target, ch, rel, opts)
	if err != nil {
		m.mu.Lock()
		l.reserved = false
		m.mu.Unlock()
		return nil, err
	}

	jobCtx, cancel := context.WithCancel(ctx)
	job.cancel = cancel

	m.mu.Lock()
	l.reserved = false
	l.job = job
	l.state = types.StateDownloading
	m.mu.Unlock()

	m.log.WithFields(logrus.Fields{
		"job":     job.ID,
		"target":  target,
		"channel": ch,
		"asset":   job.Asset.Name,
	}).Info("Starting update")

	go m.run(jobCtx, l, job, opts)
	return job, nil
}

// prepare resolves the release and asset and confirms a running client.
// It has no side effects on failure.
func (m *Manager) prepare(ctx context.Context, target types.Target, ch types.Channel, rel *update.Release, opts StartOptions) (*Job, error) {
	if rel == nil {
		if prior, ok := m.src.Get(ch); ok {
			rel = prior
		} else {
			fetched, err := m.src.FetchChannel(ctx, ch)
			if err != nil {
				return nil, err
			}
			rel = fetched
		}
	}

	prefix := m.settings.ArchivePrefix
	dest := m.settings.ClientDir
	if target.IsLauncher() {
		// Launcher archives are matched by platform suffix only
		prefix = ""
		dest = filepath.Dir(m.settings.LauncherExecutable)
		if m.settings.LauncherExecutable == "" || m.settings.HelperExecutable == "" {
			return nil, &update.Error{Kind: update.KindProcess, Op: "install", Channel: ch,
				Err: errors.New("launcher and helper executables must be known to self-update")}
		}
	}

	asset, err := update.SelectForPlatform(rel, m.platform, prefix)
	if err != nil {
		return nil, err
	}

	if target.IsClient() {
		if err := m.confirmRunningClient(); err != nil {
			return nil, err
		}
	}

	return newJob(target, ch, rel, asset, dest, opts.OnProgress), nil
}

func (m *Manager) confirmRunningClient() error {
	name := m.settings.ClientProcessName
	if name == "" || m.finder == nil {
		return nil
	}

	running, err := m.finder.RunningByName(name)
	if err != nil {
		m.log.WithError(err).Warn("Could not determine whether the client is running")
		return nil
	}
	if !running {
		return nil
	}

	if m.confirmer == nil {
		return fmt.Errorf("%w: %s is running", ErrDeclined, name)
	}

	ok, err := m.confirmer.Confirm(
		fmt.Sprintf("%s is Running", name),
		fmt.Sprintf("%s appears to be running. Updating while the client is running may cause issues.\n\nDo you want to proceed with the update anyway?", name),
	)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDeclined, err)
	}
	if !ok {
		return ErrDeclined
	}
	return nil
}

func (m *Manager) run(ctx context.Context, l *lane, job *Job, opts StartOptions) {
	defer job.cancel()

	log := m.log.WithFields(logrus.Fields{"job": job.ID, "target": job.Target})

	dl, err := m.downloader.Download(ctx, job.Asset.DownloadURL, m.settings.TempDir, job.setProgress)
	if err != nil {
		if dl != nil {
			if rmErr := dl.Remove(); rmErr != nil {
				log.WithError(rmErr).Warn("Failed to remove partial download")
			}
		}
		log.WithError(err).Error("Download failed")
		m.finish(l, job, types.StateFailed, false, err)
		return
	}
	job.setTempPath(dl.TempPath)

	m.mu.Lock()
	l.state = types.StateInstalling
	m.mu.Unlock()
	job.setState(types.StateInstalling)

	if job.Target.IsLauncher() {
		if err := m.handOff(job, dl); err != nil {
			log.WithError(err).Error("Failed to start updater")
			m.finish(l, job, types.StateFailed, false, err)
			return
		}
		log.Info("Launcher update handed to updater, exit to continue")
		m.finish(l, job, types.StateReady, true, nil)
		return
	}

	if err := m.installClient(job, dl, opts.Clean || m.settings.CleanBeforeInstall); err != nil {
		log.WithError(err).Error("Install failed")
		m.finish(l, job, types.StateFailed, false, err)
		return
	}
	log.WithField("version", job.Release.Version.String()).Info("Client updated")
	m.finish(l, job, types.StateReady, false, nil)
}

func (m *Manager) finish(l *lane, job *Job, s types.JobState, handedOff bool, err error) {
	m.mu.Lock()
	l.state = s
	m.mu.Unlock()
	job.finish(s, handedOff, err)
}

// installClient extracts the archive over the client directory
// A failed extraction leaves the directory as is
func (m *Manager) installClient(job *Job, dl *update.Download, clean bool) error {
	log := m.log.WithField("job", job.ID)
	dir := m.settings.ClientDir

	defer func() {
		if err := dl.Remove(); err != nil {
			log.WithError(err).Warn("Failed to remove downloaded archive")
		}
	}()

	if clean {
		removed, err := CleanDir(dir, m.settings.RetainedPaths)
		if err != nil {
			log.WithError(err).Warn("Client cleanup incomplete")
		}
		log.WithField("removed", removed).Debug("Cleaned client directory")
	}

	n, err := m.extract(dl.TempPath, dir)
	if err != nil {
		return &update.Error{Kind: update.KindIO, Op: "install", Channel: job.Channel, Err: err}
	}
	log.WithField("files", n).Debug("Extracted client archive")

	if !m.platform.IsWindows() && m.settings.ClientExecutable != "" {
		if err := m.makeExec(m.settings.ClientExecutable); err != nil {
			log.WithError(err).Warn("Failed to mark client executable")
		}
	}

	m.installed.Invalidate()
	return nil
}

// handOff stages the helper outside the launcher directory and starts it
// with the downloaded archive
func (m *Manager) handOff(job *Job, dl *update.Download) error {
	helperPath, err := stageHelper(m.settings.HelperExecutable, m.platform)
	if err != nil {
		_ = dl.Remove()
		return &update.Error{Kind: update.KindIO, Op: "install", Channel: job.Channel, Err: err}
	}

	// The archive travels with the staged helper, which deletes it after extracting
	stageDir := filepath.Dir(helperPath)
	if err := dl.Commit(filepath.Join(stageDir, filepath.Base(dl.TempPath))); err != nil {
		_ = dl.Remove()
		_ = os.RemoveAll(stageDir)
		return &update.Error{Kind: update.KindIO, Op: "install", Channel: job.Channel, Err: err}
	}
	job.setTempPath(dl.TempPath)

	ho := helper.Handoff{
		CallerPID:    m.getpid(),
		ArchivePath:  dl.TempPath,
		ExtractDir:   job.Destination,
		RelaunchPath: m.settings.LauncherExecutable,
	}

	pid, err := m.spawn(helperPath, ho.Args(), stageDir)
	if err != nil {
		_ = os.RemoveAll(stageDir)
		return &update.Error{Kind: update.KindProcess, Op: "install", Channel: job.Channel, Err: err}
	}

	m.log.WithFields(logrus.Fields{"job": job.ID, "pid": pid, "helper": helperPath}).Debug("Updater started")
	return nil
}

// stageHelper copies the helper into a private temp directory so it holds no
// lock on files the archive replaces
func stageHelper(src string, p update.Platform) (_ string, err error) {
	dir, err := os.MkdirTemp("", helper.StagingDirPattern)
	if err != nil {
		return "", fmt.Errorf("failed to create helper directory: %w", err)
	}
	defer func() {
		if err != nil {
			_ = os.RemoveAll(dir)
		}
	}()
	dst := filepath.Join(dir, p.ExecutableName("tuoupdater"))

	in, err := os.Open(src)
	if err != nil {
		return "", fmt.Errorf("failed to open helper: %w", err)
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0755)
	if err != nil {
		return "", fmt.Errorf("failed to create staged helper: %w", err)
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return "", fmt.Errorf("failed to copy helper: %w", err)
	}
	if err := out.Close(); err != nil {
		return "", fmt.Errorf("failed to close staged helper: %w", err)
	}
	return dst, nil
}
