package cmd

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/adamancini/tuolauncher/internal/config"
	"github.com/adamancini/tuolauncher/internal/install"
	"github.com/adamancini/tuolauncher/internal/interactive"
	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/output"
	"github.com/adamancini/tuolauncher/internal/types"
	"github.com/adamancini/tuolauncher/internal/update"
)

// app holds everything a command needs, built from the global flags
type app struct {
	cfg     *config.Config
	cfgPath string
	format  output.Format
	stdout  io.Writer
	stderr  io.Writer

	logger     *logrus.Logger
	client     *http.Client
	registry   *update.Registry
	downloader *update.HTTPDownloader
	manager    *install.Manager
	prompter   *interactive.Prompter
}

func newApp(cmd *cobra.Command) (*app, error) {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	cfg, path, err := config.LoadOrDefault(configPath)
	if err != nil {
		return nil, err
	}

	logOpts := cfg.LoggingOptions()
	if verbose {
		logOpts.Level = "debug"
	}
	logOpts.Quiet = quiet
	logger, err := logging.New(logOpts)
	if err != nil {
		return nil, err
	}

	a := &app{
		cfg:     cfg,
		cfgPath: path,
		format:  format,
		stdout:  cmd.OutOrStdout(),
		stderr:  cmd.ErrOrStderr(),
		logger:  logger,
	}
	a.wire()

	// Leftovers of earlier launcher updates
	if n, err := install.SweepStagedHelpers("", time.Now()); err != nil {
		logger.WithError(err).Debug("Failed to remove old updater copies")
	} else if n > 0 {
		logger.WithField("count", n).Debug("Removed old updater copies")
	}

	if verbose {
		if path != "" {
			logger.WithField("path", path).Debug("Using configuration")
		} else {
			logger.Debug("No configuration file, using defaults")
		}
	}

	return a, nil
}

// wire builds the network and install collaborators from cfg
func (a *app) wire() {
	cfg := a.cfg
	timeout, _ := cfg.Timeout()
	interval, _ := cfg.RequestInterval()
	endpoints, _ := cfg.EndpointOverrides()

	a.client = &http.Client{Timeout: timeout}
	a.registry = update.NewRegistry(
		update.WithHTTPClient(a.client),
		update.WithEndpoints(endpoints),
		update.WithRequestInterval(interval),
		update.WithUserAgent(cfg.Network.UserAgent),
		update.WithLogger(logging.Component(a.logger, "registry")),
	)

	// Archives take longer than any sensible overall timeout, bound the wait for headers instead
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.ResponseHeaderTimeout = timeout
	a.downloader = update.NewHTTPDownloader(
		update.WithDownloadClient(&http.Client{Transport: transport}),
		update.WithDownloadUserAgent(cfg.Network.UserAgent),
		update.WithDownloadLogger(logging.Component(a.logger, "download")),
	)

	launcherExe := executablePath()
	helperExe := cfg.HelperExecutable
	if helperExe == "" && launcherExe != "" {
		helperExe = filepath.Join(filepath.Dir(launcherExe), update.Detect().ExecutableName("tuoupdater"))
	}

	clientExe := cfg.ClientExecutablePath(runtime.GOOS)
	installed := install.NewInstalledVersion(cfg.VersionMarkerPath(), clientExe, nil,
		logging.Component(a.logger, "installed"))

	a.prompter = interactive.NewPrompter().AutoApprove(assumeYes)
	a.manager = install.NewManager(a.registry, a.downloader, install.Settings{
		ClientDir:          cfg.ResolvedClientDir(),
		ClientExecutable:   clientExe,
		ClientProcessName:  cfg.ClientProcessName,
		ArchivePrefix:      cfg.ArchivePrefix,
		RetainedPaths:      cfg.RetainedPaths,
		CleanBeforeInstall: cfg.CleanBeforeInstall,
		LauncherExecutable: launcherExe,
		LauncherVersion:    update.ParseVersionLenient(launcherVersion),
		HelperExecutable:   helperExe,
	},
		install.WithInstalledVersion(installed),
		install.WithConfirmer(a.prompter),
		install.WithManagerLogger(logging.Component(a.logger, "install")),
	)
}

// channel resolves a --channel value, defaulting to the configured client channel
func (a *app) channel(value string) (types.Channel, error) {
	if value == "" {
		return a.cfg.Channel, nil
	}
	return types.ParseChannel(value)
}

func (a *app) writer() *output.Writer {
	return output.NewWriter(a.stdout, a.format)
}

// printf writes human-readable progress unless quiet or structured output is on
func (a *app) printf(format string, args ...interface{}) {
	if quiet || !a.writer().IsText() {
		return
	}
	_, _ = fmt.Fprintf(a.stdout, format, args...)
}

func executablePath() string {
	exe, err := os.Executable()
	if err != nil {
		return ""
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		return resolved
	}
	return exe
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}
