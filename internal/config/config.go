// Package config handles launcher configuration loading and location resolution.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/types"
)

const (
	// ClientDirName is the client's directory inside the install directory
	ClientDirName = "TazUO"
	// VersionMarkerName is the file holding the installed client version
	VersionMarkerName = "v.txt"
	// EnvPrefix prefixes environment overrides, e.g. TUO_CHANNEL
	EnvPrefix = "TUO"
	// DefaultFileName is the configuration file created by "config init"
	DefaultFileName = "launcher.yaml"
)

// ErrNotFound is returned when no configuration file exists in the standard locations
var ErrNotFound = errors.New("no launcher configuration found")

// DefaultRetainedPaths survive a clean reinstall of the client
var DefaultRetainedPaths = []string{"Data", "LegionScripts", "Fonts", "ExternalImages"}

// Config is the launcher configuration.
type Config struct {
	InstallDir         string        `mapstructure:"install_dir" yaml:"install_dir" toml:"install_dir" json:"install_dir"`
	ClientDir          string        `mapstructure:"client_dir" yaml:"client_dir,omitempty" toml:"client_dir,omitempty" json:"client_dir,omitempty"` // Defaults to <install_dir>/TazUO
	Channel            types.Channel `mapstructure:"channel" yaml:"channel" toml:"channel" json:"channel"`
	AutoUpdate         bool          `mapstructure:"auto_update" yaml:"auto_update" toml:"auto_update" json:"auto_update"`
	CleanBeforeInstall bool          `mapstructure:"clean_before_install" yaml:"clean_before_install" toml:"clean_before_install" json:"clean_before_install"`
	RetainedPaths      []string      `mapstructure:"retained_paths" yaml:"retained_paths" toml:"retained_paths" json:"retained_paths"`
	ClientExecutable   string        `mapstructure:"client_executable" yaml:"client_executable,omitempty" toml:"client_executable,omitempty" json:"client_executable,omitempty"` // Defaults per platform
	ClientProcessName  string        `mapstructure:"client_process_name" yaml:"client_process_name" toml:"client_process_name" json:"client_process_name"`
	ArchivePrefix      string        `mapstructure:"archive_prefix" yaml:"archive_prefix" toml:"archive_prefix" json:"archive_prefix"`
	HelperExecutable   string        `mapstructure:"helper_executable" yaml:"helper_executable,omitempty" toml:"helper_executable,omitempty" json:"helper_executable,omitempty"` // Defaults to tuoupdater next to the launcher
	CheckSchedule      string        `mapstructure:"check_schedule" yaml:"check_schedule" toml:"check_schedule" json:"check_schedule"`
	Network            NetworkConfig `mapstructure:"network" yaml:"network" toml:"network" json:"network"`
	Logging            LoggingConfig `mapstructure:"logging" yaml:"logging" toml:"logging" json:"logging"`
}

// NetworkConfig controls requests to the release API.
type NetworkConfig struct {
	UserAgent        string            `mapstructure:"user_agent" yaml:"user_agent" toml:"user_agent" json:"user_agent"`
	RequestInterval  string            `mapstructure:"request_interval" yaml:"request_interval" toml:"request_interval" json:"request_interval"`
	Timeout          string            `mapstructure:"timeout" yaml:"timeout" toml:"timeout" json:"timeout"`
	ChangelogBaseURL string            `mapstructure:"changelog_base_url" yaml:"changelog_base_url,omitempty" toml:"changelog_base_url,omitempty" json:"changelog_base_url,omitempty"`
	Endpoints        map[string]string `mapstructure:"endpoints" yaml:"endpoints,omitempty" toml:"endpoints,omitempty" json:"endpoints,omitempty"` // Channel name to release URL
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level      string `mapstructure:"level" yaml:"level" toml:"level" json:"level"`
	Format     string `mapstructure:"format" yaml:"format" toml:"format" json:"format"`
	File       string `mapstructure:"file" yaml:"file,omitempty" toml:"file,omitempty" json:"file,omitempty"`
	MaxSize    int    `mapstructure:"max_size" yaml:"max_size" toml:"max_size" json:"max_size"`
	MaxAge     int    `mapstructure:"max_age" yaml:"max_age" toml:"max_age" json:"max_age"`
	MaxBackups int    `mapstructure:"max_backups" yaml:"max_backups" toml:"max_backups" json:"max_backups"`
	Compress   bool   `mapstructure:"compress" yaml:"compress" toml:"compress" json:"compress"`
}

// DefaultInstallDir returns the directory holding the launcher executable.
func DefaultInstallDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	if resolved, err := filepath.EvalSymlinks(exe); err == nil {
		exe = resolved
	}
	return filepath.Dir(exe)
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		InstallDir:        DefaultInstallDir(),
		Channel:           types.ChannelMain,
		RetainedPaths:     append([]string(nil), DefaultRetainedPaths...),
		ClientProcessName: "TazUO",
		ArchivePrefix:     "TazUO",
		CheckSchedule:     "@every 6h",
		Network: NetworkConfig{
			UserAgent:       "Public",
			RequestInterval: "1s",
			Timeout:         "30s",
		},
		Logging: LoggingConfig{
			Level:      "info",
			Format:     "text",
			MaxSize:    10,
			MaxAge:     14,
			MaxBackups: 3,
		},
	}
}

// ResolvedClientDir returns the client directory, defaulting under InstallDir.
func (c *Config) ResolvedClientDir() string {
	if c.ClientDir != "" {
		return c.ClientDir
	}
	return filepath.Join(c.InstallDir, ClientDirName)
}

// ClientExecutablePath returns the client executable for goos.
func (c *Config) ClientExecutablePath(goos string) string {
	name := c.ClientExecutable
	if name == "" {
		name = DefaultClientExecutable(goos)
	}
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(c.ResolvedClientDir(), name)
}

// DefaultClientExecutable returns the client executable name for goos.
func DefaultClientExecutable(goos string) string {
	switch goos {
	case "windows":
		return "ClassicUO.exe"
	case "darwin":
		return "ClassicUO.bin.osx"
	default:
		return "ClassicUO.bin.x86_64"
	}
}

// VersionMarkerPath returns the installed client version marker file.
func (c *Config) VersionMarkerPath() string {
	return filepath.Join(c.ResolvedClientDir(), VersionMarkerName)
}

// RequestInterval returns the parsed network.request_interval.
func (c *Config) RequestInterval() (time.Duration, error) {
	return parseDuration("network.request_interval", c.Network.RequestInterval)
}

// Timeout returns the parsed network.timeout.
func (c *Config) Timeout() (time.Duration, error) {
	return parseDuration("network.timeout", c.Network.Timeout)
}

func parseDuration(field, value string) (time.Duration, error) {
	if value == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", field, err)
	}
	return d, nil
}

// EndpointOverrides returns the configured endpoints keyed by channel.
func (c *Config) EndpointOverrides() (map[types.Channel]string, error) {
	out := make(map[types.Channel]string, len(c.Network.Endpoints))
	for name, url := range c.Network.Endpoints {
		ch, err := types.ParseChannel(name)
		if err != nil {
			return nil, fmt.Errorf("network.endpoints: %w", err)
		}
		out[ch] = url
	}
	return out, nil
}

// LoggingOptions converts the logging section for the logging package.
func (c *Config) LoggingOptions() logging.Options {
	return logging.Options{
		Level:      c.Logging.Level,
		Format:     c.Logging.Format,
		File:       c.Logging.File,
		MaxSize:    c.Logging.MaxSize,
		MaxAge:     c.Logging.MaxAge,
		MaxBackups: c.Logging.MaxBackups,
		Compress:   c.Logging.Compress,
	}
}

// DefaultDir returns the per-user configuration directory.
func DefaultDir() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(dir, "tuolauncher"), nil
}

// DefaultPath returns the path "config init" writes to.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultFileName), nil
}

// FindConfig searches for a configuration file in the standard locations.
// Returns ErrNotFound when none exists and no explicit path was given.
func FindConfig(explicitPath string) (string, error) {
	if explicitPath != "" {
		if _, err := os.Stat(explicitPath); err != nil {
			return "", fmt.Errorf("specified config not found: %s", explicitPath)
		}
		return explicitPath, nil
	}

	// Check TUO_CONFIG environment variable
	if envPath := os.Getenv(EnvPrefix + "_CONFIG"); envPath != "" {
		if _, err := os.Stat(envPath); err == nil {
			return envPath, nil
		}
	}

	var searchPaths []string
	if dir, err := DefaultDir(); err == nil {
		searchPaths = append(searchPaths, dir)
	}
	// Portable installs keep the config next to the launcher
	searchPaths = append(searchPaths, DefaultInstallDir())

	fileNames := []string{
		"launcher.yaml",
		"launcher.yml",
		"launcher.toml",
		"launcher.json",
	}

	for _, dir := range searchPaths {
		for _, name := range fileNames {
			path := filepath.Join(dir, name)
			if _, err := os.Stat(path); err == nil {
				return path, nil
			}
		}
	}

	return "", ErrNotFound
}
