package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/adamancini/tuolauncher/internal/types"
)

// Format represents the file format of a configuration file.
type Format int

const (
	FormatUnknown Format = iota
	FormatYAML
	FormatTOML
	FormatJSON
)

// String returns the viper config type name.
func (f Format) String() string {
	switch f {
	case FormatYAML:
		return "yaml"
	case FormatTOML:
		return "toml"
	case FormatJSON:
		return "json"
	default:
		return "unknown"
	}
}

// detectFormat determines the file format based on extension or content.
func detectFormat(path string, content []byte) Format {
	ext := strings.ToLower(filepath.Ext(path))

	switch ext {
	case ".yaml", ".yml":
		return FormatYAML
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	}

	// Content sniffing for extensionless files
	return sniffFormat(content)
}

// sniffFormat attempts to detect format from content.
func sniffFormat(content []byte) Format {
	trimmed := strings.TrimSpace(string(content))

	if strings.HasPrefix(trimmed, "{") {
		return FormatJSON
	}

	// TOML uses key = value and [sections], YAML uses key: value
	for _, line := range strings.Split(trimmed, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.Contains(line, " = ") || strings.HasPrefix(line, "[") {
			return FormatTOML
		}
		if strings.Contains(line, ":") {
			return FormatYAML
		}
	}

	return FormatUnknown
}

// envVarPattern matches ${VAR} and ${VAR:-default} patterns.
var envVarPattern = regexp.MustCompile(`\$\{([^}:]+)(?::-([^}]*))?\}`)

// expandEnvVars replaces ${VAR} and ${VAR:-default} patterns in content.
func expandEnvVars(content []byte) []byte {
	return envVarPattern.ReplaceAllFunc(content, func(match []byte) []byte {
		parts := envVarPattern.FindSubmatch(match)
		if len(parts) < 2 {
			return match
		}

		value := os.Getenv(string(parts[1]))
		if value == "" && len(parts) >= 3 && len(parts[2]) > 0 {
			value = string(parts[2])
		}
		return []byte(value)
	})
}

// newViper returns a viper instance carrying every default and TUO_ overrides.
func newViper() *viper.Viper {
	v := viper.New()
	d := Default()

	v.SetDefault("install_dir", d.InstallDir)
	v.SetDefault("client_dir", "")
	v.SetDefault("channel", string(d.Channel))
	v.SetDefault("auto_update", d.AutoUpdate)
	v.SetDefault("clean_before_install", d.CleanBeforeInstall)
	v.SetDefault("retained_paths", d.RetainedPaths)
	v.SetDefault("client_executable", "")
	v.SetDefault("client_process_name", d.ClientProcessName)
	v.SetDefault("archive_prefix", d.ArchivePrefix)
	v.SetDefault("helper_executable", "")
	v.SetDefault("check_schedule", d.CheckSchedule)

	v.SetDefault("network.user_agent", d.Network.UserAgent)
	v.SetDefault("network.request_interval", d.Network.RequestInterval)
	v.SetDefault("network.timeout", d.Network.Timeout)
	v.SetDefault("network.changelog_base_url", "")

	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.format", d.Logging.Format)
	v.SetDefault("logging.file", "")
	v.SetDefault("logging.max_size", d.Logging.MaxSize)
	v.SetDefault("logging.max_age", d.Logging.MaxAge)
	v.SetDefault("logging.max_backups", d.Logging.MaxBackups)
	v.SetDefault("logging.compress", d.Logging.Compress)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

// Load reads the configuration at path, or the defaults when path is empty.
// Environment variables (TUO_CHANNEL, TUO_NETWORK_TIMEOUT, ...) override both.
func Load(path string) (*Config, error) {
	if path == "" {
		return Parse(nil, FormatUnknown)
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	format := detectFormat(path, content)
	if format == FormatUnknown {
		return nil, fmt.Errorf("unable to detect file format for %s", path)
	}

	return Parse(content, format)
}

// Parse decodes and validates configuration content over the defaults.
// Empty content yields the defaults.
func Parse(content []byte, format Format) (*Config, error) {
	v := newViper()

	if len(content) > 0 {
		if format == FormatUnknown {
			return nil, fmt.Errorf("unknown file format")
		}
		v.SetConfigType(format.String())
		if err := v.ReadConfig(bytes.NewReader(expandEnvVars(content))); err != nil {
			return nil, fmt.Errorf("%s parse error: %w", strings.ToUpper(format.String()), err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	// Accept aliases such as "stable" or "bleeding-edge"
	if ch, err := types.ParseChannel(string(cfg.Channel)); err == nil {
		cfg.Channel = ch
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// FormatForPath returns the format implied by path's extension, YAML when unknown.
func FormatForPath(path string) Format {
	if f := detectFormat(path, nil); f != FormatUnknown {
		return f
	}
	return FormatYAML
}

// LoadOrDefault finds and loads the configuration, falling back to defaults.
func LoadOrDefault(explicitPath string) (*Config, string, error) {
	path, err := FindConfig(explicitPath)
	if err != nil && !errors.Is(err, ErrNotFound) {
		return nil, "", err
	}
	cfg, err := Load(path)
	if err != nil {
		return nil, path, err
	}
	return cfg, path, nil
}

// Marshal encodes cfg in the given format.
func Marshal(cfg *Config, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(cfg)
	case FormatTOML:
		return toml.Marshal(cfg)
	case FormatJSON:
		return json.MarshalIndent(cfg, "", "  ")
	default:
		return nil, fmt.Errorf("unknown file format")
	}
}

// Save writes cfg to path in the format implied by its extension.
func Save(path string, cfg *Config) error {
	data, err := Marshal(cfg, FormatForPath(path))
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}
	return nil
}
