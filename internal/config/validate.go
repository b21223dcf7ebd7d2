package config

// SYNC REQUIREMENT: Validation rules in this file must stay in sync with the
// starter templates in internal/templates.

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/adamancini/tuolauncher/internal/types"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for required fields and valid values.
func Validate(c *Config) error {
	var errors []string

	if c.InstallDir == "" {
		errors = append(errors, ValidationError{Field: "install_dir", Message: "install_dir is required"}.Error())
	}

	if err := validateChannel(c.Channel); err != nil {
		errors = append(errors, err.Error())
	}

	for i, p := range c.RetainedPaths {
		if err := validateRetainedPath(i, p); err != nil {
			errors = append(errors, err.Error())
		}
	}

	if c.ClientProcessName == "" {
		errors = append(errors, ValidationError{Field: "client_process_name", Message: "client_process_name is required"}.Error())
	}

	if c.CheckSchedule != "" {
		if _, err := cron.ParseStandard(c.CheckSchedule); err != nil {
			errors = append(errors, ValidationError{
				Field:   "check_schedule",
				Message: fmt.Sprintf("invalid schedule '%s': %v", c.CheckSchedule, err),
			}.Error())
		}
	}

	if err := validateNetwork(c); err != nil {
		errors = append(errors, err...)
	}

	if err := validateLogging(c.Logging); err != nil {
		errors = append(errors, err.Error())
	}

	if len(errors) > 0 {
		return fmt.Errorf("validation errors:\n  - %s", strings.Join(errors, "\n  - "))
	}

	return nil
}

func validateChannel(ch types.Channel) error {
	if err := ch.Validate(); err != nil {
		return ValidationError{Field: "channel", Message: err.Error()}
	}
	if !ch.IsClient() {
		return ValidationError{
			Field:   "channel",
			Message: fmt.Sprintf("'%s' is not a client channel (must be main, dev, or legacy)", ch),
		}
	}
	return nil
}

func validateRetainedPath(index int, p string) error {
	if p == "" || p == "." || p == ".." || strings.ContainsAny(p, `/\`) {
		return ValidationError{
			Field:   fmt.Sprintf("retained_paths[%d]", index),
			Message: fmt.Sprintf("invalid entry '%s' (must be a top-level file or directory name)", p),
		}
	}
	return nil
}

func validateNetwork(c *Config) []string {
	var errors []string

	if _, err := c.RequestInterval(); err != nil {
		errors = append(errors, ValidationError{Field: "network.request_interval", Message: err.Error()}.Error())
	}
	if _, err := c.Timeout(); err != nil {
		errors = append(errors, ValidationError{Field: "network.timeout", Message: err.Error()}.Error())
	}

	if c.Network.ChangelogBaseURL != "" {
		if err := validateURL(c.Network.ChangelogBaseURL); err != nil {
			errors = append(errors, ValidationError{Field: "network.changelog_base_url", Message: err.Error()}.Error())
		}
	}

	for name, endpoint := range c.Network.Endpoints {
		if err := types.Channel(strings.ToLower(name)).Validate(); err != nil {
			errors = append(errors, ValidationError{Field: "network.endpoints." + name, Message: err.Error()}.Error())
			continue
		}
		if err := validateURL(endpoint); err != nil {
			errors = append(errors, ValidationError{Field: "network.endpoints." + name, Message: err.Error()}.Error())
		}
	}

	return errors
}

func validateURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL '%s': %v", raw, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL '%s' (must be http or https)", raw)
	}
	if u.Host == "" {
		return fmt.Errorf("invalid URL '%s' (missing host)", raw)
	}
	return nil
}

func validateLogging(l LoggingConfig) error {
	if _, err := logrus.ParseLevel(l.Level); err != nil {
		return ValidationError{Field: "logging.level", Message: fmt.Sprintf("invalid level '%s'", l.Level)}
	}
	switch l.Format {
	case "text", "json":
	default:
		return ValidationError{Field: "logging.format", Message: fmt.Sprintf("invalid format '%s' (must be text or json)", l.Format)}
	}
	return nil
}
