// Package logging builds the launcher's logrus loggers.
//
// Loggers are plain values handed to each component as a *logrus.Entry with a
// "module" field; there is no package-global instance.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Fields is an alias for logrus.Fields
type Fields = logrus.Fields

// Options configures a logger
type Options struct {
	Level      string
	Format     string // "text" or "json"
	File       string // Rotated log file, empty for stderr only
	MaxSize    int    // Megabytes before rotation
	MaxAge     int    // Days to keep rotated files
	MaxBackups int
	Compress   bool
	Quiet      bool // Suppress console output, file only
}

// DefaultOptions returns options for an info-level text logger on stderr
func DefaultOptions() Options {
	return Options{
		Level:      "info",
		Format:     "text",
		MaxSize:    10,
		MaxAge:     14,
		MaxBackups: 3,
	}
}

// New creates a logger writing to stderr and, when configured, a rotated file
func New(opts Options) (*logrus.Logger, error) {
	levelName := opts.Level
	if levelName == "" {
		levelName = "info"
	}
	level, err := logrus.ParseLevel(levelName)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	logger := logrus.New()
	logger.SetLevel(level)

	switch strings.ToLower(opts.Format) {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "", "text":
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:          true,
			DisableLevelTruncation: true,
			PadLevelText:           true,
			TimestampFormat:        "2006-01-02 15:04:05",
		})
	default:
		return nil, fmt.Errorf("invalid log format %q (must be text or json)", opts.Format)
	}

	var outputs []io.Writer
	if !opts.Quiet {
		outputs = append(outputs, os.Stderr)
	}

	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		outputs = append(outputs, &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    opts.MaxSize,
			MaxAge:     opts.MaxAge,
			MaxBackups: opts.MaxBackups,
			Compress:   opts.Compress,
		})
	}

	switch len(outputs) {
	case 0:
		logger.SetOutput(io.Discard)
	case 1:
		logger.SetOutput(outputs[0])
	default:
		logger.SetOutput(io.MultiWriter(outputs...))
	}

	return logger, nil
}

// Component returns an entry tagged with the component's module name
func Component(logger *logrus.Logger, module string) *logrus.Entry {
	return logger.WithField("module", module)
}

// Discard returns an entry that drops everything, for tests and defaults
func Discard() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// OrDiscard returns entry, or a discarding entry when it is nil
func OrDiscard(entry *logrus.Entry) *logrus.Entry {
	if entry == nil {
		return Discard()
	}
	return entry
}
