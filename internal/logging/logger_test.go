package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		opts    Options
		wantErr bool
	}{
		{"defaults", DefaultOptions(), false},
		{"json", Options{Level: "debug", Format: "json"}, false},
		{"empty level", Options{}, false},
		{"bad level", Options{Level: "loud"}, true},
		{"bad format", Options{Level: "info", Format: "xml"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("New() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestNewLevel(t *testing.T) {
	logger, err := New(Options{Level: "warn", Quiet: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if logger.GetLevel() != logrus.WarnLevel {
		t.Errorf("level = %v, want %v", logger.GetLevel(), logrus.WarnLevel)
	}
}

func TestNewWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "launcher.log")

	logger, err := New(Options{Level: "info", Format: "json", File: path, Quiet: true})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	Component(logger, "registry").Info("fetched")

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read log file: %v", err)
	}
	if !strings.Contains(string(data), `"module":"registry"`) {
		t.Errorf("log file missing module field: %s", data)
	}
	if !strings.Contains(string(data), `"message":"fetched"`) {
		t.Errorf("log file missing message: %s", data)
	}
}

func TestOrDiscard(t *testing.T) {
	if OrDiscard(nil) == nil {
		t.Error("OrDiscard(nil) should not return nil")
	}
	entry := Discard()
	if OrDiscard(entry) != entry {
		t.Error("OrDiscard() should return the given entry")
	}
}
