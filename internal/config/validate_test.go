package config

import (
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr []string
	}{
		{
			name:   "defaults valid",
			modify: func(c *Config) {},
		},
		{
			name:    "missing install dir",
			modify:  func(c *Config) { c.InstallDir = "" },
			wantErr: []string{"install_dir is required"},
		},
		{
			name:    "nested retained path",
			modify:  func(c *Config) { c.RetainedPaths = []string{"Data", "Data/Profiles"} },
			wantErr: []string{"retained_paths[1]"},
		},
		{
			name:    "parent retained path",
			modify:  func(c *Config) { c.RetainedPaths = []string{".."} },
			wantErr: []string{"retained_paths[0]"},
		},
		{
			name:    "bad log level",
			modify:  func(c *Config) { c.Logging.Level = "loud" },
			wantErr: []string{"logging.level"},
		},
		{
			name:    "bad log format",
			modify:  func(c *Config) { c.Logging.Format = "xml" },
			wantErr: []string{"logging.format"},
		},
		{
			name:    "bad changelog url",
			modify:  func(c *Config) { c.Network.ChangelogBaseURL = "raw.githubusercontent.com" },
			wantErr: []string{"network.changelog_base_url"},
		},
		{
			name:    "unknown endpoint channel",
			modify:  func(c *Config) { c.Network.Endpoints = map[string]string{"nightly": "https://example.com"} },
			wantErr: []string{"network.endpoints.nightly"},
		},
		{
			name: "errors aggregate",
			modify: func(c *Config) {
				c.ClientProcessName = ""
				c.CheckSchedule = "bogus"
			},
			wantErr: []string{"client_process_name is required", "check_schedule"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)

			err := Validate(cfg)
			if len(tt.wantErr) == 0 {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatal("Validate() expected error, got nil")
			}
			for _, want := range tt.wantErr {
				if !strings.Contains(err.Error(), want) {
					t.Errorf("Validate() error = %v, want containing %q", err, want)
				}
			}
		})
	}
}

func TestSniffFormat(t *testing.T) {
	tests := []struct {
		content string
		want    Format
	}{
		{`{"channel": "main"}`, FormatJSON},
		{"# comment\nchannel = \"main\"", FormatTOML},
		{"[network]\ntimeout = \"1s\"", FormatTOML},
		{"channel: main", FormatYAML},
		{"", FormatUnknown},
	}

	for _, tt := range tests {
		if got := sniffFormat([]byte(tt.content)); got != tt.want {
			t.Errorf("sniffFormat(%q) = %v, want %v", tt.content, got, tt.want)
		}
	}
}
