package templates

import (
	"strings"
	"testing"
)

func TestList(t *testing.T) {
	names := List()

	expected := []string{"developer", "full", "minimal"}
	if len(names) != len(expected) {
		t.Fatalf("List() = %v, want %v", names, expected)
	}
	for i, name := range names {
		if name != expected[i] {
			t.Errorf("List()[%d] = %s, want %s", i, name, expected[i])
		}
	}
}

func TestGet(t *testing.T) {
	tests := []struct {
		name    string
		wantErr bool
	}{
		{"minimal", false},
		{"developer", false},
		{"full", false},
		{"nonexistent", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpl, err := Get(tt.name)

			if tt.wantErr {
				if err == nil {
					t.Errorf("Get(%s) expected error, got nil", tt.name)
				} else if !strings.Contains(err.Error(), "available: developer, full, minimal") {
					t.Errorf("Get(%s) error should list templates, got %v", tt.name, err)
				}
				return
			}

			if err != nil {
				t.Fatalf("Get(%s) unexpected error: %v", tt.name, err)
			}
			if tmpl.Name != tt.name {
				t.Errorf("Get(%s) name = %s, want %s", tt.name, tmpl.Name, tt.name)
			}
			if !strings.Contains(string(tmpl.Content), "channel:") {
				t.Errorf("Get(%s) content missing 'channel:' field", tt.name)
			}
		})
	}
}

func TestGetDescription(t *testing.T) {
	tests := []struct {
		name     string
		wantDesc string
	}{
		{"minimal", "Stable channel, manual updates"},
		{"full", "Every option with its default value"},
		{"unknown", "Custom template"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetDescription(tt.name); got != tt.wantDesc {
				t.Errorf("GetDescription(%s) = %q, want %q", tt.name, got, tt.wantDesc)
			}
		})
	}
}

func TestDefaultNameExists(t *testing.T) {
	if _, err := Get(DefaultName); err != nil {
		t.Errorf("default template %q missing: %v", DefaultName, err)
	}
}
