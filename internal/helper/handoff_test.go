package helper

import (
	"errors"
	"reflect"
	"testing"
)

func TestParseArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    Handoff
		wantErr bool
	}{
		{
			name: "valid",
			args: []string{"1234", "/tmp/u.zip", "/opt/tuo", "/opt/tuo/tuolauncher"},
			want: Handoff{CallerPID: 1234, ArchivePath: "/tmp/u.zip", ExtractDir: "/opt/tuo", RelaunchPath: "/opt/tuo/tuolauncher"},
		},
		{
			name: "extra arguments ignored",
			args: []string{"1", "a.zip", "dir", "exe", "--extra"},
			want: Handoff{CallerPID: 1, ArchivePath: "a.zip", ExtractDir: "dir", RelaunchPath: "exe"},
		},
		{name: "no arguments", args: nil, wantErr: true},
		{name: "three arguments", args: []string{"1", "a.zip", "dir"}, wantErr: true},
		{name: "non-numeric pid", args: []string{"abc", "a.zip", "dir", "exe"}, wantErr: true},
		{name: "empty path", args: []string{"1", "", "dir", "exe"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseArgs(tt.args)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseArgs() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrUsage) {
					t.Errorf("ParseArgs() error = %v, want ErrUsage", err)
				}
				return
			}
			if got != tt.want {
				t.Errorf("ParseArgs() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestHandoffArgs(t *testing.T) {
	h := Handoff{CallerPID: 42, ArchivePath: "a.zip", ExtractDir: "dir", RelaunchPath: "exe"}
	want := []string{"42", "a.zip", "dir", "exe"}
	if got := h.Args(); !reflect.DeepEqual(got, want) {
		t.Errorf("Args() = %v, want %v", got, want)
	}

	parsed, err := ParseArgs(h.Args())
	if err != nil {
		t.Fatalf("ParseArgs(Args()) error = %v", err)
	}
	if parsed != h {
		t.Errorf("ParseArgs(Args()) = %+v, want %+v", parsed, h)
	}
}
