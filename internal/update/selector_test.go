package update

import (
	"errors"
	"testing"

	"github.com/adamancini/tuolauncher/internal/types"
)

func TestSelectAsset(t *testing.T) {
	assets := []Asset{
		{Name: "TazUO-win-x64.zip", DownloadURL: "https://example.com/win"},
		{Name: "TazUO-linux-x64.zip", DownloadURL: "https://example.com/linux"},
		{Name: "TazUO-osx-arm64.zip", DownloadURL: "https://example.com/osx-arm"},
	}
	generic := []Asset{
		{Name: "notes.txt", DownloadURL: "https://example.com/notes"},
		{Name: "TazUO.zip", DownloadURL: "https://example.com/generic"},
		{Name: "TazUO-2.zip", DownloadURL: "https://example.com/generic2"},
	}

	tests := []struct {
		name    string
		assets  []Asset
		tag     string
		prefix  string
		want    string
		wantErr bool
	}{
		{"platform match", assets, "linux-x64.zip", "TazUO", "TazUO-linux-x64.zip", false},
		{"first platform match wins", append(assets, Asset{Name: "Other-linux-x64.zip", DownloadURL: "x"}), "linux-x64.zip", "", "TazUO-linux-x64.zip", false},
		{"prefix fallback", generic, "linux-x64.zip", "TazUO", "TazUO.zip", false},
		{"platform before fallback", append(generic, assets...), "win-x64.zip", "TazUO", "TazUO-win-x64.zip", false},
		{"fallback disabled", generic, "linux-x64.zip", "", "", true},
		{"no match", assets, "osx-x64.zip", "Other", "", true},
		{"missing url skipped", []Asset{{Name: "TazUO-linux-x64.zip"}}, "linux-x64.zip", "", "", true},
		{"empty list", nil, "linux-x64.zip", "TazUO", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SelectAsset(tt.assets, tt.tag, tt.prefix)
			if (err != nil) != tt.wantErr {
				t.Fatalf("SelectAsset() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				if !errors.Is(err, ErrAssetNotFound) {
					t.Errorf("SelectAsset() error = %v, want ErrAssetNotFound", err)
				}
				if KindOf(err) != KindSelection {
					t.Errorf("KindOf() = %v, want %v", KindOf(err), KindSelection)
				}
				return
			}
			if got.Name != tt.want {
				t.Errorf("SelectAsset() = %v, want %v", got.Name, tt.want)
			}
		})
	}
}

func TestSelectForPlatform(t *testing.T) {
	rel := &Release{
		Channel: types.ChannelDev,
		Assets:  []Asset{{Name: "TazUO-osx-x64.zip", DownloadURL: "u"}},
	}

	got, err := SelectForPlatform(rel, Platform{OS: "darwin", Arch: "amd64"}, "TazUO")
	if err != nil {
		t.Fatalf("SelectForPlatform() error = %v", err)
	}
	if got.Name != "TazUO-osx-x64.zip" {
		t.Errorf("SelectForPlatform() = %v", got.Name)
	}

	_, err = SelectForPlatform(rel, Platform{OS: "plan9", Arch: "amd64"}, "TazUO")
	if !errors.Is(err, ErrUnsupportedPlatform) {
		t.Errorf("SelectForPlatform() error = %v, want ErrUnsupportedPlatform", err)
	}

	_, err = SelectForPlatform(rel, Platform{OS: "windows", Arch: "amd64"}, "")
	var ue *Error
	if !errors.As(err, &ue) || ue.Channel != types.ChannelDev {
		t.Errorf("SelectForPlatform() error = %v, want channel-tagged *Error", err)
	}

	if _, err := SelectForPlatform(nil, Detect(), ""); !errors.Is(err, ErrNoRelease) {
		t.Errorf("SelectForPlatform(nil) error = %v, want ErrNoRelease", err)
	}
}
