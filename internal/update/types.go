package update

import (
	"time"

	"github.com/adamancini/tuolauncher/internal/types"
)

// Release is the last known published release of a channel
type Release struct {
	Channel     types.Channel // Channel the release was fetched for
	Name        string        // Display name, falls back to the tag
	TagName     string        // Git tag of the release
	Version     Version       // Parsed from Name, 0.0.0 when unparsable
	HTMLURL     string        // URL to the release page
	PublishedAt time.Time     // Zero when the API omits it
	Assets      []Asset       // Downloadable artifacts
	FetchedAt   time.Time     // When the registry stored this entry
}

// Asset is one downloadable artifact of a release
type Asset struct {
	Name        string // File name, e.g. "TazUO-linux-x64.zip"
	DownloadURL string // Direct download URL
	Size        int64  // Size in bytes as reported by the API
}

// Platform describes the current system platform
type Platform struct {
	OS   string // Operating system (windows, linux, darwin)
	Arch string // Architecture (amd64, arm64)
}

// ProgressFunc receives download progress as a fraction in [0, 1]
type ProgressFunc func(fraction float64)

// githubRelease is the JSON wire format of a release
type githubRelease struct {
	Name        string        `json:"name"`
	TagName     string        `json:"tag_name"`
	HTMLURL     string        `json:"html_url"`
	PublishedAt string        `json:"published_at"`
	Assets      []githubAsset `json:"assets"`
}

// githubAsset is the JSON wire format of a release asset
type githubAsset struct {
	Name               string `json:"name"`
	BrowserDownloadURL string `json:"browser_download_url"`
	Size               int64  `json:"size"`
}
