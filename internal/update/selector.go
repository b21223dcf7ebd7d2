package update

import (
	"fmt"
	"strings"
)

// SelectAsset picks the archive to install from a release's assets
//
// The first asset whose name ends with platformTag wins. Failing that, the
// first asset named "<archivePrefix>*.zip" is taken as a platform-neutral
// build; an empty archivePrefix disables this fallback. Assets without a
// download URL are never selected.
func SelectAsset(assets []Asset, platformTag, archivePrefix string) (Asset, error) {
	if platformTag != "" {
		for _, a := range assets {
			if a.DownloadURL != "" && strings.HasSuffix(a.Name, platformTag) {
				return a, nil
			}
		}
	}

	if archivePrefix != "" {
		for _, a := range assets {
			if a.DownloadURL != "" && strings.HasPrefix(a.Name, archivePrefix) && strings.HasSuffix(a.Name, ".zip") {
				return a, nil
			}
		}
	}

	return Asset{}, &Error{
		Kind: KindSelection,
		Op:   "select asset",
		Err:  fmt.Errorf("%w for %q among %d assets", ErrAssetNotFound, platformTag, len(assets)),
	}
}

// SelectForPlatform resolves the platform tag and selects the asset
func SelectForPlatform(rel *Release, p Platform, archivePrefix string) (Asset, error) {
	if rel == nil {
		return Asset{}, &Error{Kind: KindSelection, Op: "select asset", Err: ErrNoRelease}
	}
	tag, err := p.Tag()
	if err != nil {
		return Asset{}, &Error{Kind: KindSelection, Op: "select asset", Channel: rel.Channel, Err: err}
	}
	asset, err := SelectAsset(rel.Assets, tag, archivePrefix)
	if ue, ok := err.(*Error); ok {
		ue.Channel = rel.Channel
	}
	return asset, err
}
