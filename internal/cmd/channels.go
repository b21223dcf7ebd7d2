package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/adamancini/tuolauncher/internal/types"
	"github.com/adamancini/tuolauncher/internal/update"
)

// channelInfo describes the latest release of one channel
type channelInfo struct {
	Channel   types.Channel `json:"channel" yaml:"channel"`
	Version   string        `json:"version,omitempty" yaml:"version,omitempty"`
	Release   string        `json:"release,omitempty" yaml:"release,omitempty"`
	Published time.Time     `json:"published,omitempty" yaml:"published,omitempty"`
	Asset     string        `json:"asset,omitempty" yaml:"asset,omitempty"`
	Endpoint  string        `json:"endpoint" yaml:"endpoint"`
	Error     string        `json:"error,omitempty" yaml:"error,omitempty"`
}

func newChannelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List release channels and their latest versions",
		Long: `Channels fetches every release channel, the configured one first, and
shows the newest release of each along with the archive matching this
platform.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runChannels(cmd.Context(), a)
		},
	}
}

func runChannels(ctx context.Context, a *app) error {
	summary := a.registry.FetchAll(ctx, a.cfg.Channel)
	platform := update.Detect()

	var infos []channelInfo
	for _, ch := range types.AllChannels() {
		info := channelInfo{Channel: ch}
		info.Endpoint, _ = a.registry.Endpoint(ch)

		rel, ok := a.registry.Get(ch)
		if !ok {
			if err, failed := summary.Errors[ch]; failed {
				info.Error = err.Error()
			}
			infos = append(infos, info)
			continue
		}

		info.Version = rel.Version.Human()
		info.Release = rel.Name
		info.Published = rel.PublishedAt
		prefix := a.cfg.ArchivePrefix
		if ch.IsLauncher() {
			prefix = ""
		}
		if asset, err := update.SelectForPlatform(rel, platform, prefix); err == nil {
			info.Asset = asset.Name
		} else {
			info.Asset = "-"
		}
		infos = append(infos, info)
	}

	if !a.writer().IsText() {
		return a.writer().Write(infos)
	}

	w := tabwriter.NewWriter(a.stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "Channel\tVersion\tPublished\tAsset")
	for _, info := range infos {
		marker := ""
		if info.Channel == a.cfg.Channel {
			marker = " *"
		}
		if info.Error != "" {
			_, _ = fmt.Fprintf(w, "%s%s\t-\t-\t%s\n", info.Channel, marker, info.Error)
			continue
		}
		_, _ = fmt.Fprintf(w, "%s%s\t%s\t%s\t%s\n",
			info.Channel, marker, info.Version, formatTime(info.Published), info.Asset)
	}
	return w.Flush()
}
