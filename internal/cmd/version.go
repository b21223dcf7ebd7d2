package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/tuolauncher/internal/types"
	"github.com/adamancini/tuolauncher/internal/update"
)

// versionInfo describes the launcher build and the installed client
type versionInfo struct {
	Version   string `json:"version" yaml:"version"`
	Commit    string `json:"commit" yaml:"commit"`
	Date      string `json:"date" yaml:"date"`
	Platform  string `json:"platform" yaml:"platform"`
	Supported bool   `json:"supported" yaml:"supported"`
	Client    string `json:"client" yaml:"client"`
	ClientDir string `json:"client_dir" yaml:"client_dir"`
	Latest    string `json:"latest,omitempty" yaml:"latest,omitempty"`
}

func (v versionInfo) String() string {
	platform := v.Platform
	if !v.Supported {
		platform += ", no published builds"
	}
	s := fmt.Sprintf("tuolauncher version %s (commit %s, built %s, %s)\nTazUO client: %s in %s",
		v.Version, v.Commit, v.Date, platform, v.Client, v.ClientDir)
	if v.Latest != "" {
		s += fmt.Sprintf("\nLatest launcher: %s", v.Latest)
	}
	return s
}

func newVersionCmd() *cobra.Command {
	var checkOnly bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long: `Display the launcher version and the installed client version.

Examples:
  tuolauncher version          # Show current versions
  tuolauncher version --check  # Also show the latest launcher release`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			return runVersion(cmd.Context(), a, checkOnly)
		},
	}

	cmd.Flags().BoolVar(&checkOnly, "check", false, "Check for a newer launcher")

	return cmd
}

func runVersion(ctx context.Context, a *app, check bool) error {
	platform := update.Detect()
	info := versionInfo{
		Version:   launcherVersion,
		Commit:    launcherCommit,
		Date:      launcherDate,
		Platform:  platform.String(),
		Supported: platform.IsSupported(),
		Client:    a.manager.Installed().Get(ctx).Human(),
		ClientDir: a.cfg.ResolvedClientDir(),
	}

	if check {
		res, err := a.manager.Check(ctx, types.TargetLauncher, types.ChannelLauncherSelf)
		if err != nil {
			return fmt.Errorf("failed to check for updates: %w", err)
		}
		info.Latest = res.Remote.Human()
		if res.Available {
			info.Latest += " (run 'tuolauncher update launcher')"
		}
	}

	return a.writer().Write(info)
}
