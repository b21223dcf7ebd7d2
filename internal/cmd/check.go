package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/tuolauncher/internal/install"
	"github.com/adamancini/tuolauncher/internal/types"
)

// targetStatus is the check outcome of one target
type targetStatus struct {
	Target          types.Target  `json:"target" yaml:"target"`
	Channel         types.Channel `json:"channel" yaml:"channel"`
	Installed       string        `json:"installed" yaml:"installed"`
	Remote          string        `json:"remote,omitempty" yaml:"remote,omitempty"`
	Release         string        `json:"release,omitempty" yaml:"release,omitempty"`
	URL             string        `json:"url,omitempty" yaml:"url,omitempty"`
	UpdateAvailable bool          `json:"update_available" yaml:"update_available"`
	Error           string        `json:"error,omitempty" yaml:"error,omitempty"`
}

// checkReport lists target statuses
type checkReport struct {
	Targets []targetStatus `json:"targets" yaml:"targets"`
}

func (r checkReport) String() string {
	var b strings.Builder
	for i, s := range r.Targets {
		if i > 0 {
			b.WriteString("\n")
		}
		fmt.Fprintf(&b, "%s (%s)\n", s.Target, s.Channel)
		fmt.Fprintf(&b, "  Installed: %s\n", s.Installed)
		if s.Error != "" {
			fmt.Fprintf(&b, "  Remote:    unavailable (%s)\n", s.Error)
			continue
		}
		fmt.Fprintf(&b, "  Remote:    %s", s.Remote)
		if s.Release != "" && s.Release != s.Remote {
			fmt.Fprintf(&b, " (%s)", s.Release)
		}
		b.WriteString("\n")
		if s.UpdateAvailable {
			fmt.Fprintf(&b, "  Update available, run 'tuolauncher update %s'\n", s.Target)
		} else {
			b.WriteString("  Up to date\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func newCheckCmd() *cobra.Command {
	var channel string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the client and the launcher for updates",
		Long: `Check fetches the latest release of the client channel and of the
launcher, and compares them with what is installed.

Examples:
  tuolauncher check               # Use the configured channel
  tuolauncher check --channel dev # Compare against bleeding-edge builds
  tuolauncher check -o json       # Machine-readable report`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ch, err := a.channel(channel)
			if err != nil {
				return err
			}
			return runCheck(cmd.Context(), a, ch)
		},
	}

	cmd.Flags().StringVarP(&channel, "channel", "c", "", "Client channel: main, dev, legacy")

	return cmd
}

func runCheck(ctx context.Context, a *app, ch types.Channel) error {
	if !ch.IsClient() {
		return fmt.Errorf("'%s' is not a client channel", ch)
	}

	report := checkReport{Targets: []targetStatus{
		checkTarget(ctx, a.manager, types.TargetClient, ch),
		checkTarget(ctx, a.manager, types.TargetLauncher, types.ChannelLauncherSelf),
	}}
	return a.writer().Write(report)
}

func checkTarget(ctx context.Context, m *install.Manager, target types.Target, ch types.Channel) targetStatus {
	status := targetStatus{Target: target, Channel: ch}

	res, err := m.Check(ctx, target, ch)
	if err != nil {
		status.Error = err.Error()
		if target.IsClient() {
			status.Installed = m.Installed().Get(ctx).Human()
		}
		return status
	}

	status.Installed = res.Installed.Human()
	status.Remote = res.Remote.Human()
	status.Release = res.Release.Name
	status.URL = res.Release.HTMLURL
	status.UpdateAvailable = res.Available
	return status
}

// describeCheck renders a one-line summary used by update and watch
func describeCheck(res *install.CheckResult) string {
	return fmt.Sprintf("%s (%s): %s -> %s", res.Target, res.Channel, res.Installed.Human(), res.Remote.Human())
}
