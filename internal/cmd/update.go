package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/tuolauncher/internal/install"
	"github.com/adamancini/tuolauncher/internal/output"
	"github.com/adamancini/tuolauncher/internal/types"
	"github.com/adamancini/tuolauncher/internal/update"
)

// updateResult is the outcome of "tuolauncher update"
type updateResult struct {
	Target    types.Target   `json:"target" yaml:"target"`
	Channel   types.Channel  `json:"channel" yaml:"channel"`
	From      string         `json:"from" yaml:"from"`
	To        string         `json:"to" yaml:"to"`
	State     types.JobState `json:"state" yaml:"state"`
	JobID     string         `json:"job_id,omitempty" yaml:"job_id,omitempty"`
	HandedOff bool           `json:"handed_off" yaml:"handed_off"`
}

func (r updateResult) String() string {
	switch {
	case r.HandedOff:
		return fmt.Sprintf("Launcher %s downloaded, restarting to finish the update", r.To)
	case r.JobID == "":
		return fmt.Sprintf("%s is up to date (%s)", r.Target, r.From)
	default:
		return fmt.Sprintf("Updated %s from %s to %s", r.Target, r.From, r.To)
	}
}

func newUpdateCmd() *cobra.Command {
	var (
		channel string
		force   bool
		clean   bool
	)

	cmd := &cobra.Command{
		Use:   "update [client|launcher]",
		Short: "Download and install the latest release",
		Long: `Update installs the newest release of the client (default) or of the
launcher itself.

The client is extracted over its directory. With --clean everything except the
retained paths (Data, LegionScripts, Fonts, ExternalImages by default) is
removed first. If the client is running you are asked before anything changes.

A launcher update is handed to the tuoupdater helper, which waits for the
launcher to exit, replaces its files and starts it again.

Examples:
  tuolauncher update                      # Update the client on the configured channel
  tuolauncher update --channel dev --clean
  tuolauncher update launcher             # Update the launcher itself
  tuolauncher update --force              # Reinstall the current release`,
		ValidArgs: []string{"client", "launcher"},
		Args:      cobra.MatchAll(cobra.MaximumNArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}

			target := types.TargetClient
			if len(args) == 1 {
				if target, err = types.ParseTarget(args[0]); err != nil {
					return err
				}
			}

			ch := types.ChannelLauncherSelf
			if target.IsClient() {
				if ch, err = a.channel(channel); err != nil {
					return err
				}
			}

			return runUpdate(cmd.Context(), a, target, ch, install.StartOptions{Force: force, Clean: clean})
		},
	}

	cmd.Flags().StringVarP(&channel, "channel", "c", "", "Client channel: main, dev, legacy")
	cmd.Flags().BoolVar(&force, "force", false, "Install even if the release is not newer")
	cmd.Flags().BoolVar(&clean, "clean", false, "Remove non-retained client files before installing")

	return cmd
}

func runUpdate(ctx context.Context, a *app, target types.Target, ch types.Channel, opts install.StartOptions) error {
	res, err := a.manager.Check(ctx, target, ch)
	if err != nil {
		return fmt.Errorf("failed to check for updates: %w", err)
	}

	result := updateResult{
		Target:  target,
		Channel: ch,
		From:    res.Installed.Human(),
		To:      res.Remote.Human(),
		State:   res.State,
	}

	if !res.Available && !opts.Force {
		return a.writer().Write(result)
	}

	a.printf("Updating %s\n", describeCheck(res))

	var bar *output.Progress
	if !quiet && a.writer().IsText() {
		bar = output.NewProgress(a.stdout, "Downloading")
		opts.OnProgress = bar.Update
	}

	job, err := a.manager.Start(ctx, target, ch, opts)
	if err != nil {
		if errors.Is(err, install.ErrDeclined) {
			a.printf("Update not started: %v\n", err)
			return nil
		}
		return fmt.Errorf("failed to start update: %w", err)
	}

	err = job.Wait(ctx)
	if bar != nil {
		bar.Done()
	}
	if err != nil {
		return fmt.Errorf("update failed (%s): %w", update.KindOf(err), err)
	}

	result.State = job.State()
	result.JobID = job.ID
	result.HandedOff = job.HandedOff()
	return a.writer().Write(result)
}
