package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/tuolauncher/internal/install"
	"github.com/adamancini/tuolauncher/internal/logging"
)

func newWatchCmd() *cobra.Command {
	var (
		schedule   string
		autoUpdate bool
	)

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Check for updates periodically",
		Long: `Watch checks the client and the launcher on a schedule and reports new
releases. With auto_update enabled (or --auto-update) client updates are
installed as soon as they appear. Launcher updates are only reported.

The schedule is a cron expression or an interval such as "@every 6h".
Runs until interrupted.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			if schedule == "" {
				schedule = a.cfg.CheckSchedule
			}
			return runWatch(cmd.Context(), a, schedule, autoUpdate || a.cfg.AutoUpdate)
		},
	}

	cmd.Flags().StringVar(&schedule, "schedule", "", "Check schedule (default from config)")
	cmd.Flags().BoolVar(&autoUpdate, "auto-update", false, "Install client updates automatically")

	return cmd
}

func runWatch(ctx context.Context, a *app, schedule string, autoUpdate bool) error {
	notify := func(res *install.CheckResult) {
		_, _ = fmt.Fprintf(a.stdout, "Update available: %s\n", describeCheck(res))
	}

	// Warm every channel so later checks and "channels" start from known data
	prefetch := a.registry.FetchAllAsync(ctx, a.cfg.Channel)
	go func() {
		summary := <-prefetch
		if err := summary.Err(); err != nil {
			a.logger.WithError(err).Warn("Some release channels are unavailable")
			return
		}
		a.logger.WithField("channels", len(summary.Fetched)).Debug("Fetched release data")
	}()

	installed := a.manager.Installed()
	go func() {
		err := installed.Watch(ctx, func() {
			a.logger.WithField("version", installed.Get(ctx).Human()).Debug("Installed client changed")
		})
		if err != nil {
			a.logger.WithError(err).Warn("Not watching the client directory")
		}
	}()

	scheduler := install.NewScheduler(a.manager, schedule, a.cfg.Channel, autoUpdate, notify,
		logging.Component(a.logger, "scheduler"))
	return scheduler.Run(ctx)
}
