package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/adamancini/tuolauncher/internal/logging"
	"github.com/adamancini/tuolauncher/internal/types"
	"github.com/adamancini/tuolauncher/internal/update"
)

// changelogResult carries a fetched changelog
type changelogResult struct {
	Channel types.Channel `json:"channel" yaml:"channel"`
	URL     string        `json:"url" yaml:"url"`
	Text    string        `json:"text" yaml:"text"`
}

func newChangelogCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "changelog [channel]",
		Short: "Show the changelog of a channel",
		Long: `Changelog prints the CHANGELOG.md of the branch behind a channel,
cut to 8000 characters with a link to the rest.`,
		ValidArgs: []string{"main", "dev", "legacy", "launcher-self"},
		Args:      cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(cmd)
			if err != nil {
				return err
			}
			ch := a.cfg.Channel
			if len(args) == 1 {
				if ch, err = types.ParseChannel(args[0]); err != nil {
					return err
				}
			}
			return runChangelog(cmd.Context(), a, ch)
		},
	}
}

func runChangelog(ctx context.Context, a *app, ch types.Channel) error {
	client := update.NewChangelogClient(a.cfg.Network.ChangelogBaseURL, a.client,
		logging.Component(a.logger, "changelog"))

	text, err := client.Fetch(ctx, ch)
	if err != nil {
		return fmt.Errorf("unable to retrieve changelog: %w", err)
	}

	if a.writer().IsText() {
		_, err := fmt.Fprintln(a.stdout, text)
		return err
	}
	return a.writer().Write(changelogResult{Channel: ch, URL: client.URL(ch), Text: text})
}
