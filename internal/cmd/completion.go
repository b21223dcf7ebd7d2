package cmd

import (
	"github.com/spf13/cobra"
)

func newCompletionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate shell completion script for tuolauncher.

To load completions:

Bash:
  $ source <(tuolauncher completion bash)

  # To load completions for each session, execute once:
  # Linux:
  $ tuolauncher completion bash > /etc/bash_completion.d/tuolauncher
  # macOS:
  $ tuolauncher completion bash > $(brew --prefix)/etc/bash_completion.d/tuolauncher

Zsh:
  # If shell completion is not already enabled in your environment,
  # you will need to enable it.  You can execute the following once:
  $ echo "autoload -U compinit; compinit" >> ~/.zshrc

  # To load completions for each session, execute once:
  $ tuolauncher completion zsh > "${fpath[1]}/_tuolauncher"

  # You will need to start a new shell for this setup to take effect.

  # Oh My Zsh:
  $ mkdir -p ~/.oh-my-zsh/completions
  $ tuolauncher completion zsh > ~/.oh-my-zsh/completions/_tuolauncher

Fish:
  $ tuolauncher completion fish > ~/.config/fish/completions/tuolauncher.fish

PowerShell:
  PS> tuolauncher completion powershell | Out-String | Invoke-Expression

  # To load completions for every new session, add the output to your profile:
  PS> tuolauncher completion powershell >> $PROFILE
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			switch args[0] {
			case "bash":
				return cmd.Root().GenBashCompletionV2(out, true)
			case "zsh":
				return cmd.Root().GenZshCompletion(out)
			case "fish":
				return cmd.Root().GenFishCompletion(out, true)
			case "powershell":
				return cmd.Root().GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}
