package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/adamancini/tuolauncher/internal/config"
	"github.com/adamancini/tuolauncher/internal/output"
	"github.com/adamancini/tuolauncher/internal/templates"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the launcher configuration",
	}

	cmd.AddCommand(newConfigInitCmd())
	cmd.AddCommand(newConfigShowCmd())
	cmd.AddCommand(newConfigPathCmd())

	return cmd
}

func newConfigInitCmd() *cobra.Command {
	var (
		template string
		path     string
		force    bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a configuration file from a template",
		Long: `Init writes a starter configuration.

The file format follows the extension of --path: .yaml/.yml keep the
template's comments, .toml and .json are converted.

Available templates:
` + templateList(),
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if path == "" {
				path = configPath
			}
			return runConfigInit(cmd.OutOrStdout(), template, path, force)
		},
	}

	cmd.Flags().StringVarP(&template, "template", "t", templates.DefaultName, "Template name")
	cmd.Flags().StringVar(&path, "path", "", "Output path (default: user config directory)")
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")

	_ = cmd.RegisterFlagCompletionFunc("template", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return templates.List(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

func templateList() string {
	var b strings.Builder
	for _, name := range templates.List() {
		fmt.Fprintf(&b, "  %-10s %s\n", name, templates.GetDescription(name))
	}
	return b.String()
}

func runConfigInit(stdout io.Writer, templateName, path string, force bool) error {
	tmpl, err := templates.Get(templateName)
	if err != nil {
		return err
	}

	if path == "" {
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("%s already exists (use --force to overwrite)", path)
	}

	// Validate before writing so a broken template never lands on disk
	cfg, err := config.Parse(tmpl.Content, config.FormatYAML)
	if err != nil {
		return fmt.Errorf("template '%s' is invalid: %w", templateName, err)
	}

	switch config.FormatForPath(path) {
	case config.FormatYAML:
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return fmt.Errorf("failed to create config directory: %w", err)
		}
		if err := os.WriteFile(path, tmpl.Content, 0644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	default:
		if err := config.Save(path, cfg); err != nil {
			return err
		}
	}

	_, _ = fmt.Fprintf(stdout, "Created %s from the '%s' template\n", path, templateName)
	_, _ = fmt.Fprintln(stdout, "\nNext steps:")
	_, _ = fmt.Fprintln(stdout, "  tuolauncher check    # Compare installed and remote versions")
	_, _ = fmt.Fprintln(stdout, "  tuolauncher update   # Install the client")
	return nil
}

func newConfigShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Long: `Show prints the configuration after defaults, the file and TUO_*
environment overrides are merged.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd.OutOrStdout())
		},
	}
}

func runConfigShow(stdout io.Writer) error {
	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}

	cfg, path, err := config.LoadOrDefault(configPath)
	if err != nil {
		return err
	}

	if format != output.FormatText {
		return output.NewWriter(stdout, format).Write(cfg)
	}

	data, err := config.Marshal(cfg, config.FormatYAML)
	if err != nil {
		return err
	}
	if path == "" {
		path = "(none, using defaults)"
	}
	_, _ = fmt.Fprintf(stdout, "# Source: %s\n", path)
	_, err = stdout.Write(data)
	return err
}

func newConfigPathCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the configuration file in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigPath(cmd.OutOrStdout())
		},
	}
}

func runConfigPath(stdout io.Writer) error {
	path, err := config.FindConfig(configPath)
	if errors.Is(err, config.ErrNotFound) {
		def, derr := config.DefaultPath()
		if derr != nil {
			return err
		}
		_, _ = fmt.Fprintf(stdout, "No configuration file found, 'tuolauncher config init' creates %s\n", def)
		return nil
	}
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, path)
	return err
}
