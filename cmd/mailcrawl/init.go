package main

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/mailcrawl/internal/config"
	"github.com/spf13/cobra"
)

//go:embed templates/mailcrawl.yaml
var configTemplate []byte

// NewInitCmd creates the init command.
func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a mailcrawl configuration file",
		Long: `Init writes a commented .mailcrawl configuration file.

The file documents every option: depth, extra headers and cookies, ignored
paths and the route trigger selector, both as defaults and per site.

Examples:
  # Create .mailcrawl in the current directory
  mailcrawl init

  # Create the file in the XDG config directory
  mailcrawl init --xdg

  # Overwrite an existing file
  mailcrawl init -f`,
		Args: cobra.NoArgs,
		RunE: runInitCmd,
	}

	cmd.Flags().StringP("output", "o", config.DefaultConfigFile,
		"Output file path for the configuration")
	cmd.Flags().Bool("xdg", false,
		"Write to the XDG config directory (~/.config/mailcrawl/config.yaml)")
	cmd.Flags().BoolP("force", "f", false,
		"Overwrite an existing configuration file")

	return cmd
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	useXDG, err := cmd.Flags().GetBool("xdg")
	if err != nil {
		return err
	}
	force, err := cmd.Flags().GetBool("force")
	if err != nil {
		return err
	}
	if useXDG {
		outputPath = filepath.Join(config.XDGConfigDir(), config.XDGConfigFile)
	}

	if !force {
		if _, err := os.Stat(outputPath); err == nil {
			return fmt.Errorf("configuration file already exists: %s (use -f to overwrite)", outputPath)
		}
	}

	if dir := filepath.Dir(outputPath); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0750); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(outputPath, configTemplate, 0600); err != nil {
		return fmt.Errorf("failed to write configuration file: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created configuration file: %s\n", outputPath)
	fmt.Fprintln(out, "\nEdit this file to configure per-site settings such as:")
	fmt.Fprintln(out, "  - cookies and extra request headers")
	fmt.Fprintln(out, "  - the depth limit")
	fmt.Fprintln(out, "  - paths to ignore and the route trigger selector")
	return nil
}
