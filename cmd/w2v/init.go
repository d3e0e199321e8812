package main

import (
	"fmt"
	"os"

	"github.com/4thel00z/w2v/internal"
	"github.com/spf13/cobra"
)

func NewInitCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a default config file",
		Long:  `Write the default training configuration as YAML so it can be edited and passed back with --config.`,
		Args:  cobra.MaximumNArgs(1),
		RunE:  runInit,
	}

	cmd.Flags().Bool("force", false, "Overwrite an existing file")
	return cmd
}

func runInit(cmd *cobra.Command, args []string) error {
	path := defaultConfigPath
	if len(args) == 1 {
		path = args[0]
	}

	force, _ := cmd.Flags().GetBool("force")
	if _, err := os.Stat(path); err == nil && !force {
		return fmt.Errorf("config already exists at %s", path)
	}

	if err := internal.SaveConfig(path, internal.DefaultConfig()); err != nil {
		return fmt.Errorf("save config: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote default config to %s\n", path)
	return nil
}
