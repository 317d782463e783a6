package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/assistant/journal"
	"github.com/tailored-agentic-units/assistant/kernel"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the effective configuration as YAML",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		data, err := cfg.YAML()
		if err != nil {
			return fmt.Errorf("failed to render config: %w", err)
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// loadConfig reads --config onto the defaults and applies --journal.
func loadConfig(cmd *cobra.Command) (*kernel.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	journalPath, _ := cmd.Flags().GetString("journal")

	var cfg *kernel.Config
	if path != "" {
		loaded, err := kernel.LoadConfig(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	} else {
		defaults := kernel.DefaultConfig()
		cfg = &defaults
	}

	if journalPath != "" {
		cfg.Journal.Backend = ""
		cfg.Journal.Merge(&journal.Config{Path: journalPath})
	}
	return cfg, nil
}
