package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tailored-agentic-units/assistant/journal"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Re-hash every journal entry and report tampering",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cfg.Journal.Path == "" {
			return fmt.Errorf("no journal path configured; pass --journal")
		}

		store, err := journal.NewStore(&cfg.Journal)
		if err != nil {
			return err
		}
		defer store.Close()

		doc, err := store.Load(cmd.Context())
		if err != nil {
			return err
		}
		if doc == nil {
			fmt.Fprintln(cmd.OutOrStdout(), "journal is empty")
			return nil
		}

		if err := journal.VerifyEntries(doc.Entries); err != nil {
			return err
		}

		fmt.Fprintf(cmd.OutOrStdout(), "%d entries verified (%d commands, %d dreams, %d errors)\n",
			len(doc.Entries), doc.Counters.Commands, doc.Counters.Dreams, doc.Counters.Errors)
		return nil
	},
}
