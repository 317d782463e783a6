package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "assistant",
	Short: "Offline assistant kernel",
	Long: `An offline personal assistant that simulates machine resources and a
dopamine-driven emotional state, answers a fixed set of commands, controls
a logical room light, and keeps an integrity-hashed activity journal.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringP("config", "c", "", "Path to a YAML or JSON config file")
	rootCmd.PersistentFlags().String("journal", "", "Journal path (overrides config); .db/.sqlite selects SQLite")

	rootCmd.AddCommand(runCmd, verifyCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
