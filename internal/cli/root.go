// Package cli handles the command-line interface logic using Cobra.
package cli

import (
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "etl",
		Short: "Robust batch ETL pipeline with retries and transactional loads",
		Long: `etl moves one batch of records from a source into a SQLite sink,
validating and normalizing rows in between. Extraction is guarded by a
bounded retry policy and the load replaces the target table as a single
all-or-nothing transaction, followed by a read-back verification.`,
		SilenceUsage: true,
		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.AddCommand(NewRunCmd())

	return rootCmd
}
