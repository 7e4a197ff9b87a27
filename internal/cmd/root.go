// Package cmd implements the CLI (Command Line Interface) of the application.
//
// parse - Normalize one or more combat log files and store the results
// matches - List stored matches
// info - Show the stored summary, stats and timeline for a match
// migrate - Initiate a database migration manually
package cmd

import (
	"os"

	"github.com/spf13/cobra"
)

// BuildVersion is replaced at compile time via ldflags.
var BuildVersion = "master"

var cfgFile string

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:     "smitelog",
		Short:   "SMITE 2 combat log normalizer",
		Version: BuildVersion,
	}

	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/smitelog.yml)")

	root.AddCommand(parseCmd())
	root.AddCommand(matchesCmd())
	root.AddCommand(infoCmd())
	root.AddCommand(migrateCmd())

	return root
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main().
func Execute() {
	if errExecute := rootCmd().Execute(); errExecute != nil {
		os.Exit(1)
	}
}
