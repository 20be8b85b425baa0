package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var (
	version = "0.1.0"
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "nexus",
		Short: "Nexus Talent - recruiter chat workspace",
		Long: `Nexus Talent: an AI recruiting partner that follows a role from
strategy to onboarding.

Usage modes:
  nexus serve              Start the HTTP API
  nexus chat               Chat in the terminal
  nexus reindex            Rebuild the candidate search index
  nexus playbooks export   Write saved playbooks as YAML`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable debug logging")

	rootCmd.AddCommand(
		serveCmd(),
		chatCmd(),
		reindexCmd(),
		playbooksCmd(),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, color.RedString("Error: %v", err))
		os.Exit(1)
	}
}
