package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"alfredoptarigan/nexus-talent/internal/services"
)

func playbooksCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "playbooks",
		Short: "Manage saved playbooks",
		Long: `Saved playbooks are reusable prompts scoped to a recruitment phase.

Examples:
  nexus playbooks export                  # Print playbooks as YAML
  nexus playbooks export -o team.yaml     # Write them to a file
  nexus playbooks import team.yaml        # Add playbooks from a file`,
	}

	cmd.AddCommand(playbooksExportCmd(), playbooksImportCmd())
	return cmd
}

func playbooksExportCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write saved playbooks as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			a, err := newApplication(cmd.Context(), cfg, log, false)
			if err != nil {
				return err
			}
			playbooks := a.store.Snapshot().Playbooks

			w := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", output, err)
				}
				defer f.Close()
				w = f
			}
			if err := services.EncodePlaybooks(w, playbooks); err != nil {
				return err
			}
			if output != "" {
				fmt.Fprintln(cmd.ErrOrStderr(), color.GreenString("✓ %d playbooks written to %s", len(playbooks), output))
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "Output file (default stdout)")
	return cmd
}

func playbooksImportCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "import <file>",
		Short: "Add playbooks from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			playbooks, err := services.LoadPlaybooks(args[0])
			if err != nil {
				return err
			}
			if playbooks == nil {
				return fmt.Errorf("%s not found or empty", args[0])
			}

			a, err := newApplication(cmd.Context(), cfg, log, false)
			if err != nil {
				return err
			}
			n := a.workspace.ImportPlaybooks(playbooks)
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ %d of %d playbooks imported", n, len(playbooks)))
			return nil
		},
	}
}
