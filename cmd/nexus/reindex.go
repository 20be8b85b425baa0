package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"alfredoptarigan/nexus-talent/internal/services"
)

func reindexCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "reindex",
		Short: "Embed every pipeline candidate into the search index",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := loadConfig()
			if err != nil {
				return err
			}
			defer log.Sync()

			if !cfg.Qdrant.Enabled {
				return errors.New("candidate index is disabled: set QDRANT_ENABLED=true")
			}

			ctx := cmd.Context()
			a, err := newApplication(ctx, cfg, log, false)
			if err != nil {
				return err
			}

			log.Info("🚀 Starting candidate reindex...")
			a.worker.Start(ctx)
			defer a.worker.Stop()

			total := services.EnqueueAll(a.worker, a.store.Snapshot())
			if total == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), color.YellowString("No candidates to index"))
				return nil
			}

			deadline := time.After(timeout)
			ticker := time.NewTicker(200 * time.Millisecond)
			defer ticker.Stop()
			for a.worker.Processed() < int64(total) {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-deadline:
					return fmt.Errorf("reindex timed out after %s (%d of %d done)", timeout, a.worker.Processed(), total)
				case <-ticker.C:
				}
			}

			log.Info("✅ Reindex complete", zap.Int("candidates", total))
			fmt.Fprintln(cmd.OutOrStdout(), color.GreenString("✓ %d candidates indexed", total))
			return nil
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 5*time.Minute, "Give up after this long")
	return cmd
}
