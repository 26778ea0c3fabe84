package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/marketpulse/internal/app"
)

var refreshCmd = &cobra.Command{
	Use:   "refresh",
	Short: "Run every refresh job once, ignoring environment and trading hours",
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.New(config, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		result := application.SchedulerService.ForceUpdate(ctx)
		if err := printJSON(result); err != nil {
			return err
		}
		for _, job := range result.Jobs {
			if !job.Success {
				return fmt.Errorf("refresh job %s failed: %s", job.Job, job.Error)
			}
		}
		return nil
	},
}
