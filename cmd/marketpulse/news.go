package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/ternarybob/marketpulse/internal/app"
)

var newsCmd = &cobra.Command{
	Use:   "news SYMBOL",
	Short: "Run the daily news pipeline for a symbol and print the decision",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.New(config, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		decision := application.NewsService.Process(ctx, args[0])
		if err := printJSON(decision); err != nil {
			return err
		}
		if !decision.IsValid {
			return fmt.Errorf("news pipeline: %s", decision.Error)
		}
		return nil
	},
}
