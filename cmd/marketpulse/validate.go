package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"
	"github.com/spf13/cobra"

	"github.com/ternarybob/marketpulse/internal/app"
)

var validateCmd = &cobra.Command{
	Use:   "validate SYMBOL",
	Short: "Validate a ticker symbol and print the result",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		application, err := app.New(config, logger)
		if err != nil {
			return err
		}
		defer application.Close()

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		result := application.Validator.Validate(ctx, args[0])
		output := map[string]interface{}{"validation": result}
		if !result.IsValid {
			output["suggestions"] = application.Validator.Suggestions(args[0])
		}
		return printJSON(output)
	},
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode output: %w", err)
	}
	_, err = fmt.Fprintln(os.Stdout, string(data))
	return err
}
