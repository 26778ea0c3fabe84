// -----------------------------------------------------------------------
// Last Modified: Saturday, 17th October 2026 5:02:41 pm
// Modified By: Bob McAllan
// -----------------------------------------------------------------------

package main

import (
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/marketpulse/internal/common"
)

var (
	// Command-line flags
	configFiles []string
	serverPort  int
	serverHost  string

	// Global state
	config *common.Config
	logger arbor.ILogger
)

var rootCmd = &cobra.Command{
	Use:   "marketpulse",
	Short: "Resilient market data aggregation service",
	Long: `MarketPulse aggregates economic indicators, index levels, per-symbol
quotes, technicals and news from several upstream providers, caching
results and degrading gracefully when providers or AI tiers fail.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

func init() {
	rootCmd.PersistentFlags().StringSliceVarP(&configFiles, "config", "c", nil, "Configuration file path (repeatable, later files override earlier ones)")
	rootCmd.PersistentFlags().IntVarP(&serverPort, "port", "p", 0, "Server port (overrides config)")
	rootCmd.PersistentFlags().StringVar(&serverHost, "host", "", "Server host (overrides config)")

	rootCmd.AddCommand(serveCmd, validateCmd, newsCmd, refreshCmd, versionCmd)
}

// loadConfig runs before every command.
// Order: .env -> defaults -> file1 -> file2 -> ... -> env -> CLI, then logger.
func loadConfig(cmd *cobra.Command, args []string) error {
	if cmd == versionCmd {
		return nil
	}

	// Optional .env; real environment variables win
	_ = godotenv.Load()

	if len(configFiles) == 0 {
		if _, err := os.Stat("marketpulse.toml"); err == nil {
			configFiles = append(configFiles, "marketpulse.toml")
		} else if _, err := os.Stat("deployments/local/marketpulse.toml"); err == nil {
			configFiles = append(configFiles, "deployments/local/marketpulse.toml")
		}
	}

	var err error
	config, err = common.LoadFromFiles(configFiles...)
	if err != nil {
		arbor.NewLogger().Error().Strs("paths", configFiles).Err(err).Msg("Failed to load configuration")
		return err
	}

	common.ApplyFlagOverrides(config, serverPort, serverHost)

	logger = common.InitLogger(config)
	common.InstallCrashHandler(filepath.Join(config.Storage.DataDir, "logs"))

	logger.Debug().
		Strs("config_files", configFiles).
		Str("environment", config.Environment).
		Str("data_dir", config.Storage.DataDir).
		Str("log_level", config.Logging.Level).
		Msg("Resolved configuration")

	return nil
}

func main() {
	defer common.RecoverWithCrashFile()

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
