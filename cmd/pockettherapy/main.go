package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/xaenox/pocket-therapy/internal/logging"
	"github.com/xaenox/pocket-therapy/pkg/config"
)

var (
	configPath string
	logLevel   string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "pockettherapy",
	Short: "PocketTherapy backend: mood check-ins, exercises and crisis support",
	Long: `PocketTherapy serves mood check-ins, exercise recommendations and SOS
crisis resources over a Telegram bot and a JSON HTTP API.

Configuration is read from config.yaml (see --config) with environment
overrides: DATABASE_URL, TELEGRAM_TOKEN, OPENAI_API_KEY and REDIS_URL.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		logger, err = logging.New(logging.Options{
			Level:      cfg.Log.Level,
			File:       cfg.Log.File,
			MaxSizeMB:  cfg.Log.MaxSizeMB,
			MaxBackups: cfg.Log.MaxBackups,
			MaxAgeDays: cfg.Log.MaxAgeDays,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config.yaml (defaults and environment only when empty)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "override log.level (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd, validateResourcesCmd, purgeCmd, seedCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
