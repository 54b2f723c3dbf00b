package main

import (
	"fmt"
	"os"

	_ "github.com/joho/godotenv/autoload"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"recipebox/internal/config"
	"recipebox/internal/logger"
)

var (
	cfg      *config.AppConfig
	logLevel string
	log      *zap.Logger
)

// rootCmd is the recipebox binary.
var rootCmd = &cobra.Command{
	Use:   "recipebox",
	Short: "Recipe Box - share recipes with a picture",
	Long: `Recipe Box serves a recipe gallery and a submission form.

Configuration is read from the environment; a .env file in the working
directory is loaded automatically.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		cfg = config.Load()
		if logLevel != "" {
			cfg.Log.Level = logLevel
		}
		var err error
		log, err = logger.New(cfg.Log)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if log != nil {
			_ = log.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(recipesCmd)
}

// @title Recipe Box API
// @version 1.0
// @description Share recipes with a picture, ingredients and step-by-step instructions.
// @BasePath /
func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
