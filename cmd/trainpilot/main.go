// Package main provides the trainpilot CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"trainpilot/internal/logging"
)

var (
	// Global flags
	verbose bool
	apiKey  string
	model   string
	dbPath  string

	// Logger
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "trainpilot",
	Short: "trainpilot - LLM training run advisor",
	Long: `trainpilot analyzes a planned LLM training configuration before you burn
GPU hours on it.

A council of adversarial agents deliberates over the config: a pessimistic
hardware critic hunts for OOM conditions, an optimistic dynamics critic
pushes for throughput, a referee arbitrates their disagreement, and a
synthesist writes the final verdict with actionable recommendations.

Run without arguments to start the interactive chat interface.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// .env is optional; the environment wins over the file.
		_ = godotenv.Load()

		if apiKey == "" {
			apiKey = os.Getenv("GEMINI_API_KEY")
		}

		config := zap.NewProductionConfig()
		if verbose {
			config.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = config.Build()
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		if err := logging.Initialize(filepath.Join(os.TempDir(), "trainpilot-logs")); err != nil {
			logger.Warn("category logging disabled", zap.Error(err))
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		logging.Close()
		if logger != nil {
			_ = logger.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (defaults to GEMINI_API_KEY)")
	rootCmd.PersistentFlags().StringVar(&model, "model", "", "override the gateway model")
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", defaultDBPath(), "path to the run history database")

	rootCmd.AddCommand(analyzeCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(presetsCmd)
	rootCmd.AddCommand(chatCmd)
}

func defaultDBPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "trainpilot.db"
	}
	return filepath.Join(home, ".trainpilot", "runs.db")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
