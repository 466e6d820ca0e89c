package main

import (
	"fmt"
	"os"

	"duet/internal/config"
	"duet/internal/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	// Global flags
	verbose    bool
	configPath string
	endpoint   string

	// Resolved in PersistentPreRunE
	appCfg *config.Config
	logs   *logging.Factory
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "duet",
	Short: "duet - two-agent tutor chat",
	Long: `duet is a terminal chat client for a two-agent tutor: an answerer replies
to each question and a checker reviews the reply a moment later.

Run without arguments to start the interactive chat interface.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		// The interactive chat owns the terminal; it logs to a file or not at all.
		interactive := cmd == cmd.Root()
		return setup(interactive)
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logs != nil {
			logs.Sync()
		}
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInteractiveChat()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: .duet/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&endpoint, "endpoint", "", "Chat endpoint URL (or set DUET_ENDPOINT)")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setup loads .env and the config file, applies flag overrides and builds
// the loggers.
func setup(interactive bool) error {
	if err := config.LoadDotEnv(".env"); err != nil {
		return err
	}

	if configPath == "" {
		configPath = config.DefaultConfigPath()
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if endpoint != "" {
		cfg.Client.Endpoint = endpoint
	}
	if verbose {
		cfg.Logging.Level = "debug"
	}

	factory, err := logging.New(cfg.Logging, interactive)
	if err != nil {
		return err
	}

	appCfg = cfg
	logs = factory
	logger = factory.Get(logging.CategoryBoot)
	logger.Debug("config resolved",
		zap.String("path", configPath),
		zap.String("endpoint", cfg.Client.Endpoint))
	return nil
}
