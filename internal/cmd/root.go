// Package cmd implements the mudra command line.
package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ayusman/mudra/internal/broker"
	"github.com/ayusman/mudra/internal/config"
	"github.com/ayusman/mudra/internal/store"
	"github.com/ayusman/mudra/pkg/logger"
)

var (
	configPath string
	logLevel   string

	// cfg is loaded before any subcommand runs.
	cfg *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "mudra",
	Short: "Motion gesture recognizer",
	Long: `mudra turns tracked sensor motion into gesture strings, matches them
against registered patterns and notifies the subscriber that owns the match.`,
	SilenceUsage:      true,
	PersistentPreRunE: loadConfig,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "YAML config file (default $MUDRA_CONFIG)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error")
}

func loadConfig(cmd *cobra.Command, _ []string) error {
	c, err := config.Load(cmd.Context(), configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}

	if err := logger.InitWriter(cmd.ErrOrStderr()); err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	if err := logger.SetLevelString(c.LogLevel); err != nil {
		return err
	}

	cfg = c
	return nil
}

// openBroker opens the shared queue database under the data directory.
func openBroker(c *config.Config) (*store.Store, *broker.Broker, error) {
	if err := os.MkdirAll(c.DataDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create data directory: %w", err)
	}
	st, err := store.New(c.QueueDBPath())
	if err != nil {
		return nil, nil, err
	}
	b := broker.New(st,
		broker.WithMaxDepth(c.QueueMaxDepth),
		broker.WithMaxMsgSize(c.QueueMaxMsgSize),
		broker.WithPollInterval(config.Millis(c.QueuePollIntervalMS)),
		broker.WithSendTimeout(config.Millis(c.QueueSendTimeoutMS)),
		broker.WithLogger(logger.Named("broker")),
	)
	return st, b, nil
}

const pluginTimeout = 10 * time.Second
