// Command mat-ingest crawls wrestling results for a season and region and
// maintains Elo and Glicko ratings from them.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/yourusername/mat-rankings/internal/config"
	"github.com/yourusername/mat-rankings/internal/logger"
)

// Build information - set via ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

var (
	configFile    string
	storeOverride string
	appLog        *logrus.Logger
	cfg           *config.Config
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "./config/config.yaml", "Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&storeOverride, "store", "", "Override the store driver (postgres or memory)")
	rootCmd.Version = fmt.Sprintf("%s (commit %s, built %s)", Version, GitCommit, BuildDate)
}

var rootCmd = &cobra.Command{
	Use:           "mat-ingest",
	Short:         "Ingest wrestling results and maintain athlete ratings",
	Long:          `Crawls a results site one season and region at a time, rates every match once and keeps a resumable checkpoint after each event.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := loadConfig(cmd.Context()); err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}
		appLog = logger.NewLogger(cfg.App.LogLevel)
		appLog.WithFields(logrus.Fields{
			"environment": cfg.App.Environment,
			"version":     Version,
			"command":     cmd.Name(),
		}).Debug("Configuration loaded")
		return nil
	},
}

func main() {
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func loadConfig(ctx context.Context) error {
	var err error
	cfg, err = config.LoadWithDefaults(configFile)
	if err != nil {
		return err
	}

	if os.Getenv("AWS_SECRETS_ENABLED") == "true" {
		region := os.Getenv("AWS_REGION")
		secretName := os.Getenv("AWS_SECRET_NAME")
		if region == "" || secretName == "" {
			return fmt.Errorf("AWS_REGION and AWS_SECRET_NAME environment variables must be set when AWS_SECRETS_ENABLED is true")
		}
		if err := config.LoadSecretsFromAWS(ctx, cfg, region, secretName); err != nil {
			return fmt.Errorf("failed to load secrets: %w", err)
		}
	}

	if storeOverride != "" {
		cfg.Store.Driver = storeOverride
	}

	return config.Validate(cfg)
}
