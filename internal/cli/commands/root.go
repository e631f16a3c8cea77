// Package commands implements medihortctl, the MediHort AI admin CLI
package commands

import (
	"context"
	"fmt"

	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/infrastructure/container"
	"github.com/medihort/medihort-ai/pkg/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

const version = "1.0.0"

var configPath string

// rootCmd is the root command
var rootCmd = &cobra.Command{
	Use:     "medihortctl",
	Short:   "MediHort AI administration",
	Version: version,
	Long: `Administration tool for a MediHort AI deployment. Runs schema migrations,
loads the starter plant catalog and manages accounts against the configured database.`,
	Example: `  # Apply pending migrations
  $ medihortctl migrate up

  # Load the starter catalog and demo account
  $ medihortctl seed

  # Create an account
  $ medihortctl user create --email grower@example.com --name Grower --password s3cretpass`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute executes the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.CompletionOptions.DisableDefaultCmd = true
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(seedCmd)
	rootCmd.AddCommand(userCmd)
	rootCmd.AddCommand(plantsCmd)
}

// env is what every command needs: configuration and a console logger
type env struct {
	cfg *config.Config
	log *zap.Logger
}

func loadEnv() (*env, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.App.LogLevel,
		Format:      "console",
		Development: true,
	})
	if err != nil {
		return nil, fmt.Errorf("create logger: %w", err)
	}

	return &env{cfg: cfg, log: log}, nil
}

// openDatabase opens the store without running migrations
func (e *env) openDatabase(ctx context.Context) (*container.Database, func(), error) {
	cfg := *e.cfg
	cfg.Database.AutoMigrate = false

	database, err := container.OpenDatabase(ctx, &cfg, e.log)
	if err != nil {
		return nil, nil, err
	}

	closeFn := func() {
		if database.Postgres != nil {
			_ = database.Postgres.Close()
			return
		}
		if sqlDB, err := database.DB.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return database, closeFn, nil
}
