package commands

import (
	"context"
	"fmt"
	"time"

	gormrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"github.com/spf13/cobra"
)

var (
	seedDemoEmail    string
	seedDemoPassword string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "load the starter catalog and demo account",
	Long: `Insert the starter medicinal plant catalog into an empty plants table and create
the demo account when it does not exist. Running it twice changes nothing.`,
	Args: cobra.NoArgs,
	RunE: runSeed,
}

func init() {
	seedCmd.Flags().StringVar(&seedDemoEmail, "demo-email", "", "demo account email (default from auth.demo_email)")
	seedCmd.Flags().StringVar(&seedDemoPassword, "demo-password", "", "demo account password (default from auth.demo_password)")
}

func runSeed(cmd *cobra.Command, args []string) error {
	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	database, closeDB, err := e.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	opts := gormrepo.SeedOptions{
		DemoEmail:    e.cfg.Auth.DemoEmail,
		DemoPassword: e.cfg.Auth.DemoPassword,
	}
	if seedDemoEmail != "" {
		opts.DemoEmail = seedDemoEmail
	}
	if seedDemoPassword != "" {
		opts.DemoPassword = seedDemoPassword
	}

	result, err := gormrepo.Seed(ctx, database.DB, opts)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "plants created: %d\n", result.PlantsCreated)
	if result.DemoUser {
		fmt.Fprintf(cmd.OutOrStdout(), "demo account created: %s\n", opts.DemoEmail)
	}
	return nil
}
