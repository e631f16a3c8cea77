package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/medihort/medihort-ai/internal/domain/user"
	gormrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"github.com/spf13/cobra"
)

var (
	userEmail    string
	userName     string
	userPassword string
)

var userCmd = &cobra.Command{
	Use:   "user",
	Short: "manage accounts",
}

var userCreateCmd = &cobra.Command{
	Use:     "create",
	Short:   "create an account",
	Example: `  $ medihortctl user create --email grower@example.com --name Grower --password s3cretpass`,
	Args:    cobra.NoArgs,
	RunE:    runUserCreate,
}

func init() {
	userCreateCmd.Flags().StringVar(&userEmail, "email", "", "account email")
	userCreateCmd.Flags().StringVar(&userName, "name", "", "display name")
	userCreateCmd.Flags().StringVar(&userPassword, "password", "", "password, at least 8 characters")
	_ = userCreateCmd.MarkFlagRequired("email")
	_ = userCreateCmd.MarkFlagRequired("password")

	userCmd.AddCommand(userCreateCmd)
}

func runUserCreate(cmd *cobra.Command, args []string) error {
	u, err := user.NewUser(userEmail, userName, userPassword)
	if err != nil {
		return err
	}

	e, err := loadEnv()
	if err != nil {
		return err
	}
	defer func() { _ = e.log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	database, closeDB, err := e.openDatabase(ctx)
	if err != nil {
		return err
	}
	defer closeDB()

	if err := gormrepo.NewUserRepository(database.DB).Create(ctx, u); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "created %s (%s)\n", u.Email(), u.ID())
	return nil
}
