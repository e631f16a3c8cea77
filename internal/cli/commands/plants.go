package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	gormrepo "github.com/medihort/medihort-ai/internal/infrastructure/persistence/gorm"
	"github.com/spf13/cobra"
)

var plantsCmd = &cobra.Command{
	Use:   "plants",
	Short: "list the plant catalog",
	Args:  cobra.NoArgs,
	RunE:  runPlants,
}

func runPlants(cmd *cobra.Command, args []string) error {
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

	plants, err := gormrepo.NewPlantRepository(database.DB).List(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tSCIENTIFIC NAME\tCATEGORY\tUSES")
	for _, p := range plants {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", p.ID, p.Name, p.ScientificName, p.Category, strings.Join(p.CardUses(), ", "))
	}
	return w.Flush()
}
