package gorm

import (
	"context"
	"errors"
	"fmt"

	"github.com/medihort/medihort-ai/internal/domain/user"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// SeedOptions controls the demo account created alongside the catalog
type SeedOptions struct {
	DemoEmail    string
	DemoPassword string
}

// SeedResult reports what a seed run inserted
type SeedResult struct {
	PlantsCreated int
	DemoUser      bool
}

// StarterCatalog returns the plants loaded into an empty database
func StarterCatalog() []PlantModel {
	return []PlantModel{
		{
			Name:            "Aloe Vera",
			ScientificName:  "Aloe barbadensis miller",
			Category:        "Succulent",
			Description:     "A succulent whose inner leaf gel has been used for centuries to soothe skin and support healing.",
			MedicalUses:     StringSlice{"Burn relief", "Wound healing", "Skin hydration", "Digestive support"},
			ActiveCompounds: StringSlice{"Acemannan", "Aloin", "Anthraquinones", "Polysaccharides"},
		},
		{
			Name:            "Ashwagandha",
			ScientificName:  "Withania somnifera",
			Category:        "Adaptogen",
			Description:     "An Ayurvedic shrub whose roots are valued as an adaptogen for stress resilience.",
			MedicalUses:     StringSlice{"Stress reduction", "Sleep support", "Energy and vitality", "Cognitive function"},
			ActiveCompounds: StringSlice{"Withanolides", "Withaferin A", "Alkaloids"},
		},
		{
			Name:            "Chamomile",
			ScientificName:  "Matricaria chamomilla",
			Category:        "Flowering Herb",
			Description:     "A daisy-like flower brewed as a calming tea and applied topically for irritated skin.",
			MedicalUses:     StringSlice{"Sleep aid", "Anxiety relief", "Digestive comfort", "Skin inflammation"},
			ActiveCompounds: StringSlice{"Apigenin", "Bisabolol", "Chamazulene", "Flavonoids"},
		},
		{
			Name:            "Echinacea",
			ScientificName:  "Echinacea purpurea",
			Category:        "Flowering Herb",
			Description:     "A North American coneflower traditionally taken at the first signs of a cold.",
			MedicalUses:     StringSlice{"Immune support", "Cold symptom relief", "Upper respiratory health"},
			ActiveCompounds: StringSlice{"Alkamides", "Caffeic acid derivatives", "Polysaccharides"},
		},
		{
			Name:            "Ginger",
			ScientificName:  "Zingiber officinale",
			Category:        "Rhizome",
			Description:     "A tropical rhizome widely used for nausea and as a warming anti-inflammatory spice.",
			MedicalUses:     StringSlice{"Nausea relief", "Motion sickness", "Anti-inflammatory", "Digestive aid", "Menstrual pain"},
			ActiveCompounds: StringSlice{"Gingerols", "Shogaols", "Zingerone"},
		},
		{
			Name:            "Lavender",
			ScientificName:  "Lavandula angustifolia",
			Category:        "Aromatic Herb",
			Description:     "A fragrant Mediterranean shrub whose essential oil is used in aromatherapy and skin care.",
			MedicalUses:     StringSlice{"Anxiety relief", "Sleep improvement", "Headache relief", "Minor burns"},
			ActiveCompounds: StringSlice{"Linalool", "Linalyl acetate", "Camphor"},
		},
		{
			Name:            "Peppermint",
			ScientificName:  "Mentha x piperita",
			Category:        "Aromatic Herb",
			Description:     "A hybrid mint with a cooling menthol profile used for digestion and tension headaches.",
			MedicalUses:     StringSlice{"IBS symptom relief", "Tension headaches", "Nasal congestion", "Indigestion"},
			ActiveCompounds: StringSlice{"Menthol", "Menthone", "Rosmarinic acid"},
		},
		{
			Name:            "Turmeric",
			ScientificName:  "Curcuma longa",
			Category:        "Rhizome",
			Description:     "A golden rhizome from the ginger family studied for its anti-inflammatory curcuminoids.",
			MedicalUses:     StringSlice{"Joint inflammation", "Antioxidant support", "Digestive health", "Liver support"},
			ActiveCompounds: StringSlice{"Curcumin", "Demethoxycurcumin", "Turmerone"},
		},
		{
			Name:            "Valerian",
			ScientificName:  "Valeriana officinalis",
			Category:        "Root",
			Description:     "A perennial whose pungent root is a traditional remedy for restlessness and insomnia.",
			MedicalUses:     StringSlice{"Insomnia", "Restlessness", "Mild anxiety"},
			ActiveCompounds: StringSlice{"Valerenic acid", "Valepotriates", "Isovaleric acid"},
		},
	}
}

// Seed populates an empty catalog and creates the demo account when missing
func Seed(ctx context.Context, db *gorm.DB, opts SeedOptions) (SeedResult, error) {
	var result SeedResult

	err := db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var plantCount int64
		if err := tx.Model(&PlantModel{}).Count(&plantCount).Error; err != nil {
			return fmt.Errorf("failed to count plants: %w", err)
		}

		if plantCount == 0 {
			plants := StarterCatalog()
			if err := tx.Create(&plants).Error; err != nil {
				return fmt.Errorf("failed to create starter catalog: %w", err)
			}
			result.PlantsCreated = len(plants)
		}

		if opts.DemoEmail == "" {
			return nil
		}

		demo, err := user.NewUser(opts.DemoEmail, "Demo Gardener", opts.DemoPassword)
		if err != nil {
			return fmt.Errorf("invalid demo account: %w", err)
		}

		res := tx.Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "email"}}, DoNothing: true}).
			Create(UserToModel(demo))
		if res.Error != nil {
			return fmt.Errorf("failed to create demo user: %w", res.Error)
		}
		result.DemoUser = res.RowsAffected > 0
		return nil
	})
	if err != nil {
		return SeedResult{}, err
	}

	return result, nil
}

// AutoMigrate creates or updates the tables for every model
func AutoMigrate(db *gorm.DB) error {
	if db == nil {
		return errors.New("nil database")
	}
	if err := db.AutoMigrate(AllModels()...); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}
	return nil
}
