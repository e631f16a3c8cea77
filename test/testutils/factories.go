package testutils

import (
	"fmt"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/domain/user"
)

var plantCategories = []string{
	"Adaptogen", "Anti-inflammatory", "Calming", "Digestive", "Immune Support", "Respiratory", "Skin Care",
}

// PlantFactory provides methods to create test plants
type PlantFactory struct {
	faker *gofakeit.Faker
}

// NewPlantFactory creates a plant factory with a seeded faker
func NewPlantFactory(seed int64) *PlantFactory {
	return &PlantFactory{faker: gofakeit.New(seed)}
}

// PlantBuilder provides a fluent interface for building test plants
type PlantBuilder struct {
	p plant.Plant
}

// NewPlantBuilder starts from a minimal valid plant
func NewPlantBuilder() *PlantBuilder {
	now := time.Now()
	return &PlantBuilder{p: plant.Plant{
		ID:              uuid.New(),
		Name:            "Test Plant",
		ScientificName:  "Plantae testus",
		Category:        "Calming",
		Description:     "A plant used in tests.",
		MedicalUses:     []string{},
		ActiveCompounds: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}}
}

// WithName sets the common name
func (b *PlantBuilder) WithName(name string) *PlantBuilder {
	b.p.Name = name
	return b
}

// WithScientificName sets the binomial name
func (b *PlantBuilder) WithScientificName(name string) *PlantBuilder {
	b.p.ScientificName = name
	return b
}

// WithCategory sets the category
func (b *PlantBuilder) WithCategory(category string) *PlantBuilder {
	b.p.Category = category
	return b
}

// WithUses sets the medical uses
func (b *PlantBuilder) WithUses(uses ...string) *PlantBuilder {
	b.p.MedicalUses = uses
	return b
}

// WithCompounds sets the active compounds
func (b *PlantBuilder) WithCompounds(compounds ...string) *PlantBuilder {
	b.p.ActiveCompounds = compounds
	return b
}

// WithInsights sets stored AI insights
func (b *PlantBuilder) WithInsights(insights string) *PlantBuilder {
	b.p.AIInsights = insights
	return b
}

// Build validates and returns the plant
func (b *PlantBuilder) Build() (*plant.Plant, error) {
	p := b.p
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// CreatePlant creates a plant with realistic random content
func (f *PlantFactory) CreatePlant() (*plant.Plant, error) {
	return NewPlantBuilder().
		WithName(capitalize(f.faker.Adjective()) + " " + f.faker.Noun()).
		WithScientificName(capitalize(f.faker.Noun()) + " " + strings.ToLower(f.faker.Adjective())).
		WithCategory(f.faker.RandomString(plantCategories)).
		WithUses(f.words(f.faker.Number(1, 6))...).
		WithCompounds(f.words(f.faker.Number(1, 3))...).
		Build()
}

// CreatePlants creates n random plants
func (f *PlantFactory) CreatePlants(n int) ([]*plant.Plant, error) {
	plants := make([]*plant.Plant, 0, n)
	for i := 0; i < n; i++ {
		p, err := f.CreatePlant()
		if err != nil {
			return nil, fmt.Errorf("failed to create test plant %d: %w", i, err)
		}
		plants = append(plants, p)
	}
	return plants, nil
}

func (f *PlantFactory) words(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = f.faker.HipsterWord()
	}
	return out
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// UserFactory provides methods to create test users
type UserFactory struct {
	faker *gofakeit.Faker
}

// NewUserFactory creates a user factory with a seeded faker
func NewUserFactory(seed int64) *UserFactory {
	return &UserFactory{faker: gofakeit.New(seed)}
}

// Credentials are the plain-text sign-in values of a generated user
type Credentials struct {
	Email    string
	Name     string
	Password string
}

// NewCredentials returns unique sign-in values
func (f *UserFactory) NewCredentials() Credentials {
	return Credentials{
		Email:    fmt.Sprintf("%s.%d@example.com", strings.ToLower(f.faker.FirstName()), f.faker.Number(1000, 999999)),
		Name:     f.faker.Name(),
		Password: f.faker.Password(true, true, true, false, false, 16),
	}
}

// CreateUser creates a user and returns its credentials
func (f *UserFactory) CreateUser() (*user.User, Credentials, error) {
	creds := f.NewCredentials()
	u, err := user.NewUser(creds.Email, creds.Name, creds.Password)
	return u, creds, err
}
