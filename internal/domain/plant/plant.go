// Package plant defines the medicinal plant catalog record
package plant

import (
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// CardUseLimit is how many medical uses a catalog card shows
const CardUseLimit = 3

// Plant is one entry of the medicinal plant catalog
type Plant struct {
	ID              uuid.UUID `json:"id"`
	Name            string    `json:"name"`
	ScientificName  string    `json:"scientific_name"`
	Category        string    `json:"category"`
	Description     string    `json:"description"`
	MedicalUses     []string  `json:"medical_uses"`
	ActiveCompounds []string  `json:"active_compounds"`
	ImageURL        string    `json:"image_url"`
	AIInsights      string    `json:"ai_insights,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// New creates a validated plant with a fresh id
func New(name, scientificName, category, description string) (*Plant, error) {
	now := time.Now()
	p := &Plant{
		ID:              uuid.New(),
		Name:            strings.TrimSpace(name),
		ScientificName:  strings.TrimSpace(scientificName),
		Category:        strings.TrimSpace(category),
		Description:     strings.TrimSpace(description),
		MedicalUses:     []string{},
		ActiveCompounds: []string{},
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks the fields the catalog cannot render without
func (p *Plant) Validate() error {
	if p.Name == "" {
		return ErrNameRequired
	}
	if len(p.Name) > 200 {
		return ErrNameTooLong
	}
	if p.ScientificName == "" {
		return ErrScientificNameRequired
	}
	return nil
}

// CardUses returns the medical uses shown on a catalog card
func (p *Plant) CardUses() []string {
	if len(p.MedicalUses) <= CardUseLimit {
		return p.MedicalUses
	}
	return p.MedicalUses[:CardUseLimit]
}

// HasInsights reports whether stored AI insights exist
func (p *Plant) HasInsights() bool {
	return strings.TrimSpace(p.AIInsights) != ""
}

// WithInsights returns a copy carrying freshly generated insights
func (p *Plant) WithInsights(insights string) *Plant {
	cp := *p
	cp.AIInsights = insights
	return &cp
}

// SortByName orders plants by name, case-insensitively, ties broken by id
func SortByName(plants []*Plant) {
	sort.SliceStable(plants, func(i, j int) bool {
		a, b := strings.ToLower(plants[i].Name), strings.ToLower(plants[j].Name)
		if a != b {
			return a < b
		}
		return plants[i].ID.String() < plants[j].ID.String()
	})
}
