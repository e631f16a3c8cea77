package gorm

import (
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/domain/user"
)

// UserToModel converts a domain user to its GORM model
func UserToModel(u *user.User) *UserModel {
	return &UserModel{
		ID:           u.ID(),
		Email:        u.Email(),
		Name:         u.Name(),
		PasswordHash: u.PasswordHash(),
		IsActive:     u.IsActive(),
		CreatedAt:    u.CreatedAt(),
		UpdatedAt:    u.UpdatedAt(),
		LastLoginAt:  u.LastLoginAt(),
	}
}

// ModelToUser converts a GORM model back to the domain user
func ModelToUser(m *UserModel) *user.User {
	return user.Reconstruct(user.Snapshot{
		ID:           m.ID,
		Email:        m.Email,
		Name:         m.Name,
		PasswordHash: m.PasswordHash,
		IsActive:     m.IsActive,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
		LastLoginAt:  m.LastLoginAt,
	})
}

// PlantToModel converts a catalog plant to its GORM model
func PlantToModel(p *plant.Plant) *PlantModel {
	m := &PlantModel{
		ID:              p.ID,
		Name:            p.Name,
		ScientificName:  p.ScientificName,
		Category:        p.Category,
		Description:     p.Description,
		MedicalUses:     StringSlice(p.MedicalUses),
		ActiveCompounds: StringSlice(p.ActiveCompounds),
		ImageURL:        p.ImageURL,
		CreatedAt:       p.CreatedAt,
		UpdatedAt:       p.UpdatedAt,
	}
	if p.HasInsights() {
		insights := p.AIInsights
		m.AIInsights = &insights
	}
	return m
}

// ModelToPlant converts a GORM model back to a catalog plant
func ModelToPlant(m *PlantModel) *plant.Plant {
	p := &plant.Plant{
		ID:              m.ID,
		Name:            m.Name,
		ScientificName:  m.ScientificName,
		Category:        m.Category,
		Description:     m.Description,
		MedicalUses:     []string(m.MedicalUses),
		ActiveCompounds: []string(m.ActiveCompounds),
		ImageURL:        m.ImageURL,
		CreatedAt:       m.CreatedAt,
		UpdatedAt:       m.UpdatedAt,
	}
	if p.MedicalUses == nil {
		p.MedicalUses = []string{}
	}
	if p.ActiveCompounds == nil {
		p.ActiveCompounds = []string{}
	}
	if m.AIInsights != nil {
		p.AIInsights = *m.AIInsights
	}
	return p
}
