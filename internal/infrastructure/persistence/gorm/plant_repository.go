package gorm

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PlantRepository implements the plant repository interface using GORM
type PlantRepository struct {
	db *gorm.DB
}

// NewPlantRepository creates a new plant repository
func NewPlantRepository(db *gorm.DB) outbound.PlantRepository {
	return &PlantRepository{db: db}
}

// List returns every plant ordered by name
func (r *PlantRepository) List(ctx context.Context) ([]*plant.Plant, error) {
	var models []PlantModel

	result := r.db.WithContext(ctx).Order("LOWER(name) ASC").Order("id ASC").Find(&models)
	if result.Error != nil {
		return nil, apperrors.NewDatabaseError("list plants", result.Error)
	}

	plants := make([]*plant.Plant, 0, len(models))
	for i := range models {
		plants = append(plants, ModelToPlant(&models[i]))
	}
	return plants, nil
}

// FindByID finds a plant by ID
func (r *PlantRepository) FindByID(ctx context.Context, id uuid.UUID) (*plant.Plant, error) {
	var model PlantModel

	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, plant.ErrPlantNotFound
		}
		return nil, apperrors.NewDatabaseError("find plant", result.Error)
	}

	return ModelToPlant(&model), nil
}

// Save inserts the plant or updates it in place
func (r *PlantRepository) Save(ctx context.Context, p *plant.Plant) error {
	if err := p.Validate(); err != nil {
		return err
	}

	result := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(PlantToModel(p))
	if result.Error != nil {
		return apperrors.NewDatabaseError("save plant", result.Error)
	}
	return nil
}

// Count returns the catalog size
func (r *PlantRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&PlantModel{}).Count(&count).Error; err != nil {
		return 0, apperrors.NewDatabaseError("count plants", err)
	}
	return count, nil
}
