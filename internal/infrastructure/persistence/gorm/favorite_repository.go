package gorm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// FavoriteRepository implements the favorites relation using GORM
type FavoriteRepository struct {
	db *gorm.DB
}

// NewFavoriteRepository creates a new favorite repository
func NewFavoriteRepository(db *gorm.DB) outbound.FavoriteRepository {
	return &FavoriteRepository{db: db}
}

// ListPlantIDs returns the plant ids the user has favorited
func (r *FavoriteRepository) ListPlantIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID

	result := r.db.WithContext(ctx).
		Model(&FavoriteModel{}).
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Pluck("plant_id", &ids)
	if result.Error != nil {
		return nil, apperrors.NewDatabaseError("list favorites", result.Error)
	}
	return ids, nil
}

// Exists reports whether the pair is stored
func (r *FavoriteRepository) Exists(ctx context.Context, userID, plantID uuid.UUID) (bool, error) {
	var count int64

	result := r.db.WithContext(ctx).
		Model(&FavoriteModel{}).
		Where("user_id = ? AND plant_id = ?", userID, plantID).
		Count(&count)
	if result.Error != nil {
		return false, apperrors.NewDatabaseError("check favorite", result.Error)
	}
	return count > 0, nil
}

// Add stores the pair, ignoring an existing row
func (r *FavoriteRepository) Add(ctx context.Context, userID, plantID uuid.UUID) (bool, error) {
	model := &FavoriteModel{UserID: userID, PlantID: plantID, CreatedAt: time.Now()}

	result := r.db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return false, apperrors.NewDatabaseError("add favorite", result.Error)
	}
	return result.RowsAffected > 0, nil
}

// Remove deletes the pair and reports whether it existed
func (r *FavoriteRepository) Remove(ctx context.Context, userID, plantID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND plant_id = ?", userID, plantID).
		Delete(&FavoriteModel{})
	if result.Error != nil {
		return false, apperrors.NewDatabaseError("remove favorite", result.Error)
	}
	return result.RowsAffected > 0, nil
}
