package postgres

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"go.uber.org/zap"
)

// FavoriteRepository stores favorites through the pgx pool
type FavoriteRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

// NewFavoriteRepository creates a favorites repository on top of pgx
func NewFavoriteRepository(db *pgxpool.Pool, logger *zap.Logger) outbound.FavoriteRepository {
	return &FavoriteRepository{
		db:     db,
		logger: logger,
	}
}

// ListPlantIDs returns the plant ids the user has favorited
func (r *FavoriteRepository) ListPlantIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	query := `SELECT plant_id FROM user_favorites WHERE user_id = $1 ORDER BY created_at`

	rows, err := r.db.Query(ctx, query, userID)
	if err != nil {
		r.logger.Error("Failed to list favorites",
			zap.String("user_id", userID.String()),
			zap.Error(err),
		)
		return nil, apperrors.NewDatabaseError("list favorites", err)
	}

	ids, err := pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
	if err != nil {
		return nil, apperrors.NewDatabaseError("list favorites", err)
	}
	return ids, nil
}

// Exists checks whether the pair is stored
func (r *FavoriteRepository) Exists(ctx context.Context, userID, plantID uuid.UUID) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM user_favorites WHERE user_id = $1 AND plant_id = $2)`

	var exists bool
	if err := r.db.QueryRow(ctx, query, userID, plantID).Scan(&exists); err != nil {
		r.logger.Error("Failed to check favorite",
			zap.String("user_id", userID.String()),
			zap.String("plant_id", plantID.String()),
			zap.Error(err),
		)
		return false, apperrors.NewDatabaseError("check favorite", err)
	}

	return exists, nil
}

// Add stores the pair, ignoring an existing row
func (r *FavoriteRepository) Add(ctx context.Context, userID, plantID uuid.UUID) (bool, error) {
	query := `INSERT INTO user_favorites (user_id, plant_id, created_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, plant_id) DO NOTHING`

	tag, err := r.db.Exec(ctx, query, userID, plantID)
	if err != nil {
		r.logger.Error("Failed to add favorite",
			zap.String("user_id", userID.String()),
			zap.String("plant_id", plantID.String()),
			zap.Error(err),
		)
		return false, apperrors.NewDatabaseError("add favorite", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Remove deletes the pair and reports whether it existed
func (r *FavoriteRepository) Remove(ctx context.Context, userID, plantID uuid.UUID) (bool, error) {
	query := `DELETE FROM user_favorites WHERE user_id = $1 AND plant_id = $2`

	tag, err := r.db.Exec(ctx, query, userID, plantID)
	if err != nil {
		r.logger.Error("Failed to remove favorite",
			zap.String("user_id", userID.String()),
			zap.String("plant_id", plantID.String()),
			zap.Error(err),
		)
		return false, apperrors.NewDatabaseError("remove favorite", err)
	}

	return tag.RowsAffected() > 0, nil
}
