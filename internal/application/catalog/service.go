// Package catalog provides the application layer for browsing medicinal plants
package catalog

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"go.uber.org/zap"
)

// LoadFailedMessage is shown when the plant grid cannot be fetched
const LoadFailedMessage = "Failed to load plants"

// CatalogService implements the catalog use cases
type CatalogService struct {
	plantRepo outbound.PlantRepository
	logger    *zap.Logger
}

// NewCatalogService creates a new catalog service
func NewCatalogService(plantRepo outbound.PlantRepository, logger *zap.Logger) inbound.CatalogService {
	return &CatalogService{
		plantRepo: plantRepo,
		logger:    logger.Named("catalog-service"),
	}
}

// ListPlants returns every plant ordered by name
func (s *CatalogService) ListPlants(ctx context.Context) ([]*plant.Plant, error) {
	plants, err := s.plantRepo.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list plants", zap.Error(err))
		return nil, apperrors.NewAppError(apperrors.CodeDatabaseError, LoadFailedMessage, "Failed to list plants").WithCause(err)
	}

	// Case-insensitive regardless of the database collation
	plant.SortByName(plants)

	s.logger.Debug("Listed plants", zap.Int("count", len(plants)))
	return plants, nil
}

// GetPlant returns one plant
func (s *CatalogService) GetPlant(ctx context.Context, id uuid.UUID) (*plant.Plant, error) {
	p, err := s.plantRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, plant.ErrPlantNotFound) {
			return nil, apperrors.NewPlantNotFoundError(id.String())
		}
		return nil, apperrors.NewDatabaseError("find plant", err)
	}
	return p, nil
}
