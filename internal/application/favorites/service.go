// Package favorites provides the application layer for a user's favorite plants
package favorites

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/favorite"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// SignInRequiredMessage is the description shown with the "Authentication required" toast
const SignInRequiredMessage = "Please sign in to save favorites."

const maxToggleAttempts = 5

// FavoriteService implements the favorites use cases
type FavoriteService struct {
	favoriteRepo outbound.FavoriteRepository
	plantRepo    outbound.PlantRepository
	toggles      *prometheus.CounterVec
	logger       *zap.Logger
}

// NewFavoriteService creates a new favorite service and registers its counters on reg
func NewFavoriteService(
	favoriteRepo outbound.FavoriteRepository,
	plantRepo outbound.PlantRepository,
	reg prometheus.Registerer,
	logger *zap.Logger,
) inbound.FavoriteService {
	return &FavoriteService{
		favoriteRepo: favoriteRepo,
		plantRepo:    plantRepo,
		toggles: promauto.With(reg).NewCounterVec(
			prometheus.CounterOpts{
				Name: "medihort_favorite_toggles_total",
				Help: "Favorite toggles by resulting state",
			},
			[]string{"outcome"},
		),
		logger: logger.Named("favorite-service"),
	}
}

// ListFavorites returns the plant ids favorited by the user
func (s *FavoriteService) ListFavorites(ctx context.Context, userID uuid.UUID) (favorite.Set, error) {
	if userID == uuid.Nil {
		return nil, authenticationRequired()
	}

	ids, err := s.favoriteRepo.ListPlantIDs(ctx, userID)
	if err != nil {
		return nil, apperrors.NewDatabaseError("list favorites", err)
	}
	return favorite.NewSet(ids...), nil
}

// Toggle inserts the favorite when absent and deletes it when present,
// returning the resulting state. The delete and the insert each report
// whether they changed a row, so concurrent toggles of the same pair flip
// the state once per call.
func (s *FavoriteService) Toggle(ctx context.Context, userID, plantID uuid.UUID) (favorite.Outcome, error) {
	if err := s.checkPair(ctx, userID, plantID); err != nil {
		return "", err
	}

	outcome, err := s.flip(ctx, userID, plantID)
	if err != nil {
		return "", err
	}

	s.toggles.WithLabelValues(string(outcome)).Inc()
	s.logger.Info("Favorite toggled",
		zap.String("user_id", userID.String()),
		zap.String("plant_id", plantID.String()),
		zap.String("outcome", string(outcome)),
	)
	return outcome, nil
}

// flip deletes the pair or, when nothing was deleted, inserts it. An insert
// that lost a race to another toggle goes back to deleting.
func (s *FavoriteService) flip(ctx context.Context, userID, plantID uuid.UUID) (favorite.Outcome, error) {
	for attempt := 0; attempt < maxToggleAttempts; attempt++ {
		removed, err := s.favoriteRepo.Remove(ctx, userID, plantID)
		if err != nil {
			return "", apperrors.NewDatabaseError("remove favorite", err)
		}
		if removed {
			return favorite.Removed, nil
		}

		inserted, err := s.favoriteRepo.Add(ctx, userID, plantID)
		if err != nil {
			return "", apperrors.NewDatabaseError("add favorite", err)
		}
		if inserted {
			return favorite.Added, nil
		}
	}
	return "", apperrors.NewConflictError("favorite is being changed concurrently, try again")
}

// Add marks the plant as a favorite. Adding twice is a no-op.
func (s *FavoriteService) Add(ctx context.Context, userID, plantID uuid.UUID) error {
	if err := s.checkPair(ctx, userID, plantID); err != nil {
		return err
	}
	if _, err := s.favoriteRepo.Add(ctx, userID, plantID); err != nil {
		return apperrors.NewDatabaseError("add favorite", err)
	}
	return nil
}

// Remove unmarks the plant. Removing an absent favorite is a no-op.
func (s *FavoriteService) Remove(ctx context.Context, userID, plantID uuid.UUID) error {
	if userID == uuid.Nil {
		return authenticationRequired()
	}
	if _, err := s.favoriteRepo.Remove(ctx, userID, plantID); err != nil {
		return apperrors.NewDatabaseError("remove favorite", err)
	}
	return nil
}

func (s *FavoriteService) checkPair(ctx context.Context, userID, plantID uuid.UUID) error {
	if _, err := favorite.New(userID, plantID); err != nil {
		return authenticationRequired()
	}

	if _, err := s.plantRepo.FindByID(ctx, plantID); err != nil {
		if errors.Is(err, plant.ErrPlantNotFound) {
			return apperrors.NewPlantNotFoundError(plantID.String())
		}
		return apperrors.NewDatabaseError("find plant", err)
	}
	return nil
}

func authenticationRequired() error {
	return apperrors.NewAuthenticationRequiredError(SignInRequiredMessage).WithCause(favorite.ErrAuthenticationRequired)
}
