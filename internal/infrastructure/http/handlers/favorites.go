package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/application/favorites"
	"github.com/medihort/medihort-ai/internal/domain/favorite"
	"github.com/medihort/medihort-ai/internal/infrastructure/security"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"go.uber.org/zap"
)

// FavoriteHandler manages the caller's favorites
type FavoriteHandler struct {
	favorites inbound.FavoriteService
	logger    *zap.Logger
}

// NewFavoriteHandler creates a new favorites handler
func NewFavoriteHandler(favorites inbound.FavoriteService, logger *zap.Logger) *FavoriteHandler {
	return &FavoriteHandler{
		favorites: favorites,
		logger:    logger.Named("favorite-handler"),
	}
}

// FavoriteListResponse is the body of GET /api/v1/favorites
type FavoriteListResponse struct {
	PlantIDs []uuid.UUID `json:"plant_ids"`
}

// FavoriteStateResponse reports the favorite state after a change
type FavoriteStateResponse struct {
	PlantID   uuid.UUID `json:"plant_id"`
	Favorited bool      `json:"favorited"`
	Title     string    `json:"title,omitempty"`
}

// List handles GET /api/v1/favorites
func (h *FavoriteHandler) List(c *gin.Context) {
	userID, ok := h.caller(c)
	if !ok {
		return
	}

	set, err := h.favorites.ListFavorites(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, FavoriteListResponse{PlantIDs: set.IDs()})
}

// Add handles POST /api/v1/favorites/:plantID
func (h *FavoriteHandler) Add(c *gin.Context) {
	userID, plantID, ok := h.pair(c)
	if !ok {
		return
	}

	if err := h.favorites.Add(c.Request.Context(), userID, plantID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, FavoriteStateResponse{PlantID: plantID, Favorited: true, Title: favorite.Added.Title()})
}

// Remove handles DELETE /api/v1/favorites/:plantID
func (h *FavoriteHandler) Remove(c *gin.Context) {
	userID, plantID, ok := h.pair(c)
	if !ok {
		return
	}

	if err := h.favorites.Remove(c.Request.Context(), userID, plantID); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, FavoriteStateResponse{PlantID: plantID, Favorited: false, Title: favorite.Removed.Title()})
}

// Toggle handles POST /api/v1/favorites/:plantID/toggle
func (h *FavoriteHandler) Toggle(c *gin.Context) {
	userID, plantID, ok := h.pair(c)
	if !ok {
		return
	}

	outcome, err := h.favorites.Toggle(c.Request.Context(), userID, plantID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, FavoriteStateResponse{
		PlantID:   plantID,
		Favorited: outcome.Favorited(),
		Title:     outcome.Title(),
	})
}

func (h *FavoriteHandler) caller(c *gin.Context) (uuid.UUID, bool) {
	userID, ok := security.CurrentUserID(c)
	if !ok {
		respondError(c, h.logger, apperrors.NewAuthenticationRequiredError(favorites.SignInRequiredMessage))
		return uuid.Nil, false
	}
	return userID, true
}

func (h *FavoriteHandler) pair(c *gin.Context) (uuid.UUID, uuid.UUID, bool) {
	userID, ok := h.caller(c)
	if !ok {
		return uuid.Nil, uuid.Nil, false
	}

	plantID, appErr := uuidParam(c, "plantID", "plant")
	if appErr != nil {
		respondError(c, h.logger, appErr)
		return uuid.Nil, uuid.Nil, false
	}
	return userID, plantID, true
}
