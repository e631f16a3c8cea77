package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	"go.uber.org/zap"
)

// PlantHandler serves the plant catalog
type PlantHandler struct {
	catalog inbound.CatalogService
	logger  *zap.Logger
}

// NewPlantHandler creates a new catalog handler
func NewPlantHandler(catalog inbound.CatalogService, logger *zap.Logger) *PlantHandler {
	return &PlantHandler{
		catalog: catalog,
		logger:  logger.Named("plant-handler"),
	}
}

// PlantListResponse is the body of GET /api/v1/plants
type PlantListResponse struct {
	Plants []*plant.Plant `json:"plants"`
	Count  int            `json:"count"`
}

// List handles GET /api/v1/plants
func (h *PlantHandler) List(c *gin.Context) {
	plants, err := h.catalog.ListPlants(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	if plants == nil {
		plants = []*plant.Plant{}
	}
	c.JSON(http.StatusOK, PlantListResponse{Plants: plants, Count: len(plants)})
}

// Get handles GET /api/v1/plants/:id
func (h *PlantHandler) Get(c *gin.Context) {
	id, appErr := uuidParam(c, "id", "plant")
	if appErr != nil {
		respondError(c, h.logger, appErr)
		return
	}

	p, err := h.catalog.GetPlant(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, p)
}
