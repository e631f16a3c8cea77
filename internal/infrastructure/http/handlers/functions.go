package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/infrastructure/security"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"go.uber.org/zap"
)

// FunctionHandler serves the callable AI functions
type FunctionHandler struct {
	insights   inbound.InsightService
	consultant inbound.ConsultantService
	validator  *security.Validator
	logger     *zap.Logger
}

// NewFunctionHandler creates the handler for /functions/v1
func NewFunctionHandler(
	insights inbound.InsightService,
	consultant inbound.ConsultantService,
	validator *security.Validator,
	logger *zap.Logger,
) *FunctionHandler {
	return &FunctionHandler{
		insights:   insights,
		consultant: consultant,
		validator:  validator,
		logger:     logger.Named("functions"),
	}
}

// AnalyzeResponse is the body returned by analyze-plant
type AnalyzeResponse struct {
	Insights string `json:"insights"`
}

// ConsultRequest is the body accepted by ai-plant-consultant
type ConsultRequest struct {
	Message             string         `json:"message" validate:"max=4000,printable"`
	ConversationHistory []chat.Message `json:"conversationHistory" validate:"dive"`
}

// ConsultResponse is the body returned by ai-plant-consultant
type ConsultResponse struct {
	Reply string `json:"reply"`
}

// AnalyzePlant handles POST /functions/v1/analyze-plant
func (h *FunctionHandler) AnalyzePlant(c *gin.Context) {
	var req plant.AnalysisRequest
	if appErr := bindJSON(c, &req); appErr != nil {
		h.fail(c, appErr)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.fail(c, err)
		return
	}

	insights, err := h.insights.AnalyzePlant(c.Request.Context(), req)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, AnalyzeResponse{Insights: insights})
}

// Consult handles POST /functions/v1/ai-plant-consultant
func (h *FunctionHandler) Consult(c *gin.Context) {
	var req ConsultRequest
	if appErr := bindJSON(c, &req); appErr != nil {
		h.fail(c, appErr)
		return
	}
	if err := h.validator.Struct(req); err != nil {
		h.fail(c, err)
		return
	}

	reply, err := h.consultant.Consult(c.Request.Context(), req.Message, req.ConversationHistory)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusOK, ConsultResponse{Reply: reply})
}

func (h *FunctionHandler) fail(c *gin.Context, err error) {
	appErr := apperrors.Wrap(err, "")
	if appErr.StatusCode() >= http.StatusInternalServerError {
		h.logger.Error("Function failed",
			zap.String("path", c.FullPath()),
			zap.String("request_id", c.GetString("request_id")),
			zap.String("details", appErr.Details),
			zap.Error(appErr.Cause),
		)
	}
	_ = c.Error(err)
	AbortFunctionError(c, appErr)
}
