// Package handlers provides the gin handlers of the platform API
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/infrastructure/http/middleware"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"go.uber.org/zap"
)

// respondError renders err with the standard error envelope. Unknown
// errors become internal errors so their text never reaches the client.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	appErr := apperrors.Wrap(err, "")
	if appErr.StatusCode() >= http.StatusInternalServerError {
		logger.Error("Request failed",
			zap.String("request_id", c.GetString("request_id")),
			zap.String("code", string(appErr.Code)),
			zap.String("details", appErr.Details),
			zap.Error(appErr.Cause),
		)
	}
	_ = c.Error(err)
	middleware.AbortWithError(c, appErr)
}

// AbortFunctionError renders the flat {"error": message} shape used by the
// callable AI functions.
func AbortFunctionError(c *gin.Context, err *apperrors.AppError) {
	c.AbortWithStatusJSON(err.StatusCode(), gin.H{"error": err.Message})
}

func bindJSON(c *gin.Context, dst interface{}) *apperrors.AppError {
	if err := c.ShouldBindJSON(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperrors.NewPayloadTooLargeError(tooLarge.Limit)
		}
		return apperrors.NewBadRequestError("Invalid JSON payload").WithDetails(err.Error())
	}
	return nil
}

func uuidParam(c *gin.Context, name, label string) (uuid.UUID, *apperrors.AppError) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		return uuid.Nil, apperrors.NewBadRequestError("Invalid " + label + " ID")
	}
	return id, nil
}
