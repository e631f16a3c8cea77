package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/medihort/medihort-ai/internal/infrastructure/security"
	"github.com/medihort/medihort-ai/internal/ports/inbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"go.uber.org/zap"
)

// AuthHandler handles account and session endpoints
type AuthHandler struct {
	accounts inbound.AccountService
	logger   *zap.Logger
}

// NewAuthHandler creates a new authentication handler
func NewAuthHandler(accounts inbound.AccountService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		accounts: accounts,
		logger:   logger.Named("auth-handler"),
	}
}

// Register handles POST /api/v1/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var cmd inbound.RegisterCommand
	if appErr := bindJSON(c, &cmd); appErr != nil {
		respondError(c, h.logger, appErr)
		return
	}

	result, err := h.accounts.Register(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, result)
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var cmd inbound.SignInCommand
	if appErr := bindJSON(c, &cmd); appErr != nil {
		respondError(c, h.logger, appErr)
		return
	}

	result, err := h.accounts.SignIn(c.Request.Context(), cmd)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Logout handles POST /api/v1/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	token, ok := security.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		respondError(c, h.logger, apperrors.NewUnauthorizedError("Authorization header required"))
		return
	}

	if err := h.accounts.SignOut(c.Request.Context(), token); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Signed out successfully"})
}

// Session handles GET /api/v1/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	userID, ok := security.CurrentUserID(c)
	if !ok {
		respondError(c, h.logger, apperrors.NewUnauthorizedError(""))
		return
	}

	profile, err := h.accounts.Profile(c.Request.Context(), userID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	resp := gin.H{"user": profile}
	if claims, ok := security.CurrentClaims(c); ok && claims.ExpiresAt != nil {
		resp["expires_at"] = claims.ExpiresAt.Time
	}
	c.JSON(http.StatusOK, resp)
}
