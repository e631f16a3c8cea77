// Package security provides token authentication and request validation
package security

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/infrastructure/config"
	"github.com/medihort/medihort-ai/internal/ports/outbound"
	apperrors "github.com/medihort/medihort-ai/pkg/errors"
	"go.uber.org/zap"
)

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrWrongTokenType = errors.New("unexpected token type")
	ErrTokenRevoked   = errors.New("token has been revoked")
)

// Gin context keys set by AuthMiddleware
const (
	ContextUserID    = "user_id"
	ContextUserEmail = "user_email"
	ContextSessionID = "session_id"
	ContextClaims    = "claims"
)

const revokedPrefix = "revoked_token:"

// TokenType represents different types of JWT tokens
type TokenType string

const (
	AccessToken TokenType = "access"
)

// Claims represents JWT claims structure
type Claims struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	SessionID string    `json:"session_id"`
	TokenType TokenType `json:"token_type"`
	jwt.RegisteredClaims
}

// IssuedToken is a signed token with its parsed claims
type IssuedToken struct {
	Token     string
	Claims    *Claims
	ExpiresAt time.Time
}

// AuthService issues, validates and revokes access tokens
type AuthService struct {
	issuer     string
	expiration time.Duration
	secret     []byte
	revoked    outbound.CacheRepository
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuthService creates a new authentication service. Without a configured
// secret a random one is generated, so tokens do not survive a restart.
func NewAuthService(cfg *config.Config, revoked outbound.CacheRepository, logger *zap.Logger) (*AuthService, error) {
	secret := []byte(cfg.Auth.JWTSecret)
	if len(secret) == 0 {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("failed to generate jwt secret: %w", err)
		}
		secret = []byte(hex.EncodeToString(buf))
		logger.Warn("auth.jwt_secret is not set; using an ephemeral secret")
	}

	expiration := cfg.Auth.JWTExpiration
	if expiration <= 0 {
		expiration = 24 * time.Hour
	}

	return &AuthService{
		issuer:     cfg.Auth.JWTIssuer,
		expiration: expiration,
		secret:     secret,
		revoked:    revoked,
		logger:     logger.Named("auth"),
		now:        time.Now,
	}, nil
}

// GenerateAccessToken signs a new access token for a fresh session
func (a *AuthService) GenerateAccessToken(userID uuid.UUID, email string) (*IssuedToken, error) {
	now := a.now()
	expiresAt := now.Add(a.expiration)

	claims := &Claims{
		UserID:    userID.String(),
		Email:     email,
		SessionID: uuid.NewString(),
		TokenType: AccessToken,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    a.issuer,
			Subject:   userID.String(),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			NotBefore: jwt.NewNumericDate(now),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(a.secret)
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &IssuedToken{Token: signed, Claims: claims, ExpiresAt: expiresAt}, nil
}

// ValidateToken parses the token and rejects expired, mistyped and revoked ones
func (a *AuthService) ValidateToken(ctx context.Context, tokenString string, expectedType TokenType) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return a.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(a.issuer),
		jwt.WithTimeFunc(a.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.TokenType != expectedType {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrWrongTokenType, expectedType, claims.TokenType)
	}

	revoked, err := a.revoked.Exists(ctx, revokedPrefix+claims.ID)
	if err != nil {
		a.logger.Warn("Failed to check token revocation", zap.Error(err))
		return nil, fmt.Errorf("failed to check token revocation: %w", err)
	}
	if revoked {
		return nil, ErrTokenRevoked
	}

	return claims, nil
}

// RevokeToken blocks the token id until the token would have expired anyway
func (a *AuthService) RevokeToken(ctx context.Context, claims *Claims) error {
	ttl := time.Minute
	if claims.ExpiresAt != nil {
		if remaining := claims.ExpiresAt.Time.Sub(a.now()); remaining > 0 {
			ttl = remaining
		}
	}

	if err := a.revoked.Set(ctx, revokedPrefix+claims.ID, []byte("revoked"), ttl); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}

	a.logger.Info("Token revoked",
		zap.String("user_id", claims.UserID),
		zap.String("session_id", claims.SessionID),
	)
	return nil
}

// BearerToken extracts the token from an Authorization header value
func BearerToken(header string) (string, bool) {
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

// AuthMiddleware requires a valid bearer access token
func (a *AuthService) AuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := BearerToken(c.GetHeader("Authorization"))
		if !ok {
			abortUnauthorized(c, "Authorization header required")
			return
		}

		claims, err := a.ValidateToken(c.Request.Context(), token, AccessToken)
		if err != nil {
			a.logger.Info("Token validation failed",
				zap.Error(err),
				zap.String("ip", c.ClientIP()),
			)
			abortUnauthorized(c, "Invalid or expired token")
			return
		}

		c.Set(ContextUserID, claims.UserID)
		c.Set(ContextUserEmail, claims.Email)
		c.Set(ContextSessionID, claims.SessionID)
		c.Set(ContextClaims, claims)

		c.Next()
	}
}

// CurrentUserID returns the authenticated user id set by AuthMiddleware
func CurrentUserID(c *gin.Context) (uuid.UUID, bool) {
	raw := c.GetString(ContextUserID)
	if raw == "" {
		return uuid.Nil, false
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, false
	}
	return id, true
}

// CurrentClaims returns the claims set by AuthMiddleware
func CurrentClaims(c *gin.Context) (*Claims, bool) {
	v, ok := c.Get(ContextClaims)
	if !ok {
		return nil, false
	}
	claims, ok := v.(*Claims)
	return claims, ok
}

func abortUnauthorized(c *gin.Context, message string) {
	appErr := apperrors.NewUnauthorizedError(message)
	c.AbortWithStatusJSON(http.StatusUnauthorized, apperrors.ToErrorResponse(appErr, c.GetString("request_id")))
}
