// Package inbound defines the use cases the HTTP adapters drive
package inbound

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/chat"
	"github.com/medihort/medihort-ai/internal/domain/favorite"
	"github.com/medihort/medihort-ai/internal/domain/plant"
)

// CatalogService serves the plant grid
type CatalogService interface {
	ListPlants(ctx context.Context) ([]*plant.Plant, error)
	GetPlant(ctx context.Context, id uuid.UUID) (*plant.Plant, error)
}

// FavoriteService manages a user's favorites
type FavoriteService interface {
	ListFavorites(ctx context.Context, userID uuid.UUID) (favorite.Set, error)
	Toggle(ctx context.Context, userID, plantID uuid.UUID) (favorite.Outcome, error)
	Add(ctx context.Context, userID, plantID uuid.UUID) error
	Remove(ctx context.Context, userID, plantID uuid.UUID) error
}

// InsightService produces AI analysis for a plant
type InsightService interface {
	AnalyzePlant(ctx context.Context, req plant.AnalysisRequest) (string, error)
}

// ConsultantService answers consultant chat turns
type ConsultantService interface {
	Consult(ctx context.Context, message string, history []chat.Message) (string, error)
}

// AccountService signs users in and out
type AccountService interface {
	Register(ctx context.Context, cmd RegisterCommand) (*AuthResult, error)
	SignIn(ctx context.Context, cmd SignInCommand) (*AuthResult, error)
	SignOut(ctx context.Context, token string) error
	Profile(ctx context.Context, userID uuid.UUID) (*UserDTO, error)
}

// RegisterCommand contains account registration data
type RegisterCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Name     string `json:"name" validate:"omitempty,max=100,no_xss,printable"`
	Password string `json:"password" validate:"required,min=8,max=72"`
}

// SignInCommand contains credentials
type SignInCommand struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// UserDTO is the public view of an account
type UserDTO struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// AuthResult is returned after a successful sign-in or registration
type AuthResult struct {
	User        UserDTO   `json:"user"`
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
	ExpiresIn   int64     `json:"expires_in"`
}
