// Package outbound defines the interfaces for outbound ports (secondary/driven adapters)
package outbound

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/medihort/medihort-ai/internal/domain/plant"
	"github.com/medihort/medihort-ai/internal/domain/user"
)

// ErrCacheMiss is returned by CacheRepository.Get for absent or expired keys
var ErrCacheMiss = errors.New("cache miss")

// PlantRepository reads and maintains the medicinal plant catalog
type PlantRepository interface {
	// List returns every plant ordered by name
	List(ctx context.Context) ([]*plant.Plant, error)
	FindByID(ctx context.Context, id uuid.UUID) (*plant.Plant, error)
	Save(ctx context.Context, p *plant.Plant) error
	Count(ctx context.Context) (int64, error)
}

// FavoriteRepository stores the (user, plant) favorites relation
type FavoriteRepository interface {
	ListPlantIDs(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error)
	Exists(ctx context.Context, userID, plantID uuid.UUID) (bool, error)
	// Add is idempotent and reports whether a row was inserted
	Add(ctx context.Context, userID, plantID uuid.UUID) (bool, error)
	// Remove reports whether a row was deleted
	Remove(ctx context.Context, userID, plantID uuid.UUID) (bool, error)
}

// UserRepository persists accounts
type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	Update(ctx context.Context, u *user.User) error
	FindByID(ctx context.Context, id uuid.UUID) (*user.User, error)
	FindByEmail(ctx context.Context, email string) (*user.User, error)
}

// CacheRepository defines the key/value cache used for insights and token revocation
type CacheRepository interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}
