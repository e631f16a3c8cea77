// Package favorite models the user-to-plant bookmark relation
package favorite

import (
	"errors"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrAuthenticationRequired is returned when a favorite is toggled without a user
var ErrAuthenticationRequired = errors.New("please sign in to save favorites")

// Favorite pairs a user with a plant. Existence is the only state.
type Favorite struct {
	UserID    uuid.UUID `json:"user_id"`
	PlantID   uuid.UUID `json:"plant_id"`
	CreatedAt time.Time `json:"created_at"`
}

// New creates a favorite for the pair
func New(userID, plantID uuid.UUID) (*Favorite, error) {
	if userID == uuid.Nil {
		return nil, ErrAuthenticationRequired
	}
	return &Favorite{UserID: userID, PlantID: plantID, CreatedAt: time.Now()}, nil
}

// Outcome is the state a toggle left behind
type Outcome string

const (
	Added   Outcome = "added"
	Removed Outcome = "removed"
)

// Favorited reports whether the plant is a favorite after the toggle
func (o Outcome) Favorited() bool {
	return o == Added
}

// Title is the notification headline shown for the outcome
func (o Outcome) Title() string {
	if o == Added {
		return "Added to favorites"
	}
	return "Removed from favorites"
}

// Set holds the plant ids a user has favorited
type Set map[uuid.UUID]struct{}

// NewSet builds a set from plant ids
func NewSet(ids ...uuid.UUID) Set {
	s := make(Set, len(ids))
	for _, id := range ids {
		s[id] = struct{}{}
	}
	return s
}

// Has reports membership
func (s Set) Has(id uuid.UUID) bool {
	_, ok := s[id]
	return ok
}

// Add inserts id
func (s Set) Add(id uuid.UUID) {
	s[id] = struct{}{}
}

// Remove deletes id
func (s Set) Remove(id uuid.UUID) {
	delete(s, id)
}

// Len returns the number of favorites
func (s Set) Len() int {
	return len(s)
}

// IDs returns the members in a stable order
func (s Set) IDs() []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}
