package favorite

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RequiresUser(t *testing.T) {
	_, err := New(uuid.Nil, uuid.New())
	assert.ErrorIs(t, err, ErrAuthenticationRequired)

	f, err := New(uuid.New(), uuid.New())
	require.NoError(t, err)
	assert.False(t, f.CreatedAt.IsZero())
}

func TestOutcome(t *testing.T) {
	assert.True(t, Added.Favorited())
	assert.Equal(t, "Added to favorites", Added.Title())
	assert.False(t, Removed.Favorited())
	assert.Equal(t, "Removed from favorites", Removed.Title())
}

func TestSet(t *testing.T) {
	a, b := uuid.New(), uuid.New()
	s := NewSet(a)

	assert.True(t, s.Has(a))
	assert.False(t, s.Has(b))

	s.Add(b)
	s.Add(b)
	assert.Equal(t, 2, s.Len())
	assert.Len(t, s.IDs(), 2)

	s.Remove(a)
	assert.False(t, s.Has(a))
	assert.Equal(t, []uuid.UUID{b}, s.IDs())
}
