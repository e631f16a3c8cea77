package migrations

import (
	"io/fs"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailable_OrderedAndNamed(t *testing.T) {
	migs, err := Available()
	require.NoError(t, err)
	require.Len(t, migs, 3)

	assert.Equal(t, Migration{Version: 1, Name: "create_users"}, migs[0])
	assert.Equal(t, Migration{Version: 2, Name: "create_medicinal_plants"}, migs[1])
	assert.Equal(t, Migration{Version: 3, Name: "create_user_favorites"}, migs[2])
}

func TestEmbeddedMigrations_HaveDownFiles(t *testing.T) {
	entries, err := fs.ReadDir(sqlFiles, "sql")
	require.NoError(t, err)

	names := map[string]bool{}
	for _, e := range entries {
		names[e.Name()] = true
	}
	for name := range names {
		if strings.HasSuffix(name, ".up.sql") {
			assert.True(t, names[strings.TrimSuffix(name, ".up.sql")+".down.sql"], name)
		}
	}
}

func TestFavoritesMigration_UsesCompositeKey(t *testing.T) {
	body, err := fs.ReadFile(sqlFiles, "sql/000003_create_user_favorites.up.sql")
	require.NoError(t, err)
	assert.Contains(t, string(body), "PRIMARY KEY (user_id, plant_id)")
}
