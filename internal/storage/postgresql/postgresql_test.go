package postgresql_test

import (
	"context"
	"strings"
	"testing"

	"polaroida/internal/storage/postgresql"
	"polaroida/internal/storage/postgresql/postgresqltest"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSchemaEmbedded(t *testing.T) {
	ddl := postgresql.Schema()

	for _, table := range []string{"users", "profiles", "albums", "photos", "tags", "photo_tags"} {
		assert.Contains(t, ddl, "CREATE TABLE IF NOT EXISTS "+table)
	}
	assert.True(t, strings.Contains(ddl, "name TEXT NOT NULL UNIQUE"))
}

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	pool := postgresqltest.Setup(t)

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, postgresql.Migrate(ctx, pool))
	})

	t.Run("coordinates must come in pairs", func(t *testing.T) {
		userID := postgresqltest.SeedUser(t, pool, gofakeit.Email())

		_, err := pool.Exec(ctx, `
			INSERT INTO photos (user_id, image_url, storage_path, location_lat)
			VALUES ($1, 'u', 'p', 1.5)`, userID)
		assert.Error(t, err)
	})

	t.Run("tag names are unique", func(t *testing.T) {
		_, err := pool.Exec(ctx, `INSERT INTO tags (name) VALUES ('dup')`)
		require.NoError(t, err)

		_, err = pool.Exec(ctx, `INSERT INTO tags (name) VALUES ('dup')`)
		assert.Error(t, err)
	})
}
