package db_test

import (
	"context"
	"testing"

	"github.com/mythictransfers/supportdesk/internal/db"
	"github.com/mythictransfers/supportdesk/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrate(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	pool := testutil.NewTestDB(t)
	ctx := context.Background()

	t.Run("schema is in place", func(t *testing.T) {
		var exists bool
		err := pool.QueryRow(ctx, `SELECT to_regclass('public.review_items') IS NOT NULL`).Scan(&exists)
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("second run applies nothing", func(t *testing.T) {
		applied, err := db.Migrate(ctx, pool)
		require.NoError(t, err)
		assert.Empty(t, applied)
	})
}

func TestOpen_InvalidURL(t *testing.T) {
	_, err := db.Open(context.Background(), "postgres://%zz")
	assert.Error(t, err)
}
