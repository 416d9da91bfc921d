package catalog

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRepository(t *testing.T) *Repository {
	repo, err := NewRepository(filepath.Join(t.TempDir(), "catalog.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	require.NoError(t, repo.RunMigrations("../../migrations"))
	return repo
}

func TestRepository_Entries(t *testing.T) {
	repo := setupTestRepository(t)

	entries, err := repo.Entries(context.Background(), []string{"vein-001", "relic-004", "missing"})

	require.NoError(t, err)
	require.Len(t, entries, 2)

	vein := entries["vein-001"]
	assert.Equal(t, "VEIN hoodie", vein.DisplayName)
	assert.Equal(t, int64(3500), vein.UnitAmount)
	assert.Equal(t, "gbp", vein.Currency)
	require.NotNil(t, vein.Stock)
	assert.Equal(t, 10, *vein.Stock)

	assert.Nil(t, entries["relic-004"].Stock, "relic stock is untracked")
}

func TestRepository_EntriesEmptyKeys(t *testing.T) {
	repo := setupTestRepository(t)

	entries, err := repo.Entries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRepository_CompareAndDecrement(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	require.NoError(t, repo.CompareAndDecrement(ctx, "vein-001", 4))

	entries, err := repo.Entries(ctx, []string{"vein-001"})
	require.NoError(t, err)
	assert.Equal(t, 6, *entries["vein-001"].Stock)
}

func TestRepository_CompareAndDecrement_Insufficient(t *testing.T) {
	repo := setupTestRepository(t)
	ctx := context.Background()

	err := repo.CompareAndDecrement(ctx, "vein-001", 11)
	assert.ErrorIs(t, err, ErrInsufficientStock)

	entries, err := repo.Entries(ctx, []string{"vein-001"})
	require.NoError(t, err)
	assert.Equal(t, 10, *entries["vein-001"].Stock, "failed decrement must not change stock")
}

func TestRepository_CompareAndDecrement_Missing(t *testing.T) {
	repo := setupTestRepository(t)

	err := repo.CompareAndDecrement(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRepository_CompareAndDecrement_Untracked(t *testing.T) {
	repo := setupTestRepository(t)

	assert.NoError(t, repo.CompareAndDecrement(context.Background(), "relic-004", 2))
}
