package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billbook/internal/core"
	"billbook/internal/log"
	"billbook/internal/store"
)

func newTestRepo(t *testing.T) *Repository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "db", "billbook.db"), log.Discard())
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func validated(t *testing.T, account, amount, date string, desc *string) core.ValidatedTransaction {
	t.Helper()
	dates := core.DateNormalizer{Location: time.UTC}
	v, err := core.NewTransaction{Account: account, Amount: core.RawAmount(amount), Date: date, Description: desc}.Validate(dates)
	require.NoError(t, err)
	return v
}

func TestRepositoryInsertAndList(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	list, err := repo.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	food := "餐饮"
	first, err := repo.Insert(ctx, validated(t, "招商银行", "88.5", "2024-01-15T10:30:00Z", &food))
	require.NoError(t, err)
	_, err = repo.Insert(ctx, validated(t, "工商银行", "199.99", "2024-03-01T08:00:00+08:00", nil))
	require.NoError(t, err)

	assert.NotEmpty(t, first.ID)
	assert.Equal(t, "88.50", core.FormatAmount(first.Amount))
	assert.Equal(t, "2024-01-15T10:30:00Z", first.Date)
	require.NotNil(t, first.Description)
	assert.Equal(t, "餐饮", *first.Description)
	assert.False(t, first.CreatedAt.IsZero())

	list, err = repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "工商银行", list[0].Account, "latest date first")
	assert.Equal(t, "2024-03-01T00:00:00Z", list[0].Date)
	assert.Nil(t, list[0].Description)
	assert.True(t, list[0].Amount.Equal(decimal.RequireFromString("199.99")))
}

func TestRepositoryUpdate(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	desc := "old"
	tx, err := repo.Insert(ctx, validated(t, "A", "10", "2024-01-01T00:00:00Z", &desc))
	require.NoError(t, err)

	account := "B"
	amount := decimal.RequireFromString("12.34")
	updated, err := repo.Update(ctx, tx.ID, core.ValidatedPatch{Account: &account, Amount: &amount})
	require.NoError(t, err)
	assert.Equal(t, "B", updated.Account)
	assert.Equal(t, "12.34", core.FormatAmount(updated.Amount))
	assert.Equal(t, tx.Date, updated.Date)
	require.NotNil(t, updated.Description)

	updated, err = repo.Update(ctx, tx.ID, core.ValidatedPatch{ClearDescription: true})
	require.NoError(t, err)
	assert.Nil(t, updated.Description)

	when := time.Date(2024, 2, 2, 0, 0, 0, 0, time.UTC)
	updated, err = repo.Update(ctx, tx.ID, core.ValidatedPatch{Date: &when})
	require.NoError(t, err)
	assert.Equal(t, "2024-02-02T00:00:00Z", updated.Date)

	_, err = repo.Update(ctx, tx.ID, core.ValidatedPatch{})
	assert.ErrorIs(t, err, core.ErrEmptyPatch)
}

func TestRepositoryNotFound(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	account := "x"

	_, err := repo.Get(ctx, "not-a-uuid")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.Get(ctx, "5b1f8f3e-8a43-4f7e-9c55-0d0b7c1e2f10")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = repo.Update(ctx, "5b1f8f3e-8a43-4f7e-9c55-0d0b7c1e2f10", core.ValidatedPatch{Account: &account})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestRepositoryAuthorKey(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	ok, err := repo.ValidateKey(ctx, "secret")
	require.NoError(t, err)
	assert.False(t, ok, "no key seeded yet")

	res, err := repo.SeedAuthorKey(ctx, "secret", false)
	require.NoError(t, err)
	assert.Equal(t, SeedCreated, res)

	res, err = repo.SeedAuthorKey(ctx, "other", false)
	require.NoError(t, err)
	assert.Equal(t, SeedKept, res)

	ok, err = repo.ValidateKey(ctx, "secret")
	require.NoError(t, err)
	assert.True(t, ok)

	res, err = repo.SeedAuthorKey(ctx, "rotated", true)
	require.NoError(t, err)
	assert.Equal(t, SeedUpdated, res)

	for key, want := range map[string]bool{"secret": false, "rotated": true, "": false} {
		ok, err := repo.ValidateKey(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, want, ok, "key %q", key)
	}

	_, err = repo.SeedAuthorKey(ctx, " ", true)
	assert.Error(t, err)
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "billbook.db")
	first, err := NewSQLiteRepository(path, log.Discard())
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewSQLiteRepository(path, log.Discard())
	require.NoError(t, err)
	require.NoError(t, second.Ping(context.Background()))
	require.NoError(t, second.Close())
}
