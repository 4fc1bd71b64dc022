package memory

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billbook/internal/core"
	"billbook/internal/store"
)

func dates() core.DateNormalizer {
	return core.DateNormalizer{
		Now:      func() time.Time { return time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC) },
		Location: time.UTC,
	}
}

func validated(t *testing.T, account, amount, date string) core.ValidatedTransaction {
	t.Helper()
	v, err := core.NewTransaction{Account: account, Amount: core.RawAmount(amount), Date: date}.Validate(dates())
	require.NoError(t, err)
	return v
}

func TestMemoryStoreInsertListUpdate(t *testing.T) {
	ctx := context.Background()
	s := New("secret", dates())

	older, err := s.Insert(ctx, validated(t, "A", "10", "2024-01-01"))
	require.NoError(t, err)
	_, err = s.Insert(ctx, validated(t, "B", "20", "2024-02-01"))
	require.NoError(t, err)

	list, err := s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "B", list[0].Account, "newest date first")

	amount := decimal.RequireFromString("12.5")
	desc := "fixed"
	updated, err := s.Update(ctx, older.ID, core.ValidatedPatch{Amount: &amount, Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Account)
	assert.True(t, updated.Amount.Equal(amount))
	require.NotNil(t, updated.Description)
	assert.Equal(t, "fixed", *updated.Description)

	cleared, err := s.Update(ctx, older.ID, core.ValidatedPatch{ClearDescription: true})
	require.NoError(t, err)
	assert.Nil(t, cleared.Description)

	_, err = s.Update(ctx, "missing", core.ValidatedPatch{Amount: &amount})
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.Get(ctx, "missing")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := New("secret", dates())
	desc := "orig"
	v := validated(t, "A", "1", "2024-01-01")
	v.Description = &desc
	tx, err := s.Insert(ctx, v)
	require.NoError(t, err)

	*tx.Description = "mutated"
	got, err := s.Get(ctx, tx.ID)
	require.NoError(t, err)
	assert.Equal(t, "orig", *got.Description, "store must not leak its pointers")
}

func TestMemoryStoreValidateKey(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		configured string
		key        string
		ok         bool
	}{
		{"secret", "secret", true},
		{"secret", "nope", false},
		{"secret", "", false},
		{"", "", false},
		{"", "anything", false},
	}
	for _, tc := range cases {
		ok, err := New(tc.configured, dates()).ValidateKey(ctx, tc.key)
		require.NoError(t, err)
		assert.Equal(t, tc.ok, ok, "configured=%q key=%q", tc.configured, tc.key)
	}
}

func TestNewFromFileSeedsLegacyRows(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewFromFile(filepath.Join(dir, "missing.json"), "k", dates())
	require.NoError(t, err)
	list, err := s.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, list, "missing file gives an empty store")

	path := filepath.Join(dir, "seed.json")
	seed := `[
		{"银行名称": "工商银行", "消费金额": "¥199.99", "消费时间": "03月01日10:00", "消费用途": "购物"},
		{"account": "招商银行", "amount": 88.5, "date": "2024-02-01T08:00:00Z"}
	]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o644))

	s, err = NewFromFile(path, "k", dates())
	require.NoError(t, err)
	list, err = s.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "工商银行", list[0].Account)
	assert.Equal(t, "2024-03-01T10:00:00Z", list[0].Date)

	require.NoError(t, os.WriteFile(path, []byte(`[{"account": "x", "amount": "abc", "date": "2024-01-01"}]`), 0o644))
	_, err = NewFromFile(path, "k", dates())
	assert.Error(t, err, "invalid seed row")
}
