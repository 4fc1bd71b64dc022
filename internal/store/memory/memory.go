package memory

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"billbook/internal/adapters"
	"billbook/internal/core"
	"billbook/internal/store"
)

// Store keeps bill rows in process memory. The author key comes from
// configuration instead of a settings table.
type Store struct {
	mu        sync.Mutex
	authorKey string
	dates     core.DateNormalizer
	now       func() time.Time
	items     []core.Transaction
}

// New returns an empty store accepting authorKey. An empty authorKey
// rejects every key.
func New(authorKey string, dates core.DateNormalizer) *Store {
	return &Store{authorKey: authorKey, dates: dates, now: time.Now}
}

// NewFromFile returns a store seeded from a JSON array of rows. Rows may use
// canonical or legacy field names. A missing file yields an empty store.
func NewFromFile(path, authorKey string, dates core.DateNormalizer) (*Store, error) {
	s := New(authorKey, dates)
	if path == "" {
		return s, nil
	}
	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var rows []map[string]any
	if err := json.Unmarshal(raw, &rows); err != nil {
		return nil, fmt.Errorf("decode seed file: %w", err)
	}
	for i, row := range rows {
		v, err := adapters.DecodeRow(row).Validate(dates)
		if err != nil {
			return nil, fmt.Errorf("seed row %d: %w", i, err)
		}
		if _, err := s.Insert(context.Background(), v); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// List returns a copy of all rows, latest date first.
func (s *Store) List(_ context.Context) ([]core.Transaction, error) {
	s.mu.Lock()
	out := make([]core.Transaction, len(s.items))
	for i, tx := range s.items {
		out[i] = clone(tx)
	}
	s.mu.Unlock()

	sort.SliceStable(out, func(i, j int) bool {
		ti, _ := s.dates.Parse(out[i].Date)
		tj, _ := s.dates.Parse(out[j].Date)
		return ti.After(tj)
	})
	return out, nil
}

// Get returns the row with id.
func (s *Store) Get(_ context.Context, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, store.ErrNotFound
	}
	return clone(s.items[i]), nil
}

// Insert stores the row under a fresh UUID.
func (s *Store) Insert(_ context.Context, v core.ValidatedTransaction) (core.Transaction, error) {
	tx := core.Transaction{
		ID:          uuid.NewString(),
		Account:     v.Account,
		Amount:      v.Amount,
		Date:        v.Date.UTC().Format(time.RFC3339),
		Description: v.Description,
		CreatedAt:   s.now().UTC(),
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = append(s.items, tx)
	return clone(tx), nil
}

// Update applies the non-nil fields of patch.
func (s *Store) Update(_ context.Context, id string, p core.ValidatedPatch) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.indexOf(id)
	if i < 0 {
		return core.Transaction{}, store.ErrNotFound
	}
	tx := &s.items[i]
	if p.Account != nil {
		tx.Account = *p.Account
	}
	if p.Amount != nil {
		tx.Amount = *p.Amount
	}
	if p.Date != nil {
		tx.Date = p.Date.UTC().Format(time.RFC3339)
	}
	if p.ClearDescription {
		tx.Description = nil
	} else if p.Description != nil {
		d := *p.Description
		tx.Description = &d
	}
	return clone(*tx), nil
}

// ValidateKey compares key with the configured author key.
func (s *Store) ValidateKey(_ context.Context, key string) (bool, error) {
	if s.authorKey == "" || strings.TrimSpace(key) == "" {
		return false, nil
	}
	return subtle.ConstantTimeCompare([]byte(key), []byte(s.authorKey)) == 1, nil
}

func (s *Store) indexOf(id string) int {
	for i := range s.items {
		if s.items[i].ID == id {
			return i
		}
	}
	return -1
}

func clone(tx core.Transaction) core.Transaction {
	if tx.Description != nil {
		d := *tx.Description
		tx.Description = &d
	}
	return tx
}
