package services

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"billbook/internal/access"
	"billbook/internal/amqp"
	"billbook/internal/core"
	"billbook/internal/log"
	"billbook/internal/store"
	"billbook/internal/store/memory"
)

const authorKey = "secret"

var fixedNow = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

func testDates() core.DateNormalizer {
	return core.DateNormalizer{Now: func() time.Time { return fixedNow }, Location: time.UTC}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []amqp.TransactionEvent
	err    error
}

func (p *fakePublisher) PublishTransactionEvent(_ context.Context, ev amqp.TransactionEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.events = append(p.events, ev)
	return nil
}

// stalledPublisher never answers until released, like a broker that drops
// packets during a reconnect.
type stalledPublisher struct {
	release chan struct{}
}

func (p stalledPublisher) PublishTransactionEvent(context.Context, amqp.TransactionEvent) error {
	<-p.release
	return nil
}

// brokenStore fails listing while keeping key validation working.
type brokenStore struct {
	*memory.Store
}

func (brokenStore) List(context.Context) ([]core.Transaction, error) {
	return nil, errors.New("connection reset")
}

func (brokenStore) Insert(context.Context, core.ValidatedTransaction) (core.Transaction, error) {
	return core.Transaction{}, errors.New("disk full")
}

func newTestService(st store.TransactionStore, pub EventPublisher) *TransactionService {
	gate := access.NewGate(st, log.Discard())
	return NewTransactionService(gate, st, pub, testDates(), log.Discard())
}

func strPtr(s string) *string { return &s }

func seed(t *testing.T, st *memory.Store, account, amount, date string, desc *string) core.Transaction {
	t.Helper()
	v, err := core.NewTransaction{Account: account, Amount: core.RawAmount(amount), Date: date, Description: desc}.Validate(testDates())
	require.NoError(t, err)
	tx, err := st.Insert(context.Background(), v)
	require.NoError(t, err)
	return tx
}

func TestTransactionService_List(t *testing.T) {
	ctx := context.Background()

	t.Run("no key serves sample", func(t *testing.T) {
		st := memory.New(authorKey, testDates())
		seed(t, st, "Bank", "10", "2024-03-01", nil)

		l := newTestService(st, nil).List(ctx, "")
		assert.True(t, l.Sample)
		assert.Equal(t, access.ReasonNoKey, l.Reason)
		assert.Len(t, l.Transactions, 3)
		assert.Equal(t, "sample-1", l.Transactions[0].ID)
	})

	t.Run("invalid key serves sample", func(t *testing.T) {
		st := memory.New(authorKey, testDates())
		l := newTestService(st, nil).List(ctx, "wrong")
		assert.True(t, l.Sample)
		assert.Equal(t, access.ReasonInvalidKey, l.Reason)
	})

	t.Run("empty store serves sample", func(t *testing.T) {
		st := memory.New(authorKey, testDates())
		l := newTestService(st, nil).List(ctx, authorKey)
		assert.True(t, l.Sample)
		assert.Equal(t, ReasonEmpty, l.Reason)
	})

	t.Run("store error serves sample", func(t *testing.T) {
		st := brokenStore{memory.New(authorKey, testDates())}
		l := newTestService(st, nil).List(ctx, authorKey)
		assert.True(t, l.Sample)
		assert.Equal(t, ReasonStoreError, l.Reason)
		assert.Len(t, l.Transactions, 3)
	})

	t.Run("valid key serves real rows newest first", func(t *testing.T) {
		st := memory.New(authorKey, testDates())
		seed(t, st, "Bank", "10", "2024-03-01", nil)
		seed(t, st, "Bank", "20", "2024-03-10", strPtr("Food"))

		l := newTestService(st, nil).List(ctx, authorKey)
		assert.False(t, l.Sample)
		assert.Equal(t, access.ReasonValidKey, l.Reason)
		require.Len(t, l.Transactions, 2)
		assert.Equal(t, "20.00", core.FormatAmount(l.Transactions[0].Amount))
	})
}

func TestTransactionService_Create(t *testing.T) {
	ctx := context.Background()
	in := core.NewTransaction{
		Account:     " 招商银行 ",
		Amount:      "¥1,234.567",
		Date:        "03月14日12:30",
		Description: strPtr("  "),
	}

	t.Run("requires a valid key", func(t *testing.T) {
		st := memory.New(authorKey, testDates())
		pub := &fakePublisher{}
		svc := newTestService(st, pub)

		for _, key := range []string{"", "wrong"} {
			_, err := svc.Create(ctx, key, in)
			assert.ErrorIs(t, err, access.ErrAuthorKeyRequired)
		}
		txs, _ := st.List(ctx)
		assert.Empty(t, txs)
		assert.Empty(t, pub.events)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc := newTestService(memory.New(authorKey, testDates()), nil)

		_, err := svc.Create(ctx, authorKey, core.NewTransaction{Amount: "1", Date: "2024-01-01"})
		assert.ErrorIs(t, err, core.ErrEmptyAccount)
		assert.True(t, core.IsValidationError(err))

		_, err = svc.Create(ctx, authorKey, core.NewTransaction{Account: "A", Amount: "abc", Date: "2024-01-01"})
		assert.ErrorIs(t, err, core.ErrInvalidAmount)

		_, err = svc.Create(ctx, authorKey, core.NewTransaction{Account: "A", Amount: "1", Date: "yesterday"})
		assert.ErrorIs(t, err, core.ErrInvalidDate)
	})

	t.Run("stores canonical values and publishes", func(t *testing.T) {
		st := memory.New(authorKey, testDates())
		pub := &fakePublisher{}
		svc := newTestService(st, pub)

		tx, err := svc.Create(ctx, authorKey, in)
		require.NoError(t, err)
		assert.NotEmpty(t, tx.ID)
		assert.Equal(t, "招商银行", tx.Account)
		assert.Equal(t, "1234.57", core.FormatAmount(tx.Amount))
		assert.Equal(t, "2024-03-14T12:30:00Z", tx.Date)
		assert.Nil(t, tx.Description)

		require.Len(t, pub.events, 1)
		assert.Equal(t, tx.ID, pub.events[0].ID)
		assert.Equal(t, amqp.EventCreated, pub.events[0].Kind)
	})

	t.Run("publish failure does not fail the write", func(t *testing.T) {
		st := memory.New(authorKey, testDates())
		svc := newTestService(st, &fakePublisher{err: errors.New("broker down")})

		_, err := svc.Create(ctx, authorKey, in)
		require.NoError(t, err)
		txs, _ := st.List(ctx)
		assert.Len(t, txs, 1)
	})

	t.Run("stalled publisher does not hold the write", func(t *testing.T) {
		st := memory.New(authorKey, testDates())
		pub := stalledPublisher{release: make(chan struct{})}
		t.Cleanup(func() { close(pub.release) })
		svc := newTestService(st, pub)
		svc.publishTimeout = 20 * time.Millisecond

		start := time.Now()
		tx, err := svc.Create(ctx, authorKey, in)
		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)

		stored, err := st.Get(ctx, tx.ID)
		require.NoError(t, err)
		assert.Equal(t, tx.ID, stored.ID)

		start = time.Now()
		_, err = svc.Update(ctx, authorKey, tx.ID, core.TransactionPatch{Account: strPtr("Other")})
		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)
	})

	t.Run("store failure surfaces", func(t *testing.T) {
		st := brokenStore{memory.New(authorKey, testDates())}
		pub := &fakePublisher{}
		_, err := newTestService(st, pub).Create(ctx, authorKey, in)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "disk full")
		assert.False(t, core.IsValidationError(err))
		assert.Empty(t, pub.events)
	})
}

func TestTransactionService_Update(t *testing.T) {
	ctx := context.Background()
	st := memory.New(authorKey, testDates())
	pub := &fakePublisher{}
	svc := newTestService(st, pub)
	orig := seed(t, st, "Bank", "10", "2024-03-01", strPtr("Food"))

	_, err := svc.Update(ctx, "", orig.ID, core.TransactionPatch{Account: strPtr("X")})
	assert.ErrorIs(t, err, access.ErrAuthorKeyRequired)

	_, err = svc.Update(ctx, authorKey, orig.ID, core.TransactionPatch{})
	assert.ErrorIs(t, err, core.ErrEmptyPatch)

	_, err = svc.Update(ctx, authorKey, "missing", core.TransactionPatch{Account: strPtr("X")})
	assert.ErrorIs(t, err, store.ErrNotFound)

	amount := core.RawAmount("42.005")
	tx, err := svc.Update(ctx, authorKey, orig.ID, core.TransactionPatch{Amount: &amount, ClearDescription: true})
	require.NoError(t, err)
	assert.Equal(t, "Bank", tx.Account)
	assert.Equal(t, "42.01", core.FormatAmount(tx.Amount))
	assert.Nil(t, tx.Description)

	require.Len(t, pub.events, 1)
	assert.Equal(t, amqp.EventUpdated, pub.events[0].Kind)
	assert.Equal(t, orig.ID, pub.events[0].ID)
}

func TestTransactionService_Ping(t *testing.T) {
	svc := newTestService(memory.New(authorKey, testDates()), nil)
	assert.NoError(t, svc.Ping(context.Background()))
}
