package services

import (
	"context"
	"fmt"
	"time"

	"billbook/internal/access"
	"billbook/internal/amqp"
	"billbook/internal/core"
	"billbook/internal/log"
	"billbook/internal/store"
)

// Listing reasons added on top of the gate's.
const (
	ReasonStoreError access.Reason = "store_error"
	ReasonEmpty      access.Reason = "empty"
)

// PublishTimeout bounds how long a write waits on the event publisher.
const PublishTimeout = 2 * time.Second

// EventPublisher announces written transactions. *amqp.Client implements it.
type EventPublisher interface {
	PublishTransactionEvent(ctx context.Context, event amqp.TransactionEvent) error
}

// Listing is the row set a view is built from.
type Listing struct {
	Transactions []core.Transaction
	Sample       bool
	Reason       access.Reason
}

// TransactionService orchestrates reads and writes across the gate, the
// store and the event publisher.
type TransactionService struct {
	gate      access.Authorizer
	store     store.TransactionStore
	publisher EventPublisher
	dates     core.DateNormalizer
	logger    *log.Logger
	events    *log.StructuredLogger

	publishTimeout time.Duration
}

// NewTransactionService wires the service. publisher may be nil.
func NewTransactionService(gate access.Authorizer, st store.TransactionStore, publisher EventPublisher, dates core.DateNormalizer, logger *log.Logger) *TransactionService {
	return &TransactionService{
		gate:      gate,
		store:     st,
		publisher: publisher,
		dates:     dates,
		logger:    logger.WithComponent(log.ComponentTransaction),
		events:    log.NewStructuredLogger(logger),

		publishTimeout: PublishTimeout,
	}
}

// Dates returns the normalizer used for validation and labels.
func (s *TransactionService) Dates() core.DateNormalizer {
	return s.dates
}

// List never fails: visitors, store outages and an empty table all get the
// sample data set.
func (s *TransactionService) List(ctx context.Context, key string) Listing {
	decision := s.gate.Resolve(ctx, key)
	if decision.UseSample {
		return s.sample(ctx, decision.Reason)
	}

	txs, err := s.store.List(ctx)
	if err != nil {
		s.logger.WarnContext(ctx, "Transaction listing failed, serving sample data",
			log.FieldOperation, log.OpList,
			log.FieldError, err)
		return s.sample(ctx, ReasonStoreError)
	}
	if len(txs) == 0 {
		return s.sample(ctx, ReasonEmpty)
	}

	return Listing{Transactions: txs, Reason: decision.Reason}
}

func (s *TransactionService) sample(ctx context.Context, reason access.Reason) Listing {
	s.logger.DebugContext(ctx, "Serving sample data", log.NewFields().WithSource(true, string(reason)).ToSlice()...)
	return Listing{
		Transactions: core.SampleTransactions(s.dates.CurrentTime()),
		Sample:       true,
		Reason:       reason,
	}
}

// Create validates and inserts a transaction for an author.
func (s *TransactionService) Create(ctx context.Context, key string, in core.NewTransaction) (core.Transaction, error) {
	if err := s.gate.RequireWrite(ctx, key); err != nil {
		return core.Transaction{}, err
	}

	valid, err := in.Validate(s.dates)
	if err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.store.Insert(ctx, valid)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	s.events.LogTransactionWritten(ctx, log.OpCreate, tx.ID, tx.Account, tx.Amount)
	s.publish(ctx, tx.ID, amqp.EventCreated)
	return tx, nil
}

// Update applies a partial update for an author.
func (s *TransactionService) Update(ctx context.Context, key, id string, patch core.TransactionPatch) (core.Transaction, error) {
	if err := s.gate.RequireWrite(ctx, key); err != nil {
		return core.Transaction{}, err
	}

	valid, err := patch.Validate(s.dates)
	if err != nil {
		return core.Transaction{}, err
	}

	tx, err := s.store.Update(ctx, id, valid)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction %s: %w", id, err)
	}

	s.events.LogTransactionWritten(ctx, log.OpUpdate, tx.ID, tx.Account, tx.Amount)
	s.publish(ctx, tx.ID, amqp.EventUpdated)
	return tx, nil
}

// publish is best effort: the row is already stored, so a publisher that
// does not answer within publishTimeout is abandoned and the write returns.
func (s *TransactionService) publish(ctx context.Context, id string, kind amqp.EventKind) {
	if s.publisher == nil {
		s.logger.DebugContext(ctx, "No event publisher configured, skipping event",
			log.FieldTransactionID, id,
			log.FieldEventKind, kind)
		return
	}

	pubCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.publishTimeout)
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- s.publisher.PublishTransactionEvent(pubCtx, amqp.NewTransactionEvent(id, kind))
	}()

	var err error
	select {
	case err = <-done:
	case <-pubCtx.Done():
		err = fmt.Errorf("publish %s event: %w", kind, pubCtx.Err())
	}
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish transaction event",
			log.FieldTransactionID, id,
			log.FieldEventKind, kind,
			log.FieldOperation, log.OpPublish,
			log.FieldError, err)
	}
}

// Ping reports store reachability for readiness probes.
func (s *TransactionService) Ping(ctx context.Context) error {
	if p, ok := s.store.(store.Pinger); ok {
		return p.Ping(ctx)
	}
	return nil
}
