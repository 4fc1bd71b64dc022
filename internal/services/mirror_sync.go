package services

import (
	"context"
	"errors"
	"fmt"

	"billbook/internal/amqp"
	"billbook/internal/core"
	"billbook/internal/log"
	"billbook/internal/sheets"
	"billbook/internal/store"
)

// ReconcileResult summarizes one full mirror pass.
type ReconcileResult struct {
	Checked  int
	Upserted int
	Failed   int
}

// MirrorSync copies bill rows from the store to the spreadsheet mirror.
type MirrorSync struct {
	store  store.TransactionReader
	mirror sheets.TransactionMirror
	logger *log.Logger
}

func NewMirrorSync(st store.TransactionReader, mirror sheets.TransactionMirror, logger *log.Logger) *MirrorSync {
	return &MirrorSync{
		store:  st,
		mirror: mirror,
		logger: logger.WithComponent(log.ComponentWorker),
	}
}

// HandleEvent mirrors the row named by event. A row that no longer exists is
// acknowledged; any other failure is returned so the event is redelivered.
func (m *MirrorSync) HandleEvent(ctx context.Context, event amqp.TransactionEvent) error {
	tx, err := m.store.Get(ctx, event.ID)
	if errors.Is(err, store.ErrNotFound) {
		m.logger.WarnContext(ctx, "Event for unknown transaction, skipping",
			log.FieldTransactionID, event.ID,
			log.FieldEventKind, event.Kind)
		return nil
	}
	if err != nil {
		return fmt.Errorf("get transaction %s: %w", event.ID, err)
	}

	ref, err := m.mirror.UpsertTransaction(ctx, tx)
	if err != nil {
		return fmt.Errorf("upsert transaction %s: %w", event.ID, err)
	}

	m.logger.InfoContext(ctx, "Mirrored transaction",
		log.FieldTransactionID, tx.ID,
		log.FieldEventKind, event.Kind,
		"sheets_ref", ref)
	return nil
}

// Reconcile upserts every store row that is missing from the mirror or
// differs from it. Individual failures are counted, not fatal.
func (m *MirrorSync) Reconcile(ctx context.Context) (ReconcileResult, error) {
	txs, err := m.store.List(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("list transactions: %w", err)
	}
	mirrored, err := m.mirror.ReadTransactions(ctx)
	if err != nil {
		return ReconcileResult{}, fmt.Errorf("read mirror: %w", err)
	}

	byID := make(map[string]core.Transaction, len(mirrored))
	for _, tx := range mirrored {
		byID[tx.ID] = tx
	}

	res := ReconcileResult{Checked: len(txs)}
	for _, tx := range txs {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		if cur, ok := byID[tx.ID]; ok && sameRow(cur, tx) {
			continue
		}
		if _, err := m.mirror.UpsertTransaction(ctx, tx); err != nil {
			res.Failed++
			m.logger.WarnContext(ctx, "Reconcile upsert failed",
				log.FieldTransactionID, tx.ID,
				log.FieldError, err)
			continue
		}
		res.Upserted++
	}

	m.logger.InfoContext(ctx, "Mirror reconciled",
		log.FieldOperation, log.OpReconcile,
		"checked", res.Checked,
		"upserted", res.Upserted,
		"failed", res.Failed)
	return res, nil
}

func sameRow(a, b core.Transaction) bool {
	return a.Account == b.Account &&
		a.Amount.Equal(b.Amount) &&
		a.Date == b.Date &&
		description(a) == description(b)
}

func description(tx core.Transaction) string {
	if tx.Description == nil {
		return ""
	}
	return *tx.Description
}
