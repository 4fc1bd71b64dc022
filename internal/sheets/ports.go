// Package sheets defines the spreadsheet mirror port. The mirror is a
// write-behind copy of the bill table; the store stays authoritative.
package sheets

import (
	"context"

	"billbook/internal/core"
)

// Ports for outbound adapters.
type (
	// TransactionWriter writes one row, keyed by transaction id.
	TransactionWriter interface {
		UpsertTransaction(ctx context.Context, tx core.Transaction) (rowRef string, err error)
	}

	// TransactionReader reads the mirrored rows back.
	TransactionReader interface {
		ReadTransactions(ctx context.Context) ([]core.Transaction, error)
	}

	TransactionMirror interface {
		TransactionWriter
		TransactionReader
	}
)
