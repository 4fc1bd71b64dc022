// Package store defines the transaction persistence port shared by the
// sqlite, postgres and memory backends.
package store

import (
	"context"
	"errors"

	"billbook/internal/core"
)

// ErrNotFound is returned when no bill row has the requested id.
var ErrNotFound = errors.New("transaction not found")

type (
	// TransactionReader lists bill rows, newest date first.
	TransactionReader interface {
		List(ctx context.Context) ([]core.Transaction, error)
		Get(ctx context.Context, id string) (core.Transaction, error)
	}

	// TransactionWriter persists validated input.
	TransactionWriter interface {
		Insert(ctx context.Context, tx core.ValidatedTransaction) (core.Transaction, error)
		Update(ctx context.Context, id string, patch core.ValidatedPatch) (core.Transaction, error)
	}

	// KeyValidator checks an author key without revealing the stored one.
	KeyValidator interface {
		ValidateKey(ctx context.Context, key string) (bool, error)
	}

	// TransactionStore is the full port.
	TransactionStore interface {
		TransactionReader
		TransactionWriter
		KeyValidator
	}

	// Pinger is implemented by stores with a remote connection.
	Pinger interface {
		Ping(ctx context.Context) error
	}
)
