package backend

import (
	"context"

	"billbook/internal/core"
	"billbook/internal/storage"
	"billbook/internal/store"
)

// AuthorKeySeeder is implemented by backends with a settings table.
type AuthorKeySeeder interface {
	SeedAuthorKey(ctx context.Context, key string, overwrite bool) (storage.SeedResult, error)
}

// CleanupFunc represents a cleanup function for resources
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Store store.TransactionStore
	// Seeder is nil for backends whose key comes from configuration.
	Seeder  AuthorKeySeeder
	Cleanup CleanupFunc
}

// Close runs Cleanup when set.
func (r *BackendResult) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

// Factory creates backends based on configuration
type Factory interface {
	// CreateBackend creates a backend instance based on the provided config
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	// Backend type
	Type BackendType

	// SQLite specific
	SQLiteDBPath string

	// Postgres specific
	DatabaseURL string

	// Memory specific
	MemoryAuthorKey string
	MemorySeedFile  string

	// Dates resolves seed row dates for the memory backend.
	Dates core.DateNormalizer
}

// BackendType represents the type of backend
type BackendType string

const (
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
	MemoryBackend   BackendType = "memory"
)

// String implements fmt.Stringer
func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case SQLiteBackend, PostgresBackend, MemoryBackend:
		return true
	default:
		return false
	}
}
