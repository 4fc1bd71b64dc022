package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// AuthorKeySetting is the app_settings key holding the author key.
const AuthorKeySetting = "author_key"

// SeedResult reports what SeedAuthorKey did.
type SeedResult string

const (
	SeedCreated SeedResult = "created"
	SeedUpdated SeedResult = "updated"
	SeedKept    SeedResult = "kept"
)

// ValidateKey reports whether key matches the stored author key. The stored
// value never leaves the database.
func (r *Repository) ValidateKey(ctx context.Context, key string) (bool, error) {
	if strings.TrimSpace(key) == "" {
		return false, nil
	}

	var (
		ok  bool
		err error
	)
	switch r.dialect {
	case DialectPostgres:
		err = r.db.QueryRowContext(ctx, `SELECT validate_author_key($1)`, key).Scan(&ok)
	default:
		err = r.db.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM app_settings WHERE key = ? AND value = ?)`,
			AuthorKeySetting, key).Scan(&ok)
	}
	if err != nil {
		return false, fmt.Errorf("validate author key: %w", err)
	}
	return ok, nil
}

// SeedAuthorKey stores key when none exists, or replaces the existing one
// when overwrite is set.
func (r *Repository) SeedAuthorKey(ctx context.Context, key string, overwrite bool) (SeedResult, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("author key must not be empty")
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	ph := r.dialect.placeholder
	var existing string
	err = tx.QueryRowContext(ctx, `SELECT value FROM app_settings WHERE key = `+ph(1), AuthorKeySetting).Scan(&existing)

	var result SeedResult
	switch {
	case errors.Is(err, sql.ErrNoRows):
		_, err = tx.ExecContext(ctx,
			`INSERT INTO app_settings (key, value, created_at) VALUES (`+ph(1)+`, `+ph(2)+`, `+ph(3)+`)`,
			AuthorKeySetting, key, r.timeArg(r.now()))
		result = SeedCreated
	case err != nil:
		return "", fmt.Errorf("read author key: %w", err)
	case overwrite:
		_, err = tx.ExecContext(ctx,
			`UPDATE app_settings SET value = `+ph(1)+` WHERE key = `+ph(2),
			key, AuthorKeySetting)
		result = SeedUpdated
	default:
		return SeedKept, nil
	}
	if err != nil {
		return "", fmt.Errorf("write author key: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}

	r.logger.InfoContext(ctx, "Author key seeded", "result", string(result))
	return result, nil
}
