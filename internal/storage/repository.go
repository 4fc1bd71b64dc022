package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"billbook/internal/core"
	"billbook/internal/log"
	"billbook/internal/store"
)

// Dialect selects SQL flavour and migration set.
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

func (d Dialect) driverName() string {
	if d == DialectPostgres {
		return "pgx"
	}
	return "sqlite"
}

func (d Dialect) placeholder(n int) string {
	if d == DialectPostgres {
		return fmt.Sprintf("$%d", n)
	}
	return "?"
}

// Repository is the SQL implementation of store.TransactionStore.
type Repository struct {
	db      *sql.DB
	dialect Dialect
	logger  *log.Logger
	now     func() time.Time
}

var _ store.TransactionStore = (*Repository)(nil)

func sqliteDSN(path string) string {
	return path + "?_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}

// NewSQLiteRepository opens (creating if needed) the database at dbPath and
// brings its schema up to date.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	dsn := sqliteDSN(dbPath)
	db, err := sql.Open(DialectSQLite.driverName(), dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(DialectSQLite, dsn); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newRepository(db, DialectSQLite, logger), nil
}

// NewPostgresRepository connects to databaseURL through pgx and brings the
// schema up to date.
func NewPostgresRepository(ctx context.Context, databaseURL string, logger *log.Logger) (*Repository, error) {
	db, err := sql.Open(DialectPostgres.driverName(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("open postgres database: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(time.Hour)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	if err := RunMigrations(DialectPostgres, databaseURL); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return newRepository(db, DialectPostgres, logger), nil
}

func newRepository(db *sql.DB, dialect Dialect, logger *log.Logger) *Repository {
	return &Repository{
		db:      db,
		dialect: dialect,
		logger:  logger.WithComponent(log.ComponentStorage),
		now:     time.Now,
	}
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const selectBill = `SELECT id, account, amount, date, description, created_at FROM bill`

// dbTime scans sqlite text timestamps and postgres timestamptz alike.
type dbTime struct {
	text string
	t    time.Time
}

func (v *dbTime) Scan(src any) error {
	switch x := src.(type) {
	case nil:
	case time.Time:
		v.t = x.UTC()
		v.text = v.t.Format(time.RFC3339)
	case string:
		v.text = x
	case []byte:
		v.text = string(x)
	default:
		return fmt.Errorf("unsupported timestamp type %T", src)
	}
	return nil
}

func (v dbTime) time() time.Time {
	if !v.t.IsZero() || v.text == "" {
		return v.t
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, v.text); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

func scanTransaction(scanner interface{ Scan(...any) error }) (core.Transaction, error) {
	var (
		tx          core.Transaction
		id          string
		amount      decimal.Decimal
		date        dbTime
		description sql.NullString
		createdAt   dbTime
	)
	if err := scanner.Scan(&id, &tx.Account, &amount, &date, &description, &createdAt); err != nil {
		return tx, err
	}
	tx.ID = id
	tx.Amount = amount.Round(2)
	tx.Date = date.text
	if description.Valid {
		d := description.String
		tx.Description = &d
	}
	tx.CreatedAt = createdAt.time()
	return tx, nil
}

func (r *Repository) timeArg(t time.Time) any {
	if r.dialect == DialectPostgres {
		return t.UTC()
	}
	return t.UTC().Format(time.RFC3339)
}

// List returns every bill row, latest date first.
func (r *Repository) List(ctx context.Context) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectBill+` ORDER BY date DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	out := make([]core.Transaction, 0)
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, fmt.Errorf("scan transaction: %w", err)
		}
		out = append(out, tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transactions: %w", err)
	}
	return out, nil
}

// Get returns the row with id or store.ErrNotFound.
func (r *Repository) Get(ctx context.Context, id string) (core.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Transaction{}, store.ErrNotFound
	}
	row := r.db.QueryRowContext(ctx, selectBill+` WHERE id = `+r.dialect.placeholder(1), id)
	tx, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, store.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("get transaction: %w", err)
	}
	return tx, nil
}

// Insert stores v under a new UUID.
func (r *Repository) Insert(ctx context.Context, v core.ValidatedTransaction) (core.Transaction, error) {
	id := uuid.NewString()
	ph := r.dialect.placeholder
	query := fmt.Sprintf(`INSERT INTO bill (id, account, amount, date, description, created_at) VALUES (%s, %s, %s, %s, %s, %s)`,
		ph(1), ph(2), ph(3), ph(4), ph(5), ph(6))

	_, err := r.db.ExecContext(ctx, query,
		id, v.Account, v.Amount.StringFixed(2), r.timeArg(v.Date), v.Description, r.timeArg(r.now()))
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}

	r.logger.DebugContext(ctx, "Transaction inserted",
		log.NewFields().WithTransaction(id, v.Account, v.Amount).WithOperation(log.OpCreate).ToSlice()...)
	return r.Get(ctx, id)
}

// Update writes the fields present in p.
func (r *Repository) Update(ctx context.Context, id string, p core.ValidatedPatch) (core.Transaction, error) {
	if _, err := uuid.Parse(id); err != nil {
		return core.Transaction{}, store.ErrNotFound
	}

	var (
		sets []string
		args []any
	)
	set := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, col+" = "+r.dialect.placeholder(len(args)))
	}
	if p.Account != nil {
		set("account", *p.Account)
	}
	if p.Amount != nil {
		set("amount", p.Amount.StringFixed(2))
	}
	if p.Date != nil {
		set("date", r.timeArg(*p.Date))
	}
	if p.ClearDescription {
		sets = append(sets, "description = NULL")
	} else if p.Description != nil {
		set("description", *p.Description)
	}
	if len(sets) == 0 {
		return core.Transaction{}, core.ErrEmptyPatch
	}

	args = append(args, id)
	query := `UPDATE bill SET ` + strings.Join(sets, ", ") + ` WHERE id = ` + r.dialect.placeholder(len(args))
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	if n == 0 {
		return core.Transaction{}, store.ErrNotFound
	}
	return r.Get(ctx, id)
}
