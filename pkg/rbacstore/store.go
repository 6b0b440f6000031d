package rbacstore

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/authengine/pkg/rbac"
)

// Migrations holds the goose migrations creating the schema this store reads.
//
//go:embed migrations/*.sql
var Migrations embed.FS

// MigrationsDir is the directory inside Migrations that holds the files.
const MigrationsDir = "migrations"

var _ rbac.Store = (*Store)(nil)

// querier is the subset shared by *sql.DB and *sql.Tx.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements rbac.Store on PostgreSQL through database/sql, normally
// backed by the pgx stdlib driver (see pg.OpenDB).
type Store struct {
	db  *sql.DB
	q   querier
	tx  bool
	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithClock overrides the clock used for created_at and updated_at.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a Store. It panics if db is nil.
func New(db *sql.DB, opts ...Option) *Store {
	if db == nil {
		panic("rbacstore: db cannot be nil")
	}
	s := &Store{db: db, q: db, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithTx runs fn in a transaction. Calls nested inside fn join the outer
// transaction.
func (s *Store) WithTx(ctx context.Context, fn func(tx rbac.Store) error) error {
	if s.tx {
		return fn(s)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	if err := fn(&Store{db: s.db, q: tx, tx: true, now: s.now}); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return errors.Join(err, rbErr)
		}
		return err
	}
	return tx.Commit()
}

func (s *Store) timestamp() time.Time {
	return s.now().UTC()
}

func newID(id uuid.UUID) uuid.UUID {
	if id == uuid.Nil {
		return uuid.New()
	}
	return id
}
