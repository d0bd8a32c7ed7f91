// Package sqlstore is the embedded SQLite adapter of the finance and user
// stores, used when no Supabase project is configured.
package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/infra/resilience"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel"
	"go.uber.org/zap"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var tracer = otel.Tracer("sqlstore")

func init() {
	// sqlx only knows the cgo driver name.
	sqlx.BindDriver("sqlite", sqlx.QUESTION)
}

// BackendName labels metrics and errors produced by this adapter.
const BackendName = "sqlite"

// Store implements port.FinanceStore and port.UserStore on SQLite.
type Store struct {
	db     *sqlx.DB
	guard  *resilience.Guard
	logger *zap.Logger
}

// Open opens or creates the database at path and applies the schema.
func Open(ctx context.Context, path string, guard *resilience.Guard, logger *zap.Logger) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("creating database dir: %w", err)
		}
	}

	dsn := path + "?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)&_pragma=busy_timeout(5000)"
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	db.SetConnMaxIdleTime(5 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pinging database: %w", err)
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite store ready", zap.String("path", path))
	return &Store{db: db, guard: guard, logger: logger}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Name implements port.FinanceStore.
func (s *Store) Name() string { return BackendName }

// Ping implements port.FinanceStore.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// exec runs fn behind the guard, classifying driver errors first so that
// only transient failures are retried.
func (s *Store) exec(ctx context.Context, op string, fn func(context.Context) error) error {
	err := s.guard.Do(ctx, func(ctx context.Context) error {
		return classify(fn(ctx))
	})
	if err == nil {
		return nil
	}

	var (
		notFound *domain.ErrNotFound
		conflict *domain.ErrConflict
		open     *domain.ErrCircuitOpen
	)
	switch {
	case errors.As(err, &notFound), errors.As(err, &conflict), errors.As(err, &open):
		return err
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return err
	}
	s.logger.Error("sqlite: operation failed", zap.String("op", op), zap.Error(err))
	return &domain.ErrExternalService{Service: fmt.Sprintf("%s/%s", BackendName, op), Err: err}
}

// classify marks errors retrying cannot fix. Busy and locked databases
// stay retryable.
func classify(err error) error {
	if err == nil {
		return nil
	}
	var notFound *domain.ErrNotFound
	if errors.As(err, &notFound) {
		return resilience.Permanent(err)
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return resilience.Permanent(&domain.ErrConflict{Message: "resource already exists"})
		}
		// extended codes keep the primary code in the low byte
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED:
			return err
		}
	}
	return resilience.Permanent(err)
}

// notFoundIfNoRows maps sql.ErrNoRows onto the domain error.
func notFoundIfNoRows(err error, resource, id string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return err
}

// requireAffected turns a zero-row write into ErrNotFound.
func requireAffected(res sql.Result, resource, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return &domain.ErrNotFound{Resource: resource, ID: id}
	}
	return nil
}

// stamp fills in the identity columns for new rows.
func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}

// inTx runs fn in a transaction, rolling back on error.
func (s *Store) inTx(ctx context.Context, fn func(*sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}
