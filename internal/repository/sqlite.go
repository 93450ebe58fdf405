package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/mineos/landing/internal/model"
)

const createSubscribersTable = `
CREATE TABLE IF NOT EXISTS subscribers (
	id TEXT PRIMARY KEY,
	email TEXT NOT NULL,
	email_key TEXT NOT NULL UNIQUE,
	created_at TEXT NOT NULL
);
`

// errSQLiteClosed is reported for calls made after Close.
var errSQLiteClosed = errors.New("sqlite store closed")

// SQLiteStore is a single-file Store for small deployments.
type SQLiteStore struct {
	db     *sql.DB
	closed atomic.Bool
}

// OpenSQLite opens (or creates) the database at path and ensures the schema exists.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create db dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	// sqlite serializes writers anyway
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if _, err := db.ExecContext(ctx, createSubscribersTable); err != nil {
		db.Close()
		return nil, fmt.Errorf("create subscribers table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// FindByEmail retrieves a subscriber by email, ignoring case.
func (s *SQLiteStore) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	if err := s.ensureOpen("find subscriber by email"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT id, email, created_at FROM subscribers WHERE email_key = ?`,
		model.EmailKey(email),
	)

	sub, err := scanSQLiteSubscriber(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrSubscriberNotFound
		}
		return nil, s.classifyError("find subscriber by email", err)
	}
	return sub, nil
}

// Create inserts a new subscriber. The UNIQUE email_key column rejects duplicates.
func (s *SQLiteStore) Create(ctx context.Context, email string) (*model.Subscriber, error) {
	if err := s.ensureOpen("insert subscriber"); err != nil {
		return nil, err
	}

	sub := model.NewSubscriber(email, time.Now())

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO subscribers (id, email, email_key, created_at) VALUES (?, ?, ?, ?)`,
		sub.ID,
		sub.Email,
		sub.Key(),
		sub.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		if isSQLiteUnique(err) {
			return nil, ErrEmailExists
		}
		return nil, s.classifyError("insert subscriber", err)
	}

	return sub, nil
}

// List returns subscribers newest first, starting after cursor.
func (s *SQLiteStore) List(ctx context.Context, cursor string, limit int) ([]*model.Subscriber, string, error) {
	if err := s.ensureOpen("list subscribers"); err != nil {
		return nil, "", err
	}

	afterID, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, email, created_at FROM subscribers
WHERE ? = '' OR id < ?
ORDER BY id DESC
LIMIT ?`,
		afterID, afterID, limit+1,
	)
	if err != nil {
		return nil, "", s.classifyError("list subscribers", err)
	}
	defer rows.Close()

	var subs []*model.Subscriber
	for rows.Next() {
		sub, err := scanSQLiteSubscriber(rows)
		if err != nil {
			return nil, "", fmt.Errorf("scan subscriber: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate subscribers: %w", err)
	}

	return paginate(subs, limit)
}

// Ping checks the database file is usable.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	if err := s.ensureOpen("ping"); err != nil {
		return err
	}
	return s.db.PingContext(ctx)
}

// Close closes the database handle. Later calls fail with ErrStoreUnavailable.
func (s *SQLiteStore) Close() {
	if s.closed.Swap(true) {
		return
	}
	_ = s.db.Close()
}

func (s *SQLiteStore) ensureOpen(op string) error {
	if s.closed.Load() {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, errSQLiteClosed)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSQLiteSubscriber(row rowScanner) (*model.Subscriber, error) {
	var (
		sub       model.Subscriber
		createdAt string
	)
	if err := row.Scan(&sub.ID, &sub.Email, &createdAt); err != nil {
		return nil, err
	}

	ts, err := time.Parse(time.RFC3339Nano, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	sub.CreatedAt = ts.UTC()

	return &sub, nil
}

func isSQLiteUnique(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE ||
		se.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
}

// classifyError marks I/O, locking and closed-handle failures as
// ErrStoreUnavailable.
func (s *SQLiteStore) classifyError(op string, err error) error {
	if s.closed.Load() || errors.Is(err, sql.ErrConnDone) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
	}

	var se *sqlite.Error
	if errors.As(err, &se) {
		switch se.Code() & 0xff {
		case sqlite3.SQLITE_BUSY, sqlite3.SQLITE_LOCKED, sqlite3.SQLITE_IOERR,
			sqlite3.SQLITE_CANTOPEN, sqlite3.SQLITE_FULL, sqlite3.SQLITE_READONLY,
			sqlite3.SQLITE_NOTADB:
			return fmt.Errorf("%s: %w: %w", op, ErrStoreUnavailable, err)
		}
	}

	return fmt.Errorf("%s: %w", op, err)
}
