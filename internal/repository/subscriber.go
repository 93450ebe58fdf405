package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/mineos/landing/internal/model"
)

// uniqueViolation is the PostgreSQL SQLSTATE for unique_violation.
const uniqueViolation = "23505"

// FindByEmail retrieves a subscriber by email, ignoring case.
func (r *Repository) FindByEmail(ctx context.Context, email string) (*model.Subscriber, error) {
	query := `
		SELECT id, email, created_at
		FROM subscribers
		WHERE email_key = $1
	`

	var sub model.Subscriber
	err := r.pool.QueryRow(ctx, query, model.EmailKey(email)).Scan(
		&sub.ID,
		&sub.Email,
		&sub.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSubscriberNotFound
		}
		return nil, classifyPgError("find subscriber by email", err)
	}

	sub.CreatedAt = sub.CreatedAt.UTC()
	return &sub, nil
}

// Create inserts a new subscriber and returns the stored row.
// The unique constraint on email_key makes concurrent duplicates fail
// with ErrEmailExists.
func (r *Repository) Create(ctx context.Context, email string) (*model.Subscriber, error) {
	query := `
		INSERT INTO subscribers (id, email, email_key, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, email, created_at
	`

	sub := model.NewSubscriber(email, time.Now())

	var stored model.Subscriber
	err := r.pool.QueryRow(ctx, query,
		sub.ID,
		sub.Email,
		sub.Key(),
		sub.CreatedAt,
	).Scan(
		&stored.ID,
		&stored.Email,
		&stored.CreatedAt,
	)

	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrEmailExists
		}
		return nil, classifyPgError("create subscriber", err)
	}

	stored.CreatedAt = stored.CreatedAt.UTC()
	return &stored, nil
}

// List returns subscribers newest first, starting after cursor.
// The returned cursor is empty on the last page.
func (r *Repository) List(ctx context.Context, cursor string, limit int) ([]*model.Subscriber, string, error) {
	afterID, err := decodeCursor(cursor)
	if err != nil {
		return nil, "", err
	}

	query := `
		SELECT id, email, created_at
		FROM subscribers
		WHERE $1 = '' OR id < $1
		ORDER BY id DESC
		LIMIT $2
	`

	// Fetch one extra to determine whether another page exists
	rows, err := r.pool.Query(ctx, query, afterID, limit+1)
	if err != nil {
		return nil, "", classifyPgError("list subscribers", err)
	}
	defer rows.Close()

	var subs []*model.Subscriber
	for rows.Next() {
		var sub model.Subscriber
		if err := rows.Scan(&sub.ID, &sub.Email, &sub.CreatedAt); err != nil {
			return nil, "", fmt.Errorf("failed to scan subscriber: %w", err)
		}
		sub.CreatedAt = sub.CreatedAt.UTC()
		subs = append(subs, &sub)
	}

	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("error iterating subscribers: %w", err)
	}

	return paginate(subs, limit)
}

// isUniqueViolation checks if the error is a PostgreSQL unique constraint violation.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

// classifyPgError wraps err with ErrStoreUnavailable unless the server
// answered with a SQL error, which means it was reachable.
func classifyPgError(op string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	return fmt.Errorf("failed to %s: %w: %w", op, ErrStoreUnavailable, err)
}

// paginate trims a limit+1 result set and derives the next cursor.
func paginate(subs []*model.Subscriber, limit int) ([]*model.Subscriber, string, error) {
	if len(subs) <= limit {
		return subs, "", nil
	}
	subs = subs[:limit]
	return subs, encodeCursor(subs[len(subs)-1].ID), nil
}
