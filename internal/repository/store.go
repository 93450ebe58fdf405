package repository

import (
	"context"
	"fmt"

	"github.com/mineos/landing/internal/model"
)

// Store drivers.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Store is implemented by every subscriber persistence backend.
//
// Create enforces email uniqueness atomically and reports a duplicate as
// ErrEmailExists. Failures to reach the backend wrap ErrStoreUnavailable.
type Store interface {
	FindByEmail(ctx context.Context, email string) (*model.Subscriber, error)
	Create(ctx context.Context, email string) (*model.Subscriber, error)
	List(ctx context.Context, cursor string, limit int) ([]*model.Subscriber, string, error)
	Ping(ctx context.Context) error
	Close()
}

// OpenOptions selects and configures a Store backend.
type OpenOptions struct {
	Driver      string
	DatabaseURL string
	SQLitePath  string
}

// Open connects the configured backend and prepares its schema.
func Open(ctx context.Context, opts OpenOptions) (Store, error) {
	switch opts.Driver {
	case DriverMemory, "":
		return NewMemoryStore(), nil
	case DriverPostgres:
		repo, err := New(ctx, opts.DatabaseURL)
		if err != nil {
			return nil, err
		}
		if err := repo.Migrate(ctx); err != nil {
			repo.Close()
			return nil, err
		}
		return repo, nil
	case DriverSQLite:
		return OpenSQLite(ctx, opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
