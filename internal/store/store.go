package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/marketpulse/trendchat/internal/config"
)

// ErrUnavailable marks failures caused by the backend being unreachable.
var ErrUnavailable = errors.New("store unavailable")

var errNoTrends = errors.New("no trend items to insert")

// ConnectionError is returned by Connect when the backend could not be
// reached within the configured timeout.
type ConnectionError struct {
	Backend string
	Err     error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s store: %v", e.Backend, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

func (e *ConnectionError) Is(target error) bool { return target == ErrUnavailable }

// Store owns the messages and trends collections.
type Store interface {
	InsertMessage(ctx context.Context, msg Message) error
	ListMessages(ctx context.Context) ([]Message, error)
	DeleteAllMessages(ctx context.Context) error

	InsertTrends(ctx context.Context, items []TrendItem) error
	ListTrends(ctx context.Context) ([]TrendItem, error)
	DeleteTrendsOlderThan(ctx context.Context, cutoff time.Time) (int64, error)

	Close(ctx context.Context) error
}

// Connect opens the backend selected by cfg.StoreBackend and verifies it is
// reachable within cfg.StoreConnectTimeout.
func Connect(ctx context.Context, cfg *config.Config) (Store, error) {
	ctx, cancel := context.WithTimeout(ctx, cfg.StoreConnectTimeout)
	defer cancel()

	switch cfg.StoreBackend {
	case config.BackendMongo:
		s, err := NewMongoStore(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.MessagesCollection, cfg.TrendsCollection, cfg.StoreConnectTimeout)
		if err != nil {
			return nil, &ConnectionError{Backend: config.BackendMongo, Err: err}
		}
		return s, nil
	case config.BackendSQLite:
		s, err := NewSQLiteStore(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, &ConnectionError{Backend: config.BackendSQLite, Err: err}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unsupported store backend %q", cfg.StoreBackend)
	}
}
