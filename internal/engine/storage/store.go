package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/Jaylorddeguzman/importer/internal/model"
)

// DefaultTimeout bounds every single store call made on behalf of the importer.
const DefaultTimeout = 10 * time.Second

// InsertOutcome is the tagged result of an insert.
type InsertOutcome int

const (
	Inserted InsertOutcome = iota
	DuplicateSkipped
	Failed
)

func (o InsertOutcome) String() string {
	switch o {
	case Inserted:
		return "inserted"
	case DuplicateSkipped:
		return "duplicate"
	default:
		return "failed"
	}
}

// Store is the durable deduplication boundary for imported records. All
// implementations are safe for concurrent use.
type Store interface {
	// Exists reports whether a record with the same dedup key is stored.
	Exists(ctx context.Context, key model.DedupKey) (bool, error)
	// Insert stores a record. A uniqueness conflict yields DuplicateSkipped with
	// a nil error; any other failure yields Failed and the cause.
	Insert(ctx context.Context, rec *model.Record) (InsertOutcome, error)
	// Recent returns up to limit records, newest first.
	Recent(ctx context.Context, limit int) ([]model.Record, error)
	// Each streams every stored record in insertion order.
	Each(ctx context.Context, fn func(model.Record) error) error
	Count(ctx context.Context) (int64, error)
	Close() error
}

// Open picks a backend from the connection string: postgres:// and
// postgresql:// URLs use PostgreSQL, sqlite:// and file: use SQLite.
func Open(ctx context.Context, dsn string, timeout time.Duration) (Store, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	switch {
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return NewPostgresStore(ctx, dsn, timeout)
	case strings.HasPrefix(dsn, "sqlite://"):
		return NewSQLiteStore(strings.TrimPrefix(dsn, "sqlite://"), timeout)
	case strings.HasPrefix(dsn, "file:"):
		return NewSQLiteStore(dsn, timeout)
	default:
		return nil, fmt.Errorf("unsupported connection string scheme in %q", redact(dsn))
	}
}

// redact hides credentials in a connection string before it is logged.
func redact(dsn string) string {
	scheme, rest, ok := strings.Cut(dsn, "://")
	if !ok {
		return dsn
	}
	at := strings.LastIndex(rest, "@")
	if at < 0 {
		return dsn
	}
	return scheme + "://***@" + rest[at+1:]
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
