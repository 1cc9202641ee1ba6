package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Jaylorddeguzman/importer/internal/model"
)

const pgUniqueViolation = "23505"

// PostgresStore keeps records in a shared PostgreSQL database. The pool is a
// long-lived handle used by both the import loop and the HTTP read path.
type PostgresStore struct {
	pool    *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresStore(ctx context.Context, dsn string, timeout time.Duration) (*PostgresStore, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing connection string: %w", err)
	}
	if cfg.MaxConns < 4 {
		cfg.MaxConns = 4
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connecting: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging %s: %w", redact(dsn), err)
	}

	if err := createPostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool, timeout: timeout}, nil
}

func createPostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS places (
			id BIGSERIAL PRIMARY KEY,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			lat DOUBLE PRECISION NOT NULL,
			lng DOUBLE PRECISION NOT NULL,
			address TEXT NOT NULL,
			phone TEXT,
			website TEXT,
			source TEXT NOT NULL,
			osm_type TEXT,
			osm_id BIGINT,
			location TEXT,
			imported_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			CONSTRAINT places_dedup_key UNIQUE (lat, lng, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_places_imported_at ON places (imported_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_places_category ON places (category)`,
	}
	for _, s := range stmts {
		if _, err := pool.Exec(ctx, s); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (s *PostgresStore) Exists(ctx context.Context, key model.DedupKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM places WHERE lat = $1 AND lng = $2 AND name = $3)`,
		key.Lat, key.Lng, key.Name,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("checking existence: %w", err)
	}
	return exists, nil
}

func (s *PostgresStore) Insert(ctx context.Context, rec *model.Record) (InsertOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var id int64
	err := s.pool.QueryRow(ctx, `
		INSERT INTO places
		(name, category, lat, lng, address, phone, website, source, osm_type, osm_id, location, imported_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT ON CONSTRAINT places_dedup_key DO NOTHING
		RETURNING id`,
		rec.Name, rec.Category, rec.Lat, rec.Lng, rec.Address,
		nullable(rec.Phone), nullable(rec.Website), rec.Source,
		nullable(rec.OSMType), rec.OSMID, nullable(rec.Location),
		rec.ImportedAt,
	).Scan(&id)

	var pgErr *pgconn.PgError
	switch {
	case err == nil:
		rec.ID = id
		return Inserted, nil
	case errors.Is(err, pgx.ErrNoRows):
		return DuplicateSkipped, nil
	case errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation:
		return DuplicateSkipped, nil
	default:
		return Failed, fmt.Errorf("inserting record: %w", err)
	}
}

const pgColumns = `id, name, category, lat, lng, address, phone, website, source, osm_type, osm_id, location, imported_at`

func (s *PostgresStore) Recent(ctx context.Context, limit int) ([]model.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.pool.Query(ctx,
		`SELECT `+pgColumns+` FROM places ORDER BY imported_at DESC, id DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent: %w", err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		r, err := scanPostgres(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *PostgresStore) Each(ctx context.Context, fn func(model.Record) error) error {
	rows, err := s.pool.Query(ctx, `SELECT `+pgColumns+` FROM places ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanPostgres(rows)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *PostgresStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var count int64
	err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM places").Scan(&count)
	return count, err
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func scanPostgres(rows pgx.Rows) (model.Record, error) {
	var (
		r                                 model.Record
		phone, website, osmType, location *string
		osmID                             *int64
	)
	err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.Lat, &r.Lng, &r.Address,
		&phone, &website, &r.Source, &osmType, &osmID, &location, &r.ImportedAt)
	if err != nil {
		return r, fmt.Errorf("scanning record: %w", err)
	}
	r.Phone = deref(phone)
	r.Website = deref(website)
	r.OSMType = deref(osmType)
	if osmID != nil {
		r.OSMID = *osmID
	}
	r.Location = deref(location)
	r.ImportedAt = r.ImportedAt.UTC()
	return r, nil
}
