package storage

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Jaylorddeguzman/importer/internal/model"
)

// SQLiteStore keeps records in a local SQLite file.
type SQLiteStore struct {
	db      *sql.DB
	timeout time.Duration
}

func NewSQLiteStore(path string, timeout time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", withPragmas(path))
	if err != nil {
		return nil, fmt.Errorf("opening db: %w", err)
	}
	// one connection: pragmas are per-connection and :memory: databases are too
	db.SetMaxOpenConns(1)

	if err := createSQLiteSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, timeout: timeout}, nil
}

func withPragmas(path string) string {
	pragmas := []string{
		"_pragma=journal_mode(WAL)",
		"_pragma=synchronous(NORMAL)",
		"_pragma=busy_timeout(5000)",
	}
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + strings.Join(pragmas, "&")
}

func createSQLiteSchema(db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS places (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			name TEXT NOT NULL,
			category TEXT NOT NULL,
			lat REAL NOT NULL,
			lng REAL NOT NULL,
			address TEXT NOT NULL,
			phone TEXT,
			website TEXT,
			source TEXT NOT NULL,
			osm_type TEXT,
			osm_id INTEGER,
			location TEXT,
			imported_at INTEGER NOT NULL,
			UNIQUE(lat, lng, name)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_places_imported_at ON places(imported_at)`,
		`CREATE INDEX IF NOT EXISTS idx_places_category ON places(category)`,
	}
	for _, s := range stmts {
		if _, err := db.Exec(s); err != nil {
			return fmt.Errorf("creating schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Exists(ctx context.Context, key model.DedupKey) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var one int
	err := s.db.QueryRowContext(ctx,
		`SELECT 1 FROM places WHERE lat = ? AND lng = ? AND name = ? LIMIT 1`,
		key.Lat, key.Lng, key.Name,
	).Scan(&one)
	switch {
	case err == sql.ErrNoRows:
		return false, nil
	case err != nil:
		return false, fmt.Errorf("checking existence: %w", err)
	}
	return true, nil
}

func (s *SQLiteStore) Insert(ctx context.Context, rec *model.Record) (InsertOutcome, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	res, err := s.db.ExecContext(ctx, `
		INSERT INTO places
		(name, category, lat, lng, address, phone, website, source, osm_type, osm_id, location, imported_at)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(lat, lng, name) DO NOTHING`,
		rec.Name, rec.Category, rec.Lat, rec.Lng, rec.Address,
		nullable(rec.Phone), nullable(rec.Website), rec.Source,
		nullable(rec.OSMType), rec.OSMID, nullable(rec.Location),
		rec.ImportedAt.UTC().UnixMilli(),
	)
	if err != nil {
		return Failed, fmt.Errorf("inserting record: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return Failed, fmt.Errorf("reading rows affected: %w", err)
	}
	if n == 0 {
		return DuplicateSkipped, nil
	}
	if id, err := res.LastInsertId(); err == nil {
		rec.ID = id
	}
	return Inserted, nil
}

const sqliteColumns = `id, name, category, lat, lng, address, phone, website, source, osm_type, osm_id, location, imported_at`

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]model.Record, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteColumns+` FROM places ORDER BY imported_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent: %w", err)
	}
	defer rows.Close()

	records := []model.Record{}
	for rows.Next() {
		r, err := scanSQLite(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	return records, rows.Err()
}

func (s *SQLiteStore) Each(ctx context.Context, fn func(model.Record) error) error {
	rows, err := s.db.QueryContext(ctx, `SELECT `+sqliteColumns+` FROM places ORDER BY id`)
	if err != nil {
		return fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanSQLite(rows)
		if err != nil {
			return err
		}
		if err := fn(r); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	var count int64
	err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM places").Scan(&count)
	return count, err
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func scanSQLite(rows *sql.Rows) (model.Record, error) {
	var (
		r                                 model.Record
		phone, website, osmType, location *string
		osmID                             sql.NullInt64
		importedAt                        int64
	)
	err := rows.Scan(&r.ID, &r.Name, &r.Category, &r.Lat, &r.Lng, &r.Address,
		&phone, &website, &r.Source, &osmType, &osmID, &location, &importedAt)
	if err != nil {
		return r, fmt.Errorf("scanning record: %w", err)
	}
	r.Phone = deref(phone)
	r.Website = deref(website)
	r.OSMType = deref(osmType)
	r.OSMID = osmID.Int64
	r.Location = deref(location)
	r.ImportedAt = time.UnixMilli(importedAt).UTC()
	return r, nil
}
