package history

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Record is one row in the generations table: a background that was
// generated, approved, and saved.
type Record struct {
	ID            int64
	CorrelationID string // session correlation ID from the logs
	Prompt        string
	Service       string
	ImagePath     string
	ImageSize     int64
	ImageFormat   string
	Width         int
	Height        int
	Attempts      int // regeneration rounds it took to get an approved image
	CreatedAt     time.Time
}

// Store provides access to the generation history.
type Store struct {
	db *sql.DB
}

// NewStore wraps an open, migrated database handle.
func NewStore(db *sql.DB) *Store {
	return &Store{db: db}
}

// Open opens (creating if needed) and migrates the history database at path,
// returning a ready Store. Close releases the underlying handle.
func Open(path string) (*Store, error) {
	db, err := OpenDatabase(DefaultConnectionConfig(path))
	if err != nil {
		return nil, err
	}
	if err := Migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return NewStore(db), nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Insert records a saved generation and returns its assigned ID.
func (s *Store) Insert(ctx context.Context, rec *Record) (int64, error) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	result, err := s.db.ExecContext(ctx, `
		INSERT INTO generations (
			correlation_id, prompt, service, image_path, image_size,
			image_format, width, height, attempts, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.CorrelationID, rec.Prompt, rec.Service, rec.ImagePath, rec.ImageSize,
		rec.ImageFormat, rec.Width, rec.Height, rec.Attempts, rec.CreatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("history: insert record: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("history: get insert id: %w", err)
	}
	rec.ID = id
	return id, nil
}

// Recent returns the most recent records, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, correlation_id, prompt, service, image_path, image_size,
		       image_format, width, height, attempts, created_at
		FROM generations
		ORDER BY created_at DESC, id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: query recent: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		if err := rows.Scan(
			&rec.ID, &rec.CorrelationID, &rec.Prompt, &rec.Service,
			&rec.ImagePath, &rec.ImageSize, &rec.ImageFormat,
			&rec.Width, &rec.Height, &rec.Attempts, &rec.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("history: scan record: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("history: iterate records: %w", err)
	}
	return records, nil
}

// Prune deletes records older than the cutoff and returns how many were
// removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM generations WHERE created_at < ?`, olderThan)
	if err != nil {
		return 0, fmt.Errorf("history: prune records: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("history: count pruned rows: %w", err)
	}
	return n, nil
}

// CountByService returns how many saved generations each service produced.
func (s *Store) CountByService(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT service, COUNT(*) FROM generations GROUP BY service`)
	if err != nil {
		return nil, fmt.Errorf("history: count by service: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var service string
		var n int64
		if err := rows.Scan(&service, &n); err != nil {
			return nil, fmt.Errorf("history: scan count: %w", err)
		}
		counts[service] = n
	}
	return counts, rows.Err()
}
