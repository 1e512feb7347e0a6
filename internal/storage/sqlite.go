package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // SQLite driver registration.

	"lbpress/internal/model"
	"lbpress/migrations"
)

const timeLayout = "2006-01-02T15:04:05Z"

// SQLite implements Storage backed by a SQLite database.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at dsn and runs pending migrations.
func NewSQLite(dsn string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("set WAL mode: %w", err)
	}

	if err := migrations.Run(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Insert writes a record, silently dropping it when the (title, year) key
// already exists. Each write commits individually; the unique constraint,
// not transaction scope, is the dedup defense.
func (s *SQLite) Insert(ctx context.Context, rec model.ReviewRecord) (bool, error) {
	var rating sql.NullFloat64
	if rec.Rating != nil {
		rating = sql.NullFloat64{Float64: *rec.Rating, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO reviews (id, title, ts, link, body, year, rating, spoiler)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (title, year) DO NOTHING`,
		rec.ID, rec.Title, rec.Timestamp.UTC().Format(timeLayout),
		rec.Link, rec.Body, rec.Year, rating, boolToInt(rec.Spoiler),
	)
	if err != nil {
		return false, fmt.Errorf("insert review: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}

// ListRange returns reviews with timestamps in [start, end], ascending.
func (s *SQLite) ListRange(ctx context.Context, start, end time.Time) ([]model.ReviewRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, ts, link, body, year, rating, spoiler
		 FROM reviews WHERE ts >= ? AND ts <= ? ORDER BY ts ASC`,
		start.UTC().Format(timeLayout), end.UTC().Format(timeLayout),
	)
	if err != nil {
		return nil, fmt.Errorf("query reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanReviews(rows)
}

// ListPosterArtifacts returns reviews whose body still carries the
// film-poster image artifact.
func (s *SQLite) ListPosterArtifacts(ctx context.Context) ([]model.ReviewRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, ts, link, body, year, rating, spoiler
		 FROM reviews WHERE body LIKE '%/film-poster/%' ORDER BY ts ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("query artifact reviews: %w", err)
	}
	defer func() { _ = rows.Close() }()
	return scanReviews(rows)
}

// UpdateBody rewrites a review's body in place. The dedup key never changes.
func (s *SQLite) UpdateBody(ctx context.Context, title string, year int, body string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE reviews SET body = ? WHERE title = ? AND year = ?`,
		body, title, year,
	)
	if err != nil {
		return fmt.Errorf("update review body: %w", err)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

type scannable interface {
	Scan(dest ...any) error
}

func scanReview(row scannable) (model.ReviewRecord, error) {
	var (
		rec     model.ReviewRecord
		ts      string
		rating  sql.NullFloat64
		spoiler int
	)
	err := row.Scan(&rec.ID, &rec.Title, &ts, &rec.Link, &rec.Body, &rec.Year, &rating, &spoiler)
	if err != nil {
		return rec, fmt.Errorf("scan review: %w", err)
	}
	rec.Timestamp, err = time.Parse(timeLayout, ts)
	if err != nil {
		return rec, fmt.Errorf("parse timestamp %q: %w", ts, err)
	}
	if rating.Valid {
		rec.Rating = &rating.Float64
	}
	rec.Spoiler = spoiler == 1
	return rec, nil
}

func scanReviews(rows *sql.Rows) ([]model.ReviewRecord, error) {
	var records []model.ReviewRecord
	for rows.Next() {
		rec, err := scanReview(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
