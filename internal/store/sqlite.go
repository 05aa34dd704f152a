package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kiliankoe/cdrintake/internal/intake"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if needed) the database file at path and
// applies the schema.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("database path not set")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if _, err := db.Exec(sqliteMigrations); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	log.Debug().Str("path", path).Msg("sqlite store ready")
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) SaveSubmission(ctx context.Context, sub intake.Submission) error {
	answers, err := json.Marshal(sub.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO submissions (id, session_id, country_code, answers, submitted_at) VALUES (?, ?, ?, ?, ?)`,
		sub.ID, sub.SessionID, sub.CountryCode, string(answers), sub.SubmittedAt.UTC())
	if err != nil {
		return fmt.Errorf("failed to insert submission %s: %w", sub.ID, err)
	}
	return nil
}

func (s *SQLiteStore) GetSubmission(ctx context.Context, id string) (intake.Submission, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, session_id, country_code, answers, submitted_at FROM submissions WHERE id = ?`, id)
	sub, err := scanSubmission(row)
	if errors.Is(err, sql.ErrNoRows) {
		return intake.Submission{}, ErrNotFound
	}
	return sub, err
}

func (s *SQLiteStore) ListSubmissions(ctx context.Context, limit int) ([]intake.Submission, error) {
	q := `SELECT id, session_id, country_code, answers, submitted_at FROM submissions ORDER BY submitted_at DESC`
	args := []any{}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	out := []intake.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

type scanner interface {
	Scan(dest ...any) error
}

func scanSubmission(sc scanner) (intake.Submission, error) {
	var (
		sub     intake.Submission
		answers string
		at      time.Time
	)
	if err := sc.Scan(&sub.ID, &sub.SessionID, &sub.CountryCode, &answers, &at); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sub, err
		}
		return sub, fmt.Errorf("failed to scan submission: %w", err)
	}
	if err := json.Unmarshal([]byte(answers), &sub.Answers); err != nil {
		return sub, fmt.Errorf("failed to decode answers for %s: %w", sub.ID, err)
	}
	sub.SubmittedAt = at.UTC()
	return sub, nil
}
