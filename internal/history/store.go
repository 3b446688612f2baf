package history

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/toolbelt/plumbing-estimator/internal/features"
)

const (
	// DefaultLimit is used by List when no limit is given.
	DefaultLimit = 20
	// MaxLimit caps a single List call.
	MaxLimit = 100

	timeLayout = "2006-01-02T15:04:05.000000000Z07:00"
)

// ErrNotFound is returned by Get for unknown ids.
var ErrNotFound = errors.New("estimate not found")

// Entry is one stored estimate.
type Entry struct {
	ID          string          `json:"id"`
	Description string          `json:"job_description"`
	Features    features.Record `json:"features"`
	CostDZD     float64         `json:"cost_dzd"`
	CostGBP     float64         `json:"cost_gbp"`
	TimeDays    int             `json:"time_days"`
	Fallback    bool            `json:"fallback"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Store keeps estimates in a SQLite database.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens (and if needed creates) the database at path. ":memory:" is accepted.
func Open(path string) (*Store, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, errors.New("history database path is required")
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open history database: %w", err)
	}
	// a single connection keeps :memory: databases alive and serialises writers
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, now: time.Now}, nil
}

func createTables(db *sql.DB) error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS estimates (
			id TEXT PRIMARY KEY,
			description TEXT NOT NULL,
			features TEXT NOT NULL,
			cost_dzd REAL NOT NULL,
			cost_gbp REAL NOT NULL,
			time_days INTEGER NOT NULL,
			fallback INTEGER NOT NULL DEFAULT 0,
			created_at TEXT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_estimates_created_at ON estimates(created_at)`,
	}

	for _, query := range queries {
		if _, err := db.Exec(query); err != nil {
			return fmt.Errorf("create history tables: %w", err)
		}
	}
	return nil
}

// Save stores e, assigning an id and creation time when they are unset.
func (s *Store) Save(ctx context.Context, e *Entry) error {
	if e == nil {
		return errors.New("entry is nil")
	}
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.now()
	}
	e.CreatedAt = e.CreatedAt.UTC()

	payload, err := json.Marshal(e.Features)
	if err != nil {
		return fmt.Errorf("marshal features: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO estimates (id, description, features, cost_dzd, cost_gbp, time_days, fallback, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.ID, e.Description, string(payload), e.CostDZD, e.CostGBP, e.TimeDays, e.Fallback,
		e.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return fmt.Errorf("insert estimate: %w", err)
	}
	return nil
}

// Get returns the estimate with the given id.
func (s *Store) Get(ctx context.Context, id string) (*Entry, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, description, features, cost_dzd, cost_gbp, time_days, fallback, created_at
		FROM estimates WHERE id = ?`, id)

	e, err := scanEntry(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return e, nil
}

// List returns the most recent estimates first.
func (s *Store) List(ctx context.Context, limit int) ([]*Entry, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	limit = min(limit, MaxLimit)

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, description, features, cost_dzd, cost_gbp, time_days, fallback, created_at
		FROM estimates ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query estimates: %w", err)
	}
	defer rows.Close()

	var entries []*Entry
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate estimates: %w", err)
	}
	return entries, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(row scanner) (*Entry, error) {
	var (
		e         Entry
		payload   string
		createdAt string
	)
	if err := row.Scan(&e.ID, &e.Description, &payload, &e.CostDZD, &e.CostGBP, &e.TimeDays, &e.Fallback, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan estimate: %w", err)
	}

	dec := json.NewDecoder(bytes.NewReader([]byte(payload)))
	dec.UseNumber()
	if err := dec.Decode(&e.Features); err != nil {
		return nil, fmt.Errorf("decode features of %s: %w", e.ID, err)
	}

	t, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at of %s: %w", e.ID, err)
	}
	e.CreatedAt = t
	return &e, nil
}
