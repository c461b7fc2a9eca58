package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	_ "modernc.org/sqlite"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/id"
)

const schema = `
CREATE TABLE IF NOT EXISTS allocations (
	id           TEXT PRIMARY KEY,
	created_at   INTEGER NOT NULL,
	source       TEXT NOT NULL,
	used_primary INTEGER NOT NULL,
	energy       REAL,
	duration_ns  INTEGER NOT NULL,
	cause        TEXT NOT NULL DEFAULT '',
	payload      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS allocations_created_at ON allocations (created_at);
`

type payload struct {
	Resources  []float64 `json:"resources"`
	Allocation []int     `json:"allocation"`
}

// SQLiteStore persists records in a SQLite file
type SQLiteStore struct {
	mu sync.RWMutex
	db *sql.DB
}

// NewSQLiteStore opens the database at path and creates the schema
func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite path is required")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open history db: %w", err)
	}
	// single writer; readers share the connection
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping history db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate history db: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func (s *SQLiteStore) getDB() (*sql.DB, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.db == nil {
		return nil, ErrClosed
	}
	return s.db, nil
}

func (s *SQLiteStore) Append(ctx context.Context, rec Record) error {
	db, err := s.getDB()
	if err != nil {
		return err
	}

	body, err := sonic.Marshal(payload{Resources: rec.Resources, Allocation: rec.Allocation})
	if err != nil {
		return fmt.Errorf("encode record %s: %w", rec.ID, err)
	}

	var energy sql.NullFloat64
	if rec.Energy != nil {
		energy = sql.NullFloat64{Float64: *rec.Energy, Valid: true}
	}

	_, err = db.ExecContext(ctx, `
		INSERT INTO allocations (id, created_at, source, used_primary, energy, duration_ns, cause, payload)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`, string(rec.ID), rec.CreatedAt.UnixNano(), string(rec.Source), rec.UsedPrimaryBackend,
		energy, int64(rec.Duration), rec.Cause, string(body))
	if err != nil {
		return fmt.Errorf("insert record %s: %w", rec.ID, err)
	}
	return nil
}

func (s *SQLiteStore) Recent(ctx context.Context, limit int) ([]Record, error) {
	db, err := s.getDB()
	if err != nil {
		return nil, err
	}

	rows, err := db.QueryContext(ctx, `
		SELECT id, created_at, source, used_primary, energy, duration_ns, cause, payload
		FROM allocations
		ORDER BY id DESC
		LIMIT ?
	`, clampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var (
			rec       Record
			recID     string
			createdAt int64
			source    string
			energy    sql.NullFloat64
			duration  int64
			body      string
		)
		if err := rows.Scan(&recID, &createdAt, &source, &rec.UsedPrimaryBackend, &energy, &duration, &rec.Cause, &body); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}

		var p payload
		if err := sonic.UnmarshalString(body, &p); err != nil {
			return nil, fmt.Errorf("decode record %s: %w", recID, err)
		}

		rec.ID = id.RecordID(recID)
		rec.CreatedAt = time.Unix(0, createdAt).UTC()
		rec.Source = quantum.Source(source)
		rec.Duration = time.Duration(duration)
		rec.Resources = p.Resources
		rec.Allocation = p.Allocation
		if energy.Valid {
			e := energy.Float64
			rec.Energy = &e
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
