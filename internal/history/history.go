package history

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/id"
)

const (
	// DefaultLimit is the page size of Recent when none is given
	DefaultLimit = 50
	// MaxLimit caps a single Recent query
	MaxLimit = 1000

	appendTimeout = 2 * time.Second
)

var ErrClosed = errors.New("history store closed")

// Record is one completed allocation
type Record struct {
	ID                 id.RecordID    `json:"id"`
	Resources          []float64      `json:"resources"`
	Allocation         []int          `json:"allocation"`
	Source             quantum.Source `json:"source"`
	UsedPrimaryBackend bool           `json:"usedPrimaryBackend"`
	Energy             *float64       `json:"energy,omitempty"`
	Duration           time.Duration  `json:"duration"`
	Cause              string         `json:"cause,omitempty"`
	CreatedAt          time.Time      `json:"createdAt"`
}

// Store persists allocation records
type Store interface {
	Append(ctx context.Context, rec Record) error
	// Recent returns up to limit records, newest first
	Recent(ctx context.Context, limit int) ([]Record, error)
	Close() error
}

// NewRecord builds a record from a bridge outcome
func NewRecord(resources []float64, out *quantum.Outcome) Record {
	rec := Record{
		ID:                 id.NewRecordID(),
		Resources:          append([]float64(nil), resources...),
		Allocation:         append([]int(nil), out.Allocation...),
		Source:             out.Source,
		UsedPrimaryBackend: out.UsedPrimaryBackend,
		Energy:             out.Energy,
		Duration:           out.Duration,
		CreatedAt:          time.Now().UTC(),
	}
	if out.Cause != nil {
		rec.Cause = out.Cause.Error()
	}
	return rec
}

// Open returns a SQLite store at path, or a memory store when path is empty
func Open(ctx context.Context, path string) (Store, error) {
	if path == "" {
		return NewMemoryStore(0), nil
	}
	return NewSQLiteStore(ctx, path)
}

// Observer returns a bridge allocation hook that appends every outcome
// to store. Write failures are logged and dropped.
func Observer(store Store, logger *zap.Logger) func([]float64, *quantum.Outcome) {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(resources []float64, out *quantum.Outcome) {
		ctx, cancel := context.WithTimeout(context.Background(), appendTimeout)
		defer cancel()

		rec := NewRecord(resources, out)
		if err := store.Append(ctx, rec); err != nil {
			logger.Warn("Failed to record allocation",
				zap.String("id", rec.ID.String()),
				zap.Error(err))
		}
	}
}

func clampLimit(limit int) int {
	switch {
	case limit <= 0:
		return DefaultLimit
	case limit > MaxLimit:
		return MaxLimit
	default:
		return limit
	}
}
