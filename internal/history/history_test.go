package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
)

func stores(t *testing.T) map[string]func(t *testing.T) Store {
	return map[string]func(t *testing.T) Store{
		"memory": func(t *testing.T) Store {
			return NewMemoryStore(0)
		},
		"sqlite": func(t *testing.T) Store {
			s, err := NewSQLiteStore(context.Background(), filepath.Join(t.TempDir(), "history.db"))
			require.NoError(t, err)
			return s
		},
	}
}

func outcome(source quantum.Source, alloc ...int) *quantum.Outcome {
	return &quantum.Outcome{Allocation: alloc, Source: source, Duration: 3 * time.Millisecond}
}

func TestStoreAppendRecent(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			s := open(t)
			defer s.Close()

			energy := -1.25
			primary := outcome(quantum.SourcePrimary, 1, 0, 1)
			primary.UsedPrimaryBackend = true
			primary.Energy = &energy

			classical := outcome(quantum.SourceClassical, 1, 1, 0, 0)
			classical.Cause = errors.New("backend exited with code 1")

			first := NewRecord([]float64{0.9, 0.1, 0.7}, primary)
			second := NewRecord([]float64{0.8, 0.6, 0.4, 0.2}, classical)
			require.NoError(t, s.Append(ctx, first))
			require.NoError(t, s.Append(ctx, second))

			got, err := s.Recent(ctx, 10)
			require.NoError(t, err)
			require.Len(t, got, 2)

			assert.Equal(t, second.ID, got[0].ID)
			assert.Equal(t, []int{1, 1, 0, 0}, got[0].Allocation)
			assert.Equal(t, quantum.SourceClassical, got[0].Source)
			assert.Equal(t, "backend exited with code 1", got[0].Cause)
			assert.Nil(t, got[0].Energy)

			assert.Equal(t, first.ID, got[1].ID)
			assert.Equal(t, []float64{0.9, 0.1, 0.7}, got[1].Resources)
			assert.True(t, got[1].UsedPrimaryBackend)
			require.NotNil(t, got[1].Energy)
			assert.Equal(t, energy, *got[1].Energy)
			assert.Equal(t, 3*time.Millisecond, got[1].Duration)
			assert.WithinDuration(t, first.CreatedAt, got[1].CreatedAt, time.Microsecond)

			limited, err := s.Recent(ctx, 1)
			require.NoError(t, err)
			require.Len(t, limited, 1)
			assert.Equal(t, second.ID, limited[0].ID)
		})
	}
}

func TestStoreClosed(t *testing.T) {
	for name, open := range stores(t) {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			require.NoError(t, s.Close())

			err := s.Append(context.Background(), NewRecord(nil, outcome(quantum.SourceClassical)))
			assert.ErrorIs(t, err, ErrClosed)
			_, err = s.Recent(context.Background(), 1)
			assert.ErrorIs(t, err, ErrClosed)
		})
	}
}

func TestMemoryStoreEvictsOldest(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore(3)

	var ids []string
	for i := 0; i < 5; i++ {
		rec := NewRecord([]float64{float64(i)}, outcome(quantum.SourceFallback, i%2))
		ids = append(ids, rec.ID.String())
		require.NoError(t, s.Append(ctx, rec))
	}

	got, err := s.Recent(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, ids[4], got[0].ID.String())
	assert.Equal(t, ids[2], got[2].ID.String())
}

func TestNewRecordCopiesSlices(t *testing.T) {
	resources := []float64{0.5, 0.5}
	out := outcome(quantum.SourcePrimary, 1, 0)
	rec := NewRecord(resources, out)

	resources[0] = 9
	out.Allocation[0] = 0
	assert.Equal(t, []float64{0.5, 0.5}, rec.Resources)
	assert.Equal(t, []int{1, 0}, rec.Allocation)
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, DefaultLimit},
		{-3, DefaultLimit},
		{7, 7},
		{MaxLimit + 1, MaxLimit},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, clampLimit(tt.in))
	}
}

type failingStore struct{ MemoryStore }

func (*failingStore) Append(context.Context, Record) error { return errors.New("disk full") }

func TestObserver(t *testing.T) {
	s := NewMemoryStore(0)
	observe := Observer(s, nil)
	observe([]float64{0.8, 0.6, 0.4, 0.2}, outcome(quantum.SourceClassical, 1, 1, 0, 0))

	got, err := s.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, quantum.SourceClassical, got[0].Source)

	// write failures never reach the caller
	assert.NotPanics(t, func() {
		Observer(&failingStore{}, nil)(nil, outcome(quantum.SourcePrimary))
	})
}

func TestOpen(t *testing.T) {
	mem, err := Open(context.Background(), "")
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, mem)

	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "h.db"))
	require.NoError(t, err)
	assert.IsType(t, &SQLiteStore{}, db)
	require.NoError(t, db.Close())
}
