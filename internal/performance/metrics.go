package performance

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"gonum.org/v1/gonum/stat"
)

const (
	// SeriesCapacity is how many samples each metric keeps
	SeriesCapacity = 100
	// DefaultWindow is the averaging window used by the optimizers
	DefaultWindow = 30 * time.Second
)

var ErrUnknownMetric = errors.New("unknown metric")

// Category groups related metrics
type Category string

const (
	CategoryNetwork Category = "network"
	CategorySystem  Category = "system"
	CategoryPage    Category = "page"
)

// Metric names
const (
	MetricBandwidth   = "bandwidth"   // Mbps
	MetricLatency     = "latency"     // ms
	MetricConnections = "connections" // open connections

	MetricCPU     = "cpu"     // percent
	MetricMemory  = "memory"  // percent
	MetricStorage = "storage" // MB/s

	MetricRenderTime      = "renderTime"      // ms
	MetricInteractiveTime = "interactiveTime" // ms
	MetricResourceCount   = "resourceCount"
)

// knownMetrics lists the series a Store accepts
var knownMetrics = map[Category][]string{
	CategoryNetwork: {MetricBandwidth, MetricLatency, MetricConnections},
	CategorySystem:  {MetricCPU, MetricMemory, MetricStorage},
	CategoryPage:    {MetricRenderTime, MetricInteractiveTime, MetricResourceCount},
}

// Sample is one timestamped measurement
type Sample struct {
	Value     float64   `json:"value"`
	Timestamp time.Time `json:"timestamp"`
}

// Series is a thread-safe circular buffer of samples. When full, the
// oldest sample is overwritten.
type Series struct {
	data  []Sample
	size  int
	head  int
	count int
	mu    sync.RWMutex
}

// NewSeries creates a series holding at most size samples
func NewSeries(size int) *Series {
	if size <= 0 {
		size = SeriesCapacity
	}
	return &Series{
		data: make([]Sample, size),
		size: size,
	}
}

// Add appends a sample, evicting the oldest when full
func (s *Series) Add(sample Sample) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tail := (s.head + s.count) % s.size
	s.data[tail] = sample
	if s.count == s.size {
		s.head = (s.head + 1) % s.size
	} else {
		s.count++
	}
}

// Snapshot returns the samples oldest first
func (s *Series) Snapshot() []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Sample, s.count)
	for i := 0; i < s.count; i++ {
		out[i] = s.data[(s.head+i)%s.size]
	}
	return out
}

// Len returns the number of stored samples
func (s *Series) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.count
}

// Store keeps one Series per known (category, metric) pair
type Store struct {
	series map[Category]map[string]*Series
	now    func() time.Time
}

// NewStore creates a store with empty series for every known metric
func NewStore() *Store {
	return newStoreWithClock(time.Now)
}

func newStoreWithClock(now func() time.Time) *Store {
	s := &Store{
		series: make(map[Category]map[string]*Series, len(knownMetrics)),
		now:    now,
	}
	for cat, names := range knownMetrics {
		s.series[cat] = make(map[string]*Series, len(names))
		for _, name := range names {
			s.series[cat][name] = NewSeries(SeriesCapacity)
		}
	}
	return s
}

func (s *Store) lookup(cat Category, metric string) (*Series, error) {
	if series, ok := s.series[cat][metric]; ok {
		return series, nil
	}
	return nil, fmt.Errorf("%w: %s.%s", ErrUnknownMetric, cat, metric)
}

// Record stores a measurement taken now
func (s *Store) Record(cat Category, metric string, value float64) error {
	series, err := s.lookup(cat, metric)
	if err != nil {
		return err
	}
	series.Add(Sample{Value: value, Timestamp: s.now()})
	return nil
}

// Samples returns a snapshot of a series
func (s *Store) Samples(cat Category, metric string) ([]Sample, error) {
	series, err := s.lookup(cat, metric)
	if err != nil {
		return nil, err
	}
	return series.Snapshot(), nil
}

// Average returns the mean of the samples younger than window, or 0 when
// there are none. A non-positive window uses DefaultWindow.
func (s *Store) Average(cat Category, metric string, window time.Duration) float64 {
	series, err := s.lookup(cat, metric)
	if err != nil {
		return 0
	}
	if window <= 0 {
		window = DefaultWindow
	}

	now := s.now()
	var values []float64
	for _, sample := range series.Snapshot() {
		if now.Sub(sample.Timestamp) < window {
			values = append(values, sample.Value)
		}
	}
	if len(values) == 0 {
		return 0
	}
	return stat.Mean(values, nil)
}

// Summary is the windowed average of every known metric
type Summary map[Category]map[string]float64

// Summarize averages every known metric over window
func (s *Store) Summarize(window time.Duration) Summary {
	out := make(Summary, len(knownMetrics))
	for cat, names := range knownMetrics {
		out[cat] = make(map[string]float64, len(names))
		for _, name := range names {
			out[cat][name] = s.Average(cat, name, window)
		}
	}
	return out
}

// Metrics returns the known metric names of a category, sorted
func Metrics(cat Category) []string {
	names := append([]string(nil), knownMetrics[cat]...)
	sort.Strings(names)
	return names
}
