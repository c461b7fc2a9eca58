package performance

import (
	"context"
	"math"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
)

// Allocator produces binary allocations with provenance
type Allocator interface {
	Allocate(ctx context.Context, resources []float64, constraints [][]float64) (*quantum.Outcome, error)
}

// Conditions are the averaged network measurements
type Conditions struct {
	Bandwidth   float64 `json:"bandwidth"`   // Mbps
	Latency     float64 `json:"latency"`     // ms
	Connections float64 `json:"connections"` // open connections
}

// NetworkPlan is the interpreted network allocation
type NetworkPlan struct {
	PrioritizeBandwidth        bool           `json:"prioritizeBandwidth"`
	ReduceLowPriorityRequests  bool           `json:"reduceLowPriorityRequests"`
	LimitConcurrentConnections bool           `json:"limitConcurrentConnections"`
	Allocation                 []int          `json:"allocation"`
	Resources                  []float64      `json:"resources"`
	Source                     quantum.Source `json:"source"`
	Conditions                 Conditions     `json:"conditions"`
	CreatedAt                  time.Time      `json:"createdAt"`
}

// StrategyName names a real-time network strategy
type StrategyName string

const (
	StrategyAggressivePrefetch StrategyName = "aggressive_prefetch"
	StrategyBalanced           StrategyName = "balanced"
	StrategyConservative       StrategyName = "conservative"
)

// Strategy actions
const (
	ActionPrefetchLinkedPages     = "prefetch_linked_pages"
	ActionPreloadHighPriority     = "preload_high_priority_resources"
	ActionEnableParallelDownloads = "enable_parallel_downloads"
	ActionLimitParallelDownloads  = "limit_parallel_downloads"
	ActionDeferLowPriority        = "defer_low_priority_resources"
	ActionCompressRequests        = "compress_requests"
)

var strategyActions = map[StrategyName][]string{
	StrategyAggressivePrefetch: {ActionPrefetchLinkedPages, ActionPreloadHighPriority, ActionEnableParallelDownloads},
	StrategyBalanced:           {ActionPreloadHighPriority, ActionEnableParallelDownloads, ActionDeferLowPriority},
	StrategyConservative:       {ActionLimitParallelDownloads, ActionDeferLowPriority, ActionCompressRequests},
}

// RealTimeStrategy is the strategy chosen for the current page
type RealTimeStrategy struct {
	Strategy  StrategyName `json:"strategy"`
	URL       string       `json:"url,omitempty"`
	Bandwidth float64      `json:"bandwidth"`
	Latency   float64      `json:"latency"`
	Actions   []string     `json:"actions"`
}

// NetworkOptimizer turns averaged network metrics into a NetworkPlan
type NetworkOptimizer struct {
	store     *Store
	allocator Allocator
	profile   *Profile
	window    time.Duration
	logger    *zap.Logger

	mu   sync.RWMutex
	last *NetworkPlan
}

// NewNetworkOptimizer creates a network optimizer. A nil profile uses
// DefaultProfile.
func NewNetworkOptimizer(store *Store, allocator Allocator, profile *Profile, window time.Duration, logger *zap.Logger) *NetworkOptimizer {
	if profile == nil {
		profile = DefaultProfile()
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NetworkOptimizer{
		store:     store,
		allocator: allocator,
		profile:   profile,
		window:    window,
		logger:    logger,
	}
}

// Conditions averages the network metrics over the optimizer window
func (o *NetworkOptimizer) Conditions() Conditions {
	return Conditions{
		Bandwidth:   o.store.Average(CategoryNetwork, MetricBandwidth, o.window),
		Latency:     o.store.Average(CategoryNetwork, MetricLatency, o.window),
		Connections: o.store.Average(CategoryNetwork, MetricConnections, o.window),
	}
}

// Resources normalizes conditions into the three allocation variables:
// bandwidth, inverted latency and connection load, each clamped to [0,1].
func (o *NetworkOptimizer) Resources(c Conditions) []float64 {
	n := o.profile.Network
	return []float64{
		clamp01(c.Bandwidth / n.BandwidthScale),
		clamp01((n.LatencyScale - c.Latency) / n.LatencyScale),
		clamp01(c.Connections / n.ConnectionScale),
	}
}

// Optimize allocates the network toggles for the current conditions
func (o *NetworkOptimizer) Optimize(ctx context.Context) (*NetworkPlan, error) {
	cond := o.Conditions()
	resources := o.Resources(cond)

	out, err := o.allocator.Allocate(ctx, resources, o.profile.Network.Constraints)
	if err != nil {
		return nil, err
	}

	plan := &NetworkPlan{
		PrioritizeBandwidth:        bit(out.Allocation, 0),
		ReduceLowPriorityRequests:  bit(out.Allocation, 1),
		LimitConcurrentConnections: bit(out.Allocation, 2),
		Allocation:                 out.Allocation,
		Resources:                  resources,
		Source:                     out.Source,
		Conditions:                 cond,
		CreatedAt:                  time.Now(),
	}

	o.mu.Lock()
	o.last = plan
	o.mu.Unlock()

	o.logger.Info("Network optimization applied",
		zap.Ints("allocation", plan.Allocation),
		zap.String("source", string(plan.Source)),
		zap.Bool("prioritize_bandwidth", plan.PrioritizeBandwidth),
		zap.Bool("reduce_low_priority", plan.ReduceLowPriorityRequests),
		zap.Bool("limit_connections", plan.LimitConcurrentConnections))

	return plan, nil
}

// Last returns the most recent plan, nil before the first optimization
func (o *NetworkOptimizer) Last() *NetworkPlan {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.last
}

// RealTime picks the loading strategy for url from current conditions
func (o *NetworkOptimizer) RealTime(url string) *RealTimeStrategy {
	cond := o.Conditions()
	name := o.profile.Strategy.Choose(cond.Bandwidth, cond.Latency)
	return &RealTimeStrategy{
		Strategy:  name,
		URL:       url,
		Bandwidth: cond.Bandwidth,
		Latency:   cond.Latency,
		Actions:   append([]string(nil), strategyActions[name]...),
	}
}

func bit(alloc []int, i int) bool {
	return i < len(alloc) && alloc[i] == 1
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	return math.Min(1, math.Max(0, v))
}
