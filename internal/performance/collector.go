package performance

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// NetworkSample is one reading of network conditions. Throughput fields
// are only meaningful when HasThroughput is set.
type NetworkSample struct {
	Bandwidth     float64 // Mbps
	Latency       float64 // ms
	Connections   float64
	HasThroughput bool
}

// NetworkSampler measures network conditions
type NetworkSampler interface {
	SampleNetwork(ctx context.Context) (NetworkSample, error)
}

// SystemSampler measures host load
type SystemSampler interface {
	SampleSystem(ctx context.Context) (SystemSample, error)
}

// CollectorConfig holds the collection schedule
type CollectorConfig struct {
	NetworkInterval  time.Duration
	SystemInterval   time.Duration
	OptimizeInterval time.Duration
}

// DefaultCollectorConfig samples the network every 2s, the host every 3s
// and re-optimizes every 30s.
func DefaultCollectorConfig() CollectorConfig {
	return CollectorConfig{
		NetworkInterval:  2 * time.Second,
		SystemInterval:   3 * time.Second,
		OptimizeInterval: 30 * time.Second,
	}
}

// Collector periodically samples metrics into a Store and runs the
// network optimizer.
type Collector struct {
	store     *Store
	network   NetworkSampler
	system    SystemSampler
	optimizer *NetworkOptimizer
	cfg       CollectorConfig
	logger    *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// NewCollector creates a collector. Nil samplers or optimizer disable
// the matching loop.
func NewCollector(store *Store, network NetworkSampler, system SystemSampler, optimizer *NetworkOptimizer, cfg CollectorConfig, logger *zap.Logger) *Collector {
	def := DefaultCollectorConfig()
	if cfg.NetworkInterval <= 0 {
		cfg.NetworkInterval = def.NetworkInterval
	}
	if cfg.SystemInterval <= 0 {
		cfg.SystemInterval = def.SystemInterval
	}
	if cfg.OptimizeInterval <= 0 {
		cfg.OptimizeInterval = def.OptimizeInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		store:     store,
		network:   network,
		system:    system,
		optimizer: optimizer,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start launches the collection loops. Calling Start twice is a no-op.
func (c *Collector) Start(ctx context.Context) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.running {
		return
	}

	ctx, c.cancel = context.WithCancel(ctx)
	c.running = true

	if c.network != nil {
		c.loop(ctx, c.cfg.NetworkInterval, c.collectNetwork)
	}
	if c.system != nil {
		c.loop(ctx, c.cfg.SystemInterval, c.collectSystem)
	}
	if c.optimizer != nil {
		c.loop(ctx, c.cfg.OptimizeInterval, c.optimize)
	}

	c.logger.Info("Metrics collection started",
		zap.Duration("network_interval", c.cfg.NetworkInterval),
		zap.Duration("system_interval", c.cfg.SystemInterval),
		zap.Duration("optimize_interval", c.cfg.OptimizeInterval))
}

// Stop cancels the loops and waits for them to exit
func (c *Collector) Stop() {
	c.mu.Lock()
	if !c.running {
		c.mu.Unlock()
		return
	}
	c.cancel()
	c.running = false
	c.mu.Unlock()

	c.wg.Wait()
	c.logger.Info("Metrics collection stopped")
}

func (c *Collector) loop(ctx context.Context, interval time.Duration, fn func(context.Context)) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				fn(ctx)
			}
		}
	}()
}

// CollectOnce takes one network and one system sample
func (c *Collector) CollectOnce(ctx context.Context) {
	if c.network != nil {
		c.collectNetwork(ctx)
	}
	if c.system != nil {
		c.collectSystem(ctx)
	}
}

func (c *Collector) collectNetwork(ctx context.Context) {
	s, err := c.network.SampleNetwork(ctx)
	if err != nil {
		c.logger.Debug("Network sample failed", zap.Error(err))
		return
	}
	if s.HasThroughput {
		c.record(CategoryNetwork, MetricBandwidth, s.Bandwidth)
		c.record(CategoryNetwork, MetricLatency, s.Latency)
	}
	c.record(CategoryNetwork, MetricConnections, s.Connections)
}

func (c *Collector) collectSystem(ctx context.Context) {
	s, err := c.system.SampleSystem(ctx)
	if err != nil {
		c.logger.Debug("System sample failed", zap.Error(err))
		return
	}
	c.record(CategorySystem, MetricCPU, s.CPU)
	c.record(CategorySystem, MetricMemory, s.Memory)
	c.record(CategorySystem, MetricStorage, s.Storage)
}

func (c *Collector) optimize(ctx context.Context) {
	if _, err := c.optimizer.Optimize(ctx); err != nil {
		c.logger.Warn("Periodic network optimization failed", zap.Error(err))
	}
}

func (c *Collector) record(cat Category, metric string, v float64) {
	if err := c.store.Record(cat, metric, v); err != nil {
		c.logger.Error("Failed to record metric", zap.Error(err))
	}
}
