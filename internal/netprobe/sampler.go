package netprobe

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/performance"
)

// ConnectionCounter reports open TCP connections
type ConnectionCounter interface {
	OpenConnections() (int, error)
}

// Sampler feeds the metric collector with probe results
type Sampler struct {
	client *Client
	url    string
	conns  ConnectionCounter
	logger *zap.Logger
}

// NewSampler creates a sampler. An empty url disables throughput probing
// and a nil counter reports zero connections.
func NewSampler(client *Client, url string, conns ConnectionCounter, logger *zap.Logger) *Sampler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Sampler{client: client, url: url, conns: conns, logger: logger}
}

// SampleNetwork implements performance.NetworkSampler. A failed probe
// still yields the connection count.
func (s *Sampler) SampleNetwork(ctx context.Context) (performance.NetworkSample, error) {
	var sample performance.NetworkSample

	if s.conns != nil {
		n, err := s.conns.OpenConnections()
		if err != nil {
			return sample, fmt.Errorf("failed to count connections: %w", err)
		}
		sample.Connections = float64(n)
	}

	if s.url == "" || s.client == nil {
		return sample, nil
	}

	m, err := s.client.Measure(ctx, s.url)
	if err != nil {
		s.logger.Debug("Network probe failed", zap.String("url", s.url), zap.Error(err))
		return sample, nil
	}
	sample.Bandwidth = m.BandwidthMbps()
	sample.Latency = m.LatencyMs()
	sample.HasThroughput = true
	return sample, nil
}
