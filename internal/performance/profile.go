package performance

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
)

var ErrInvalidProfile = errors.New("invalid optimizer profile")

// Profile tunes the optimizers. It is read from YAML:
//
//	schedule:
//	  layers: 2
//	  gamma: [0.1, 0.2]
//	  beta: [0.3, 0.4]
//	network:
//	  bandwidthScale: 100
//	  latencyScale: 100
//	  connectionScale: 20
//	  constraints:
//	    - [0, -0.5, 0.3]
//	    - [-0.5, 0, -0.2]
//	    - [0.3, -0.2, 0]
//	strategy:
//	  aggressive: {bandwidth: 50, latency: 50}
//	  balanced: {bandwidth: 20, latency: 100}
type Profile struct {
	Schedule problem.Schedule `yaml:"schedule"`
	Network  NetworkProfile   `yaml:"network"`
	Strategy StrategyProfile  `yaml:"strategy"`
}

// NetworkProfile holds the normalization scales and coupling matrix of
// the bandwidth, latency and connection variables.
type NetworkProfile struct {
	BandwidthScale  float64     `yaml:"bandwidthScale"`
	LatencyScale    float64     `yaml:"latencyScale"`
	ConnectionScale float64     `yaml:"connectionScale"`
	Constraints     [][]float64 `yaml:"constraints"`
}

// Threshold is a bandwidth floor and latency ceiling, both exclusive
type Threshold struct {
	Bandwidth float64 `yaml:"bandwidth"`
	Latency   float64 `yaml:"latency"`
}

// StrategyProfile holds the real-time strategy thresholds
type StrategyProfile struct {
	Aggressive Threshold `yaml:"aggressive"`
	Balanced   Threshold `yaml:"balanced"`
}

// Choose returns the strategy for the measured bandwidth (Mbps) and latency (ms)
func (s StrategyProfile) Choose(bandwidth, latency float64) StrategyName {
	switch {
	case bandwidth > s.Aggressive.Bandwidth && latency < s.Aggressive.Latency:
		return StrategyAggressivePrefetch
	case bandwidth > s.Balanced.Bandwidth && latency < s.Balanced.Latency:
		return StrategyBalanced
	default:
		return StrategyConservative
	}
}

// DefaultProfile returns the built-in tuning
func DefaultProfile() *Profile {
	return &Profile{
		Schedule: problem.DefaultSchedule(),
		Network: NetworkProfile{
			BandwidthScale:  100,
			LatencyScale:    100,
			ConnectionScale: 20,
			Constraints: [][]float64{
				{0, -0.5, 0.3},
				{-0.5, 0, -0.2},
				{0.3, -0.2, 0},
			},
		},
		Strategy: StrategyProfile{
			Aggressive: Threshold{Bandwidth: 50, Latency: 50},
			Balanced:   Threshold{Bandwidth: 20, Latency: 100},
		},
	}
}

// LoadProfile reads a YAML profile. Omitted fields keep their defaults.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	return ParseProfile(data)
}

// ParseProfile decodes a YAML profile over the defaults and validates it
func ParseProfile(data []byte) (*Profile, error) {
	p := DefaultProfile()
	if err := yaml.Unmarshal(data, p); err != nil {
		return nil, fmt.Errorf("failed to parse profile: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate checks scales and the constraint matrix shape
func (p *Profile) Validate() error {
	n := p.Network
	if n.BandwidthScale <= 0 || n.LatencyScale <= 0 || n.ConnectionScale <= 0 {
		return fmt.Errorf("%w: network scales must be positive", ErrInvalidProfile)
	}
	if len(n.Constraints) != 3 {
		return fmt.Errorf("%w: network constraints need 3 rows, got %d", ErrInvalidProfile, len(n.Constraints))
	}
	for i, row := range n.Constraints {
		if len(row) != 3 {
			return fmt.Errorf("%w: network constraint row %d has %d columns", ErrInvalidProfile, i, len(row))
		}
	}
	if p.Schedule.Layers <= 0 {
		return fmt.Errorf("%w: schedule needs at least one layer", ErrInvalidProfile)
	}
	if p.Schedule.Layers > problem.MaxLayers {
		return fmt.Errorf("%w: schedule allows at most %d layers", ErrInvalidProfile, problem.MaxLayers)
	}
	return nil
}

// Marshal encodes the profile as YAML
func (p *Profile) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
