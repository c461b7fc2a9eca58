package quantum

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
)

const defaultShots = 1024

// Source tells where an allocation came from
type Source string

const (
	SourcePrimary   Source = "primary"
	SourceFallback  Source = "fallback"
	SourceClassical Source = "classical"
)

// Recorder receives bridge telemetry
type Recorder interface {
	RecordInvocation(variant, status string, duration time.Duration)
	RecordFailure(kind string)
	RecordVariant(variant string)
	RecordClassicalFallback()
}

// Outcome is the result of one allocation request
type Outcome struct {
	Allocation         []int         `json:"allocation"`
	Source             Source        `json:"source"`
	UsedPrimaryBackend bool          `json:"usedPrimaryBackend"`
	Energy             *float64      `json:"energy,omitempty"`
	Duration           time.Duration `json:"duration"`
	// Cause is the backend failure that forced the classical path
	Cause error `json:"-"`
}

// State is a snapshot of the bridge supervisor
type State struct {
	Variant string            `json:"variant"`
	Counts  resilience.Counts `json:"counts"`
}

// Options configures a Bridge
type Options struct {
	Shots     int
	Schedule  problem.Schedule
	Classical *Classical
	Logger    *zap.Logger
	Recorder  Recorder
	// OnAllocation observes every completed allocation, classical included
	OnAllocation func(resources []float64, outcome *Outcome)
}

// Bridge is the consumer-facing entry to the optimization backends
type Bridge struct {
	backend    Backend
	supervisor *resilience.Supervisor
	classical  *Classical
	schedule   problem.Schedule
	shots      int
	logger     *zap.Logger
	recorder   Recorder
	onAlloc    func([]float64, *Outcome)
}

// NewSupervisor creates a supervisor that retries recoverable failures
// only and reports variant changes.
func NewSupervisor(settings resilience.Settings, logger *zap.Logger, rec Recorder) *resilience.Supervisor {
	if logger == nil {
		logger = zap.NewNop()
	}
	if settings.Retryable == nil {
		settings.Retryable = recoverable
	}

	onChange := settings.OnVariantChange
	settings.OnVariantChange = func(name string, from, to resilience.Variant) {
		logger.Warn("Backend variant changed",
			zap.String("supervisor", name),
			zap.Stringer("from", from),
			zap.Stringer("to", to))
		if rec != nil {
			rec.RecordVariant(to.String())
		}
		if onChange != nil {
			onChange(name, from, to)
		}
	}
	return resilience.NewSupervisor("bridge", settings)
}

// NewBridge creates a bridge. A nil supervisor gets the default settings.
func NewBridge(backend Backend, sup *resilience.Supervisor, opts Options) *Bridge {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if sup == nil {
		sup = NewSupervisor(resilience.DefaultSettings(), opts.Logger, opts.Recorder)
	}
	if opts.Classical == nil {
		opts.Classical = NewClassical()
	}
	if opts.Shots <= 0 {
		opts.Shots = defaultShots
	}
	if opts.Schedule.Layers <= 0 {
		opts.Schedule = problem.DefaultSchedule()
	}

	return &Bridge{
		backend:    backend,
		supervisor: sup,
		classical:  opts.Classical,
		schedule:   opts.Schedule,
		shots:      opts.Shots,
		logger:     opts.Logger,
		recorder:   opts.Recorder,
		onAlloc:    opts.OnAllocation,
	}
}

// Schedule returns the layer schedule used for allocations
func (b *Bridge) Schedule() problem.Schedule {
	return b.schedule
}

// RunSearch looks up target in database on the backend
func (b *Bridge) RunSearch(ctx context.Context, database []string, target string) (string, bool, error) {
	res, err := b.invoke(ctx, problem.EncodeSearch(database, target))
	if err != nil {
		return "", false, err
	}
	if !res.Found {
		return "", false, nil
	}
	return res.Result, true, nil
}

// GenerateKey returns a bits-long string of '0' and '1'
func (b *Bridge) GenerateKey(ctx context.Context, bits int) (string, error) {
	in, err := problem.EncodeKeyGeneration(bits)
	if err != nil {
		return "", err
	}
	res, err := b.invoke(ctx, in)
	if err != nil {
		return "", err
	}
	return res.Key, nil
}

// OptimizeAllocation returns a 0/1 allocation of len(resources). Backend
// failures fall back to the classical optimizer; only invalid input fails.
func (b *Bridge) OptimizeAllocation(ctx context.Context, resources []float64, constraints [][]float64) ([]int, error) {
	out, err := b.Allocate(ctx, resources, constraints)
	if err != nil {
		return nil, err
	}
	return out.Allocation, nil
}

// Allocate is OptimizeAllocation with the provenance of the answer
func (b *Bridge) Allocate(ctx context.Context, resources []float64, constraints [][]float64) (*Outcome, error) {
	start := time.Now()
	in, err := problem.EncodeAllocation(resources, constraints, b.schedule, b.shots)
	if err != nil {
		return nil, err
	}

	var out *Outcome
	res, err := b.invoke(ctx, in)
	if err != nil {
		if kindOf(err) == 0 {
			// not a backend failure; nothing to fall back from
			return nil, err
		}
		b.logger.Warn("Falling back to classical optimizer",
			zap.Int("variables", len(resources)),
			zap.Error(err))
		if b.recorder != nil {
			b.recorder.RecordClassicalFallback()
		}
		out = &Outcome{
			Allocation: b.classical.Optimize(resources, constraints),
			Source:     SourceClassical,
			Cause:      err,
		}
	} else {
		out = &Outcome{
			Allocation:         res.Allocation,
			Source:             sourceOf(res.Variant),
			UsedPrimaryBackend: res.UsedPrimaryBackend,
			Energy:             res.Energy,
		}
	}

	out.Duration = time.Since(start)
	if b.onAlloc != nil {
		b.onAlloc(resources, out)
	}
	return out, nil
}

// Probe runs a small key generation and reports whether the primary
// backend answered it.
func (b *Bridge) Probe(ctx context.Context) (bool, error) {
	in, err := problem.EncodeKeyGeneration(4)
	if err != nil {
		return false, err
	}
	res, err := b.invoke(ctx, in)
	if err != nil {
		return false, err
	}
	return res.UsedPrimaryBackend, nil
}

// State returns the supervisor snapshot
func (b *Bridge) State() State {
	return State{
		Variant: b.supervisor.Variant().String(),
		Counts:  b.supervisor.Counts(),
	}
}

// Reset returns the bridge to the primary variant
func (b *Bridge) Reset() {
	b.supervisor.Reset()
	b.logger.Info("Backend variant reset", zap.Stringer("variant", resilience.VariantPrimary))
}

func (b *Bridge) invoke(ctx context.Context, in *problem.Instance) (*BackendResult, error) {
	// input errors never reach the supervisor, so they cannot flip the variant
	if _, err := problem.Marshal(in); err != nil {
		return nil, err
	}

	v, err := b.supervisor.Execute(ctx, func(ctx context.Context, variant resilience.Variant) (interface{}, error) {
		start := time.Now()
		res, err := b.backend.Invoke(ctx, variant, in)
		if err == nil && in.Kind == problem.KindAllocation && len(res.Allocation) != in.Size() {
			err = sizeMismatch(len(res.Allocation), in.Size())
		}
		b.observe(variant, time.Since(start), err)
		if err != nil {
			return nil, err
		}
		res.Variant = variant
		return res, nil
	})
	if err != nil {
		if errors.Is(err, resilience.ErrExhausted) {
			b.logger.Error("Backend exhausted",
				zap.String("kind", string(in.Kind)),
				zap.Error(err))
			err = &Failure{Kind: Exhausted, Message: "all backend variants failed", Err: err}
			if b.recorder != nil {
				b.recorder.RecordFailure(Exhausted.String())
			}
		}
		return nil, err
	}
	return v.(*BackendResult), nil
}

func (b *Bridge) observe(variant resilience.Variant, d time.Duration, err error) {
	if err != nil {
		b.logger.Debug("Backend invocation failed",
			zap.Stringer("variant", variant),
			zap.Error(err))
	}
	if b.recorder == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
		if k := kindOf(err); k != 0 {
			b.recorder.RecordFailure(k.String())
		}
	}
	b.recorder.RecordInvocation(variant.String(), status, d)
}

func sourceOf(v resilience.Variant) Source {
	if v == resilience.VariantFallback {
		return SourceFallback
	}
	return SourcePrimary
}
