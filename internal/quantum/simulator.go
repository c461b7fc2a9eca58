package quantum

import (
	"context"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/solver"
)

// Simulator answers invocations in process with the same solver the
// qsolver executable wraps. Results travel through the wire codec so both
// backends decode identically.
type Simulator struct {
	solver *solver.Solver
}

// NewSimulator creates an in-process backend
func NewSimulator(s *solver.Solver) *Simulator {
	if s == nil {
		s = solver.New(0)
	}
	return &Simulator{solver: s}
}

// Invoke solves the instance on the requested variant
func (s *Simulator) Invoke(ctx context.Context, v resilience.Variant, in *problem.Instance) (*BackendResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, backendFailure("simulator cancelled", "", err)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	variant := solver.Primary
	if v == resilience.VariantFallback {
		variant = solver.Fallback
	}

	out, err := s.solver.Solve(variant, in)
	if err != nil {
		return nil, backendFailure("simulator failed", "", err)
	}
	raw, err := problem.MarshalOutput(out)
	if err != nil {
		return nil, backendFailure("simulator output not encodable", "", err)
	}

	res, err := DecodeReply(in, raw)
	if err != nil {
		return nil, err
	}
	res.Variant = v
	return res, nil
}
