package problem

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Schedule holds the per-layer cost (gamma) and mixer (beta) angles
type Schedule struct {
	Layers int       `yaml:"layers" json:"layers"`
	Gamma  []float64 `yaml:"gamma" json:"gamma"`
	Beta   []float64 `yaml:"beta" json:"beta"`
}

// DefaultSchedule returns the two-layer schedule used by the network optimizer
func DefaultSchedule() Schedule {
	return Schedule{
		Layers: 2,
		Gamma:  []float64{0.1, 0.2},
		Beta:   []float64{0.3, 0.4},
	}
}

// angles returns gamma and beta for layer l, extending short slices
// with 0.1(l+1) and 0.3+0.1l respectively.
func (s Schedule) angles(l int) (float64, float64) {
	gamma := 0.1 * float64(l+1)
	beta := 0.3 + 0.1*float64(l)
	if l < len(s.Gamma) {
		gamma = s.Gamma[l]
	}
	if l < len(s.Beta) {
		beta = s.Beta[l]
	}
	return gamma, beta
}

// ConstraintMatrix converts a row-major matrix into a dense N×N matrix,
// checking it against the resource vector length.
func ConstraintMatrix(resources []float64, constraints [][]float64) (*mat.Dense, error) {
	n := len(resources)
	if n == 0 {
		return nil, ErrEmptyProblem
	}
	if len(constraints) != n {
		return nil, fmt.Errorf("%w: %d rows for %d resources", ErrDimensionMismatch, len(constraints), n)
	}
	m := mat.NewDense(n, n, nil)
	for i, row := range constraints {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrDimensionMismatch, i, len(row), n)
		}
		m.SetRow(i, row)
	}
	return m, nil
}

// EncodeAllocation builds the layered allocation instance. A nil
// constraints slice means no couplings. The result is a pure function
// of its inputs.
func EncodeAllocation(resources []float64, constraints [][]float64, sched Schedule, shots int) (*Instance, error) {
	n := len(resources)
	if n > MaxVariables {
		return nil, fmt.Errorf("%w: %d variables, limit %d", ErrTooLarge, n, MaxVariables)
	}
	if sched.Layers > MaxLayers {
		return nil, fmt.Errorf("%w: %d layers, limit %d", ErrTooLarge, sched.Layers, MaxLayers)
	}
	if constraints == nil {
		constraints = make([][]float64, n)
		for i := range constraints {
			constraints[i] = make([]float64, n)
		}
	}
	cm, err := ConstraintMatrix(resources, constraints)
	if err != nil {
		return nil, err
	}

	layers := sched.Layers
	if layers <= 0 {
		layers = 1
	}
	if shots <= 0 {
		shots = 1
	}

	payload := &AllocationPayload{
		Variables: n,
		Shots:     shots,
		Layers:    make([]Layer, 0, layers),
	}
	for l := 0; l < layers; l++ {
		gamma, beta := sched.angles(l)
		layer := Layer{
			Gamma:     gamma,
			Beta:      beta,
			Linear:    make([]Linear, n),
			Couplings: []Coupling{},
		}
		for i := 0; i < n; i++ {
			w := gamma * resources[i]
			if !isFinite(w) {
				return nil, fmt.Errorf("%w: layer %d resource %d", ErrNonFinite, l, i)
			}
			layer.Linear[i] = Linear{Index: i, Weight: w}
			for j := i + 1; j < n; j++ {
				if c := cm.At(i, j); c != 0 {
					if !isFinite(gamma * c) {
						return nil, fmt.Errorf("%w: layer %d coupling (%d,%d)", ErrNonFinite, l, i, j)
					}
					layer.Couplings = append(layer.Couplings, Coupling{I: i, J: j, Weight: gamma * c})
				}
			}
		}
		payload.Layers = append(payload.Layers, layer)
	}

	return &Instance{Kind: KindAllocation, Allocation: payload}, nil
}

func isFinite(v float64) bool {
	return !math.IsInf(v, 0) && !math.IsNaN(v)
}

// EncodeSearch builds a search instance
func EncodeSearch(database []string, target string) *Instance {
	db := make([]string, len(database))
	copy(db, database)
	return &Instance{
		Kind:   KindSearch,
		Search: &SearchPayload{Database: db, Target: target},
	}
}

// EncodeKeyGeneration builds a key generation instance
func EncodeKeyGeneration(bits int) (*Instance, error) {
	if bits <= 0 {
		return nil, ErrInvalidKeyLength
	}
	return &Instance{
		Kind:          KindKeyGeneration,
		KeyGeneration: &KeyGenerationPayload{Bits: bits},
	}, nil
}
