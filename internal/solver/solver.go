package solver

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math"
	mrand "math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
	"gonum.org/v1/gonum/stat/distuv"
)

// Variant selects which solver program answers a request
type Variant string

const (
	// Primary samples the layered problem many times and reports counts
	Primary Variant = "primary"
	// Fallback draws a single outcome without shot statistics
	Fallback Variant = "fallback"
)

// fallbackConfidence is what the degraded search reports for a hit
const fallbackConfidence = 0.95

var ErrMalformedProblem = errors.New("malformed problem")

// Solver executes problem instances. It is safe for concurrent use.
type Solver struct {
	mu  sync.Mutex
	src mrand.Source
}

// New creates a solver. A zero seed derives one from the clock.
func New(seed uint64) *Solver {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return &Solver{src: mrand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
}

// Solve runs the instance on the given variant
func (s *Solver) Solve(v Variant, in *problem.Instance) (*problem.Output, error) {
	if v != Primary && v != Fallback {
		return nil, fmt.Errorf("unknown variant: %q", v)
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	switch in.Kind {
	case problem.KindSearch:
		return s.search(v, in.Search), nil
	case problem.KindKeyGeneration:
		return s.generateKey(v, in.KeyGeneration.Bits)
	case problem.KindAllocation:
		return s.allocate(v, in.Allocation)
	default:
		return nil, problem.ErrUnknownKind
	}
}

func (s *Solver) search(v Variant, p *problem.SearchPayload) *problem.Output {
	found := false
	out := &problem.Output{UsedPrimaryBackend: v == Primary, Found: &found}

	idx := -1
	for i, item := range p.Database {
		if item == p.Target {
			idx = i
			break
		}
	}
	if idx < 0 {
		return out
	}

	found = true
	result := p.Database[idx]
	confidence := fallbackConfidence
	if v == Primary {
		confidence = amplificationProbability(len(p.Database))
	}
	out.Result = &result
	out.Confidence = &confidence
	return out
}

// amplificationProbability is the success probability of an amplitude
// amplification search over a space padded to the next power of two,
// using the optimal iteration count floor(pi/4 * sqrt(N)).
func amplificationProbability(size int) float64 {
	if size <= 1 {
		return 1
	}
	qubits := math.Ceil(math.Log2(float64(size)))
	space := math.Pow(2, qubits)
	theta := math.Asin(1 / math.Sqrt(space))
	iterations := math.Floor(math.Pi / 4 * math.Sqrt(space))
	p := math.Sin((2*iterations + 1) * theta)
	return p * p
}

func (s *Solver) generateKey(v Variant, bits int) (*problem.Output, error) {
	buf := make([]byte, (bits+7)/8)
	if _, err := rand.Read(buf); err != nil {
		return nil, fmt.Errorf("failed to read entropy: %w", err)
	}

	var sb strings.Builder
	sb.Grow(len(buf) * 8)
	for _, b := range buf {
		fmt.Fprintf(&sb, "%08b", b)
	}
	key := sb.String()[:bits]

	return &problem.Output{UsedPrimaryBackend: v == Primary, Key: &key}, nil
}

func (s *Solver) allocate(v Variant, p *problem.AllocationPayload) (*problem.Output, error) {
	probs, err := Probabilities(p)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	coins := make([]distuv.Bernoulli, len(probs))
	for i, pr := range probs {
		coins[i] = distuv.Bernoulli{P: pr, Src: s.src}
	}

	if v == Fallback {
		outcome := sample(coins)
		return &problem.Output{Allocation: &outcome, Energy: finite(Energy(p, outcome))}, nil
	}

	shots := p.Shots
	if shots <= 0 {
		shots = 1
	}
	counts := make(map[string]int)
	for i := 0; i < shots; i++ {
		counts[sample(coins)]++
	}
	return &problem.Output{UsedPrimaryBackend: true, Counts: counts, Energy: finite(Energy(p, modal(counts)))}, nil
}

// finite returns nil for energies that overflowed and cannot be encoded
func finite(e float64) *float64 {
	if math.IsInf(e, 0) || math.IsNaN(e) {
		return nil
	}
	return &e
}

func sample(coins []distuv.Bernoulli) string {
	var sb strings.Builder
	sb.Grow(len(coins))
	for _, c := range coins {
		if c.Rand() == 1 {
			sb.WriteByte('1')
		} else {
			sb.WriteByte('0')
		}
	}
	return sb.String()
}

// modal returns the most frequent outcome, smallest bit-string on ties
func modal(counts map[string]int) string {
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	best, bestCount := "", -1
	for _, k := range keys {
		if counts[k] > bestCount {
			best, bestCount = k, counts[k]
		}
	}
	return best
}

// Probabilities derives the per-variable probability of drawing a 1.
// The accumulated field of each variable (its linear weights plus half of
// every coupling it takes part in) is normalized by the total gamma and
// blended towards 0.5 by the mean mixer strength sin^2(beta).
func Probabilities(p *problem.AllocationPayload) ([]float64, error) {
	n := p.Variables
	if n <= 0 {
		return nil, problem.ErrEmptyProblem
	}

	field := make([]float64, n)
	var gammaSum, mix float64
	for li, layer := range p.Layers {
		gammaSum += layer.Gamma
		for _, lin := range layer.Linear {
			if lin.Index < 0 || lin.Index >= n {
				return nil, fmt.Errorf("%w: layer %d linear index %d out of range", ErrMalformedProblem, li, lin.Index)
			}
			field[lin.Index] += lin.Weight
		}
		for _, c := range layer.Couplings {
			if c.I < 0 || c.I >= n || c.J < 0 || c.J >= n {
				return nil, fmt.Errorf("%w: layer %d coupling (%d,%d) out of range", ErrMalformedProblem, li, c.I, c.J)
			}
			field[c.I] += c.Weight / 2
			field[c.J] += c.Weight / 2
		}
		sb := math.Sin(layer.Beta)
		mix += sb * sb
	}
	if len(p.Layers) > 0 {
		mix /= float64(len(p.Layers))
	}
	if gammaSum == 0 {
		gammaSum = 1
	}

	probs := make([]float64, n)
	for i, h := range field {
		x := math.Min(1, math.Max(0, h/gammaSum))
		if math.IsNaN(x) {
			// opposing overflows carry no preference
			x = 0.5
		}
		probs[i] = x*(1-mix) + 0.5*mix
	}
	return probs, nil
}

// Energy evaluates the layered cost of an outcome
func Energy(p *problem.AllocationPayload, outcome string) float64 {
	bit := func(i int) float64 {
		if i < len(outcome) && outcome[i] == '1' {
			return 1
		}
		return 0
	}

	var e float64
	for _, layer := range p.Layers {
		for _, lin := range layer.Linear {
			e += lin.Weight * bit(lin.Index)
		}
		for _, c := range layer.Couplings {
			e += c.Weight * bit(c.I) * bit(c.J)
		}
	}
	return e
}
