package quantum

import "math"

const (
	DefaultCutoff  = 0.5
	DefaultTieBand = 0.05
)

// Classical is the deterministic thresholding optimizer used when no
// backend answer is available.
type Classical struct {
	Cutoff  float64
	TieBand float64
}

// NewClassical returns an optimizer with the default cutoff and tie band
func NewClassical() *Classical {
	return &Classical{Cutoff: DefaultCutoff, TieBand: DefaultTieBand}
}

// Optimize allocates every resource whose value clears the cutoff. Values
// within TieBand of the cutoff are decided by their summed coupling to the
// resources already allocated: positive allocates, negative rejects, zero
// keeps the plain threshold. Constraints that do not match the resource
// vector are ignored.
func (c *Classical) Optimize(resources []float64, constraints [][]float64) []int {
	n := len(resources)
	out := make([]int, n)
	if !square(constraints, n) {
		constraints = nil
	}

	var ties []int
	for i, v := range resources {
		switch {
		case constraints != nil && math.Abs(v-c.Cutoff) <= c.TieBand:
			ties = append(ties, i)
		case v > c.Cutoff:
			out[i] = 1
		}
	}

	for _, i := range ties {
		var pull float64
		for j := 0; j < n; j++ {
			if j != i && out[j] == 1 {
				pull += constraints[i][j]
			}
		}
		switch {
		case pull > 0:
			out[i] = 1
		case pull == 0 && resources[i] > c.Cutoff:
			out[i] = 1
		}
	}
	return out
}

func square(m [][]float64, n int) bool {
	if len(m) != n {
		return false
	}
	for _, row := range m {
		if len(row) != n {
			return false
		}
	}
	return true
}
