package quantum

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/history"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	bridge "github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/types"
)

// brokenBridge fails every backend call
type brokenBridge struct {
	err    error
	resets int
}

func (b *brokenBridge) RunSearch(context.Context, []string, string) (string, bool, error) {
	return "", false, b.err
}

func (b *brokenBridge) GenerateKey(context.Context, int) (string, error) {
	return "", b.err
}

func (b *brokenBridge) Allocate(context.Context, []float64, [][]float64) (*bridge.Outcome, error) {
	return nil, b.err
}

func (b *brokenBridge) State() bridge.State {
	return bridge.State{Variant: resilience.VariantFallback.String()}
}

func (b *brokenBridge) Reset() { b.resets++ }

func simulatorProvider(t *testing.T) (*Provider, history.Store) {
	t.Helper()
	store := history.NewMemoryStore(10)
	b := bridge.NewBridge(bridge.NewSimulator(nil), nil, bridge.Options{
		OnAllocation: history.Observer(store, nil),
	})
	return NewProvider(b, store, nil), store
}

func execute(t *testing.T, p *Provider, tool string, params map[string]interface{}) *types.Result {
	t.Helper()
	res, err := p.Execute(context.Background(), tool, params, &types.Context{})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestDefinition(t *testing.T) {
	p, _ := simulatorProvider(t)
	def := p.Definition()

	assert.Equal(t, "quantum", def.ID)
	assert.Equal(t, types.CategoryOptimization, def.Category)
	for _, tool := range def.Tools {
		res := execute(t, p, tool.ID, map[string]interface{}{
			"resources": []interface{}{0.5},
			"database":  []interface{}{"a"},
			"target":    "a",
			"bits":      4.0,
		})
		assert.True(t, res.Success, tool.ID)
	}
}

func TestOptimizeAllocation(t *testing.T) {
	p, store := simulatorProvider(t)

	res := execute(t, p, "quantum.optimize_allocation", map[string]interface{}{
		"resources":   []interface{}{0.8, 0.6, 0.4, 0.2},
		"constraints": []interface{}{[]interface{}{0.0, -0.5, 0.0, 0.0}, []interface{}{-0.5, 0.0, 0.0, 0.0}, []interface{}{0.0, 0.0, 0.0, 0.0}, []interface{}{0.0, 0.0, 0.0, 0.0}},
	})
	require.True(t, res.Success)

	alloc, ok := res.Data["allocation"].([]int)
	require.True(t, ok)
	require.Len(t, alloc, 4)
	for _, bit := range alloc {
		assert.Contains(t, []int{0, 1}, bit)
	}
	assert.Equal(t, string(bridge.SourcePrimary), res.Data["source"])
	assert.Equal(t, true, res.Data["used_primary_backend"])

	records, err := store.Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, alloc, records[0].Allocation)

	hist := execute(t, p, "quantum.history", map[string]interface{}{"limit": 5.0})
	require.True(t, hist.Success)
	assert.Equal(t, 1, hist.Data["count"])
}

func TestOptimizeAllocationRejectsInput(t *testing.T) {
	p, _ := simulatorProvider(t)

	tests := []struct {
		name   string
		params map[string]interface{}
	}{
		{"missing resources", map[string]interface{}{}},
		{"empty resources", map[string]interface{}{"resources": []interface{}{}}},
		{"non numeric", map[string]interface{}{"resources": []interface{}{"a"}}},
		{"ragged constraints", map[string]interface{}{
			"resources":   []interface{}{0.1, 0.2},
			"constraints": []interface{}{[]interface{}{0.0}},
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := execute(t, p, "quantum.optimize_allocation", tt.params)
			assert.False(t, res.Success)
			assert.NotNil(t, res.Error)
		})
	}
}

func TestSearchAndKey(t *testing.T) {
	p, _ := simulatorProvider(t)

	hit := execute(t, p, "quantum.search", map[string]interface{}{
		"database": []interface{}{"alpha", "beta", "gamma"},
		"target":   "beta",
	})
	require.True(t, hit.Success)
	assert.Equal(t, true, hit.Data["found"])
	assert.Equal(t, "beta", hit.Data["result"])

	miss := execute(t, p, "quantum.search", map[string]interface{}{
		"database": []interface{}{"alpha"},
		"target":   "delta",
	})
	require.True(t, miss.Success)
	assert.Equal(t, false, miss.Data["found"])
	assert.NotContains(t, miss.Data, "result")

	key := execute(t, p, "quantum.generate_key", map[string]interface{}{"bits": 12.0})
	require.True(t, key.Success)
	assert.Regexp(t, `^[01]{12}$`, key.Data["key"])

	bad := execute(t, p, "quantum.generate_key", map[string]interface{}{"bits": 0.0})
	assert.False(t, bad.Success)
}

func TestBackendFailures(t *testing.T) {
	exhausted := &resilience.ExhaustedError{Attempts: 2, Err: errors.New("crashed")}
	b := &brokenBridge{err: fmt.Errorf("bridge: %w", exhausted)}
	p := NewProvider(b, nil, nil)

	tests := []struct {
		tool   string
		params map[string]interface{}
	}{
		{"quantum.search", map[string]interface{}{"database": []interface{}{"a"}, "target": "a"}},
		{"quantum.generate_key", map[string]interface{}{"bits": 8.0}},
		{"quantum.optimize_allocation", map[string]interface{}{"resources": []interface{}{0.3}}},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			res := execute(t, p, tt.tool, tt.params)
			assert.False(t, res.Success)
			require.NotNil(t, res.Error)
			assert.Contains(t, *res.Error, "backend unavailable")
		})
	}

	state := execute(t, p, "quantum.state", nil)
	assert.Equal(t, "fallback", state.Data["variant"])

	reset := execute(t, p, "quantum.reset", nil)
	assert.Equal(t, "primary", reset.Data["variant"])
	assert.Equal(t, 1, b.resets)

	noHistory := execute(t, p, "quantum.history", nil)
	assert.False(t, noHistory.Success)

	unknown := execute(t, p, "quantum.teleport", nil)
	assert.False(t, unknown.Success)
}

func TestOutcomeData(t *testing.T) {
	energy := -1.25
	data := OutcomeData(&bridge.Outcome{
		Allocation: []int{1, 0},
		Source:     bridge.SourceClassical,
		Energy:     &energy,
		Cause:      errors.New("primary crashed"),
	})
	assert.Equal(t, "classical", data["source"])
	assert.Equal(t, -1.25, data["energy"])
	assert.Equal(t, "primary crashed", data["fallback_reason"])
}
