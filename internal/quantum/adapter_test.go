package quantum

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/infrastructure/resilience"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/solver"
)

// helperEnv turns the test binary into a fake solver executable
const helperEnv = "QSOLVER_HELPER_MODE"

func TestMain(m *testing.M) {
	if mode := os.Getenv(helperEnv); mode != "" {
		os.Exit(runHelper(mode, os.Args[1:]))
	}
	os.Exit(m.Run())
}

func runHelper(mode string, args []string) int {
	if len(args) != 2 {
		fmt.Fprintln(os.Stderr, "usage: <entry> <problem-json>")
		return 2
	}
	entry, payload := args[0], args[1]

	switch mode {
	case "crash":
		fmt.Fprintln(os.Stderr, "segmentation fault")
		return 139
	case "garbage":
		fmt.Println("device ready")
		return 0
	case "error":
		fmt.Println(`{"usedPrimaryBackend":false,"error":"no device"}`)
		return 0
	case "short":
		fmt.Println(`{"usedPrimaryBackend":true,"allocation":"1"}`)
		return 0
	case "ints":
		fmt.Fprintln(os.Stderr, "warning: running on simulator")
		fmt.Println(`{"usedPrimaryBackend":false,"allocation":[1,0,1]}`)
		return 0
	case "hang":
		time.Sleep(time.Minute)
		return 0
	case "primary-down":
		if entry == "primary" {
			fmt.Fprintln(os.Stderr, "primary backend unavailable")
			return 1
		}
	}

	in, err := problem.Unmarshal([]byte(payload))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	out, err := solver.New(1).Solve(solver.Variant(entry), in)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	data, err := problem.MarshalOutput(out)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Println(string(data))
	return 0
}

func helperAdapter(t *testing.T, mode string, timeout time.Duration) *ProcessAdapter {
	t.Helper()
	exe, err := os.Executable()
	require.NoError(t, err)
	return NewProcessAdapter(ProcessConfig{
		Executable:    exe,
		PrimaryEntry:  string(solver.Primary),
		FallbackEntry: string(solver.Fallback),
		Timeout:       timeout,
		Env:           []string{helperEnv + "=" + mode},
	}, nil)
}

func threeVariables(t *testing.T) *problem.Instance {
	t.Helper()
	in, err := problem.EncodeAllocation([]float64{0.9, 0.1, 0.7}, nil, problem.DefaultSchedule(), 64)
	require.NoError(t, err)
	return in
}

func TestProcessAdapterSuccess(t *testing.T) {
	tests := []struct {
		name        string
		variant     resilience.Variant
		wantPrimary bool
	}{
		{"primary", resilience.VariantPrimary, true},
		{"fallback", resilience.VariantFallback, false},
	}

	adapter := helperAdapter(t, "solve", 10*time.Second)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := adapter.Invoke(context.Background(), tt.variant, threeVariables(t))
			require.NoError(t, err)
			assert.Len(t, res.Allocation, 3)
			assert.Equal(t, tt.wantPrimary, res.UsedPrimaryBackend)
			assert.Equal(t, tt.variant, res.Variant)
			assert.NotEmpty(t, res.Raw)
		})
	}
}

func TestProcessAdapterKeyGeneration(t *testing.T) {
	adapter := helperAdapter(t, "solve", 10*time.Second)
	in, err := problem.EncodeKeyGeneration(8)
	require.NoError(t, err)

	res, err := adapter.Invoke(context.Background(), resilience.VariantPrimary, in)
	require.NoError(t, err)
	assert.Len(t, res.Key, 8)
}

func TestProcessAdapterIntegerAllocation(t *testing.T) {
	adapter := helperAdapter(t, "ints", 10*time.Second)
	res, err := adapter.Invoke(context.Background(), resilience.VariantFallback, threeVariables(t))
	require.NoError(t, err)
	assert.Equal(t, []int{1, 0, 1}, res.Allocation)
}

func TestProcessAdapterFailures(t *testing.T) {
	tests := []struct {
		mode        string
		wantErr     error
		diagnostics string
	}{
		{mode: "crash", wantErr: ErrBackend, diagnostics: "segmentation fault"},
		{mode: "garbage", wantErr: ErrProtocol},
		{mode: "error", wantErr: ErrProtocol},
		{mode: "short", wantErr: ErrSizeMismatch},
		{mode: "primary-down", wantErr: ErrBackend, diagnostics: "primary backend unavailable"},
	}

	for _, tt := range tests {
		t.Run(tt.mode, func(t *testing.T) {
			adapter := helperAdapter(t, tt.mode, 10*time.Second)
			_, err := adapter.Invoke(context.Background(), resilience.VariantPrimary, threeVariables(t))
			require.ErrorIs(t, err, tt.wantErr)

			var f *Failure
			require.ErrorAs(t, err, &f)
			if tt.diagnostics != "" {
				assert.Equal(t, tt.diagnostics, f.Diagnostics)
			}
		})
	}
}

func TestProcessAdapterTimeout(t *testing.T) {
	adapter := helperAdapter(t, "hang", 200*time.Millisecond)

	start := time.Now()
	_, err := adapter.Invoke(context.Background(), resilience.VariantPrimary, threeVariables(t))
	assert.ErrorIs(t, err, ErrBackend)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 10*time.Second)
}

func TestProcessAdapterSpawnFailure(t *testing.T) {
	adapter := NewProcessAdapter(ProcessConfig{Executable: "/nonexistent/qsolver"}, nil)
	_, err := adapter.Invoke(context.Background(), resilience.VariantPrimary, threeVariables(t))
	assert.ErrorIs(t, err, ErrBackend)
}

func TestProcessAdapterRejectsInvalidInstance(t *testing.T) {
	adapter := helperAdapter(t, "solve", time.Second)
	_, err := adapter.Invoke(context.Background(), resilience.VariantPrimary, &problem.Instance{Kind: "teleport"})
	assert.ErrorIs(t, err, problem.ErrUnknownKind)
	assert.False(t, recoverable(err))
}

func TestProcessAdapterEntry(t *testing.T) {
	adapter := NewProcessAdapter(ProcessConfig{}, nil)
	assert.Equal(t, "primary", adapter.Entry(resilience.VariantPrimary))
	assert.Equal(t, "fallback", adapter.Entry(resilience.VariantFallback))
}

// denseWorstCase builds the largest allocation the limits allow, with
// full-precision weights so every number encodes at its longest.
func denseWorstCase(t *testing.T) *problem.Instance {
	t.Helper()
	n := problem.MaxVariables
	resources := make([]float64, n)
	constraints := make([][]float64, n)
	for i := range constraints {
		resources[i] = -1.2345678901234567e+300
		constraints[i] = make([]float64, n)
		for j := range constraints[i] {
			constraints[i][j] = -9.876543210987654e+299
		}
	}
	sched := problem.Schedule{
		Layers: problem.MaxLayers,
		Gamma:  []float64{0.123456789012345, 0.234567890123456, 0.345678901234567, 0.456789012345678},
		Beta:   []float64{0.987654321098765, 0.876543210987654, 0.765432109876543, 0.654321098765432},
	}
	in, err := problem.EncodeAllocation(resources, constraints, sched, 1<<20)
	require.NoError(t, err)
	return in
}

func TestProcessAdapterLargestInstanceFitsArgument(t *testing.T) {
	in := denseWorstCase(t)
	data, err := problem.Marshal(in)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(data), problem.MaxWireBytes)

	adapter := helperAdapter(t, "solve", 30*time.Second)
	res, err := adapter.Invoke(context.Background(), resilience.VariantFallback, in)
	require.NoError(t, err)
	assert.Len(t, res.Allocation, problem.MaxVariables)
}

func TestProcessAdapterOversizedInstanceIsNotSpawned(t *testing.T) {
	db := make([]string, 4000)
	for i := range db {
		db[i] = fmt.Sprintf("https://example.com/%040d", i)
	}

	// crash mode would report a BackendError if the child ran
	adapter := helperAdapter(t, "crash", time.Second)
	_, err := adapter.Invoke(context.Background(), resilience.VariantPrimary, problem.EncodeSearch(db, "x"))
	require.ErrorIs(t, err, problem.ErrTooLarge)
	assert.NotErrorIs(t, err, ErrBackend)
	assert.False(t, recoverable(err))
}
