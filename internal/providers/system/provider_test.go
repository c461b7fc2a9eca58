package system

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/performance"
	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/types"
)

type fixedSampler struct {
	sample performance.SystemSample
	err    error
}

func (f fixedSampler) SampleSystem(context.Context) (performance.SystemSample, error) {
	return f.sample, f.err
}

func run(t *testing.T, p *Provider, tool string, params map[string]interface{}) *types.Result {
	t.Helper()
	res, err := p.Execute(context.Background(), tool, params, &types.Context{RequestID: "req_test"})
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func TestSystemInfo(t *testing.T) {
	sys := NewProvider(nil)

	tests := []struct {
		tool string
		key  string
	}{
		{"system.info", "go_version"},
		{"system.time", "timestamp"},
		{"system.ping", "pong"},
	}
	for _, tt := range tests {
		t.Run(tt.tool, func(t *testing.T) {
			res := run(t, sys, tt.tool, nil)
			require.True(t, res.Success)
			assert.Contains(t, res.Data, tt.key)
		})
	}
}

func TestSystemLoad(t *testing.T) {
	sys := NewProvider(fixedSampler{sample: performance.SystemSample{CPU: 40, Memory: 62.5, Storage: 1.5}})
	res := run(t, sys, "system.load", nil)
	require.True(t, res.Success)
	assert.Equal(t, 40.0, res.Data["cpu_percent"])
	assert.Equal(t, 62.5, res.Data["memory_percent"])

	failing := NewProvider(fixedSampler{err: errors.New("no /proc")})
	assert.False(t, run(t, failing, "system.load", nil).Success)

	assert.False(t, run(t, NewProvider(nil), "system.load", nil).Success)
}

func TestSystemLog(t *testing.T) {
	sys := NewProvider(nil)

	require.True(t, run(t, sys, "system.log", map[string]interface{}{"message": "first"}).Success)
	sys.Record("warn", "Backend variant changed", map[string]interface{}{"to": "fallback"})
	require.True(t, run(t, sys, "system.log", map[string]interface{}{"message": "third", "level": "error"}).Success)
	assert.False(t, run(t, sys, "system.log", map[string]interface{}{}).Success)

	res := run(t, sys, "system.getLogs", map[string]interface{}{"limit": 10.0})
	require.True(t, res.Success)
	logs := res.Data["logs"].([]LogEntry)
	require.Len(t, logs, 3)
	assert.Equal(t, "third", logs[0].Message)
	assert.Equal(t, "req_test", logs[0].RequestID)
	assert.Equal(t, "fallback", logs[1].Context["to"])

	res = run(t, sys, "system.getLogs", map[string]interface{}{"level": "warn"})
	logs = res.Data["logs"].([]LogEntry)
	require.Len(t, logs, 1)
	assert.Equal(t, "Backend variant changed", logs[0].Message)
}

func TestCircularLogBufferWraps(t *testing.T) {
	cb := NewCircularLogBuffer(2)
	for _, msg := range []string{"a", "b", "c"} {
		cb.Add(&LogEntry{Message: msg, Level: "info"})
	}
	logs := cb.GetRecent(10, "")
	require.Len(t, logs, 2)
	assert.Equal(t, "c", logs[0].Message)
	assert.Equal(t, "b", logs[1].Message)
}

func TestUnknownTool(t *testing.T) {
	assert.False(t, run(t, NewProvider(nil), "system.reboot", nil).Success)
}
