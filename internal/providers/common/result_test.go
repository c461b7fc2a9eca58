package common

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResults(t *testing.T) {
	ok, err := Success(map[string]interface{}{"a": 1})
	require.NoError(t, err)
	assert.True(t, ok.Success)
	assert.Nil(t, ok.Error)

	bad, err := Failuref("unknown tool: %s", "quantum.x")
	require.NoError(t, err)
	assert.False(t, bad.Success)
	require.NotNil(t, bad.Error)
	assert.Equal(t, "unknown tool: quantum.x", *bad.Error)
}

func TestGetString(t *testing.T) {
	params := map[string]interface{}{"s": "v", "empty": "", "n": 1.0}

	tests := []struct {
		key      string
		required bool
		want     string
		wantErr  bool
	}{
		{"s", true, "v", false},
		{"missing", false, "", false},
		{"missing", true, "", true},
		{"empty", true, "", true},
		{"n", false, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			got, err := GetString(params, tt.key, tt.required)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestGetNumbers(t *testing.T) {
	params := map[string]interface{}{"f": 2.5, "i": 8, "whole": 16.0, "s": "x", "b": true}

	f, err := GetNumber(params, "f", true)
	require.NoError(t, err)
	assert.Equal(t, 2.5, f)

	_, err = GetNumber(params, "s", true)
	assert.Error(t, err)

	n, err := GetInt(params, "i", true)
	require.NoError(t, err)
	assert.Equal(t, 8, n)

	n, err = GetInt(params, "whole", true)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	_, err = GetInt(params, "f", true)
	assert.Error(t, err)

	assert.True(t, GetBool(params, "b", false))
	assert.True(t, GetBool(params, "missing", true))
	assert.False(t, GetBool(params, "s", false))
}

func TestGetFloats(t *testing.T) {
	tests := []struct {
		name    string
		val     interface{}
		want    []float64
		wantErr bool
	}{
		{"json array", []interface{}{0.8, 1, 0.2}, []float64{0.8, 1, 0.2}, false},
		{"typed", []float64{1, 2}, []float64{1, 2}, false},
		{"not array", "0.8", nil, true},
		{"bad element", []interface{}{0.8, "x"}, nil, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := GetFloats(map[string]interface{}{"v": tt.val}, "v", true)
			assert.Equal(t, tt.wantErr, err != nil)
			assert.Equal(t, tt.want, got)
		})
	}

	got, err := GetFloats(map[string]interface{}{}, "v", false)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

func TestGetMatrix(t *testing.T) {
	m, err := GetMatrix(map[string]interface{}{
		"c": []interface{}{[]interface{}{0.0, -0.5}, []interface{}{-0.5, 0.0}},
	}, "c")
	require.NoError(t, err)
	assert.Equal(t, [][]float64{{0, -0.5}, {-0.5, 0}}, m)

	m, err = GetMatrix(map[string]interface{}{}, "c")
	require.NoError(t, err)
	assert.Nil(t, m)

	_, err = GetMatrix(map[string]interface{}{"c": []interface{}{"row"}}, "c")
	assert.Error(t, err)
}

func TestGetStrings(t *testing.T) {
	got, err := GetStrings(map[string]interface{}{"db": []interface{}{"a", "b"}}, "db", true)
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, got)

	_, err = GetStrings(map[string]interface{}{"db": []interface{}{"a", 2}}, "db", true)
	assert.Error(t, err)

	_, err = GetStrings(map[string]interface{}{}, "db", true)
	assert.Error(t, err)

	assert.Len(t, GetArray(map[string]interface{}{"a": []interface{}{1, 2}}, "a"), 2)
	assert.Nil(t, GetMap(map[string]interface{}{"m": 1}, "m"))
}
