package utils

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateToolID(t *testing.T) {
	tests := []struct {
		id      string
		wantErr bool
	}{
		{"quantum.optimize_allocation", false},
		{"browser.optimize-page", false},
		{"", true},
		{"quantum", true},
		{"quantum.run search", true},
		{strings.Repeat("a", MaxIDLength) + ".x", true},
	}
	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidateToolID(tt.id) != nil)
		})
	}
}

func TestValidateCategory(t *testing.T) {
	assert.NoError(t, ValidateCategory(""))
	assert.NoError(t, ValidateCategory("optimization"))
	assert.Error(t, ValidateCategory("Optimization"))
}

func TestValidateVector(t *testing.T) {
	tests := []struct {
		name    string
		values  []float64
		wantErr bool
	}{
		{"ok", []float64{0.8, 0.6, -1, 2}, false},
		{"empty", nil, true},
		{"too long", make([]float64, MaxVariables+1), true},
		{"nan", []float64{0.1, math.NaN()}, true},
		{"inf", []float64{math.Inf(1)}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidateVector(tt.values, "resources") != nil)
		})
	}
}

func TestValidateMatrix(t *testing.T) {
	tests := []struct {
		name    string
		matrix  [][]float64
		n       int
		wantErr bool
	}{
		{"empty allowed", nil, 3, false},
		{"square", [][]float64{{0, -0.5}, {-0.5, 0}}, 2, false},
		{"wrong rows", [][]float64{{0, 1}}, 2, true},
		{"ragged", [][]float64{{0, 1}, {1}}, 2, true},
		{"nan", [][]float64{{0, math.NaN()}, {0, 0}}, 2, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidateMatrix(tt.matrix, tt.n, "constraints") != nil)
		})
	}
}

func TestValidateScalars(t *testing.T) {
	assert.NoError(t, ValidateKeyBits(8))
	assert.Error(t, ValidateKeyBits(0))
	assert.Error(t, ValidateKeyBits(MaxKeyBits+1))

	assert.NoError(t, ValidateDatabase([]string{"a"}))
	assert.Error(t, ValidateDatabase(nil))
	assert.Error(t, ValidateDatabase([]string{strings.Repeat("x", MaxDatabaseBytes+1)}))

	assert.NoError(t, ValidateQuery("optimize page load"))
	assert.Error(t, ValidateQuery(""))
	assert.Error(t, ValidateString("a\x00b", "field", 0, 10, false))
}

func TestValidateURL(t *testing.T) {
	tests := []struct {
		url      string
		required bool
		wantErr  bool
	}{
		{"https://example.com/page", true, false},
		{"http://localhost:8080", true, false},
		{"", false, false},
		{"", true, true},
		{"ftp://example.com", true, true},
		{"/relative/path", true, true},
		{"https://", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			assert.Equal(t, tt.wantErr, ValidateURL(tt.url, "url", tt.required) != nil)
		})
	}
}
