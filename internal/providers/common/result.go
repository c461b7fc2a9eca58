package common

import (
	"fmt"
	"math"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/shared/types"
)

// Success creates successful result
func Success(data map[string]interface{}) (*types.Result, error) {
	return &types.Result{Success: true, Data: data}, nil
}

// Failure creates failed result
func Failure(message string) (*types.Result, error) {
	msg := message
	return &types.Result{Success: false, Error: &msg}, nil
}

// Failuref creates failed result from a format string
func Failuref(format string, args ...interface{}) (*types.Result, error) {
	return Failure(fmt.Sprintf(format, args...))
}

// GetString extracts string parameter
func GetString(params map[string]interface{}, key string, required bool) (string, error) {
	val, ok := params[key]
	if !ok || val == nil {
		if required {
			return "", fmt.Errorf("%s parameter required", key)
		}
		return "", nil
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("%s must be string", key)
	}

	if required && str == "" {
		return "", fmt.Errorf("%s cannot be empty", key)
	}

	return str, nil
}

// GetBool extracts bool parameter
func GetBool(params map[string]interface{}, key string, defaultVal bool) bool {
	b, ok := params[key].(bool)
	if !ok {
		return defaultVal
	}
	return b
}

// GetNumber extracts numeric parameter
func GetNumber(params map[string]interface{}, key string, required bool) (float64, error) {
	val, ok := params[key]
	if !ok || val == nil {
		if required {
			return 0, fmt.Errorf("%s parameter required", key)
		}
		return 0, nil
	}
	if f, ok := toFloat(val); ok {
		return f, nil
	}
	return 0, fmt.Errorf("%s must be number", key)
}

// GetInt extracts an integral numeric parameter
func GetInt(params map[string]interface{}, key string, required bool) (int, error) {
	f, err := GetNumber(params, key, required)
	if err != nil {
		return 0, err
	}
	if f != math.Trunc(f) {
		return 0, fmt.Errorf("%s must be an integer", key)
	}
	return int(f), nil
}

// GetMap extracts map parameter
func GetMap(params map[string]interface{}, key string) map[string]interface{} {
	m, _ := params[key].(map[string]interface{})
	return m
}

// GetArray extracts array parameter
func GetArray(params map[string]interface{}, key string) []interface{} {
	arr, _ := params[key].([]interface{})
	return arr
}

// GetFloats extracts a numeric array parameter
func GetFloats(params map[string]interface{}, key string, required bool) ([]float64, error) {
	val, ok := params[key]
	if !ok || val == nil {
		if required {
			return nil, fmt.Errorf("%s parameter required", key)
		}
		return nil, nil
	}
	if fs, ok := val.([]float64); ok {
		return fs, nil
	}
	arr, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of numbers", key)
	}
	out := make([]float64, len(arr))
	for i, v := range arr {
		f, ok := toFloat(v)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be number", key, i)
		}
		out[i] = f
	}
	return out, nil
}

// GetMatrix extracts an optional array of numeric arrays
func GetMatrix(params map[string]interface{}, key string) ([][]float64, error) {
	val, ok := params[key]
	if !ok || val == nil {
		return nil, nil
	}
	if m, ok := val.([][]float64); ok {
		return m, nil
	}
	rows, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of arrays", key)
	}
	out := make([][]float64, len(rows))
	for i, row := range rows {
		r, err := GetFloats(map[string]interface{}{"row": row}, "row", true)
		if err != nil {
			return nil, fmt.Errorf("%s row %d: %w", key, i, err)
		}
		out[i] = r
	}
	return out, nil
}

// GetStrings extracts a string array parameter
func GetStrings(params map[string]interface{}, key string, required bool) ([]string, error) {
	val, ok := params[key]
	if !ok || val == nil {
		if required {
			return nil, fmt.Errorf("%s parameter required", key)
		}
		return nil, nil
	}
	if ss, ok := val.([]string); ok {
		return ss, nil
	}
	arr, ok := val.([]interface{})
	if !ok {
		return nil, fmt.Errorf("%s must be an array of strings", key)
	}
	out := make([]string, len(arr))
	for i, v := range arr {
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("%s[%d] must be string", key, i)
		}
		out[i] = s
	}
	return out, nil
}

func toFloat(val interface{}) (float64, bool) {
	switch v := val.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}
