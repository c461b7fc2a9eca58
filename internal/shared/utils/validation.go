package utils

import (
	"fmt"
	"math"
	"net/url"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/GriffinCanCode/QuantumBrowser/backend/internal/quantum/problem"
)

// Request size limits
const (
	MaxJSONSize      = 1 * 1024 * 1024      // request body limit
	MaxHTMLSize      = 2 * 1024 * 1024      // inline or fetched page
	MaxVariables     = problem.MaxVariables // allocation vector length
	MaxKeyBits       = 4096
	MaxDatabaseSize  = 10000
	MaxDatabaseBytes = 64 << 10 // summed entry lengths
	MaxIDLength      = 128
	MaxQueryLength   = 512
	MaxURLLength     = 2048
)

var (
	// ToolIDPattern allows alphanumeric, hyphens, underscores, and dots (for service.tool format)
	ToolIDPattern = regexp.MustCompile(`^[a-zA-Z0-9._-]+$`)
	// CategoryPattern allows lowercase letters, numbers, and hyphens
	CategoryPattern = regexp.MustCompile(`^[a-z0-9-]+$`)
)

// ValidateString validates a string field with length and content checks
func ValidateString(value, fieldName string, minLen, maxLen int, required bool) error {
	if required && value == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	if value == "" {
		return nil
	}

	length := utf8.RuneCountInString(value)
	if length < minLen {
		return fmt.Errorf("%s must be at least %d characters", fieldName, minLen)
	}
	if length > maxLen {
		return fmt.Errorf("%s must not exceed %d characters", fieldName, maxLen)
	}
	if strings.Contains(value, "\x00") {
		return fmt.Errorf("%s contains invalid characters", fieldName)
	}
	return nil
}

// ValidateToolID validates a service.tool identifier
func ValidateToolID(id string) error {
	if err := ValidateString(id, "tool_id", 1, MaxIDLength, true); err != nil {
		return err
	}
	if !ToolIDPattern.MatchString(id) || !strings.Contains(id, ".") {
		return fmt.Errorf("tool_id must have the form service.tool")
	}
	return nil
}

// ValidateCategory validates an optional category filter
func ValidateCategory(category string) error {
	if err := ValidateString(category, "category", 0, 64, false); err != nil {
		return err
	}
	if category != "" && !CategoryPattern.MatchString(category) {
		return fmt.Errorf("category must contain only lowercase letters, numbers, and hyphens")
	}
	return nil
}

// ValidateQuery validates a discovery query
func ValidateQuery(query string) error {
	return ValidateString(query, "query", 1, MaxQueryLength, true)
}

// ValidateVector checks length bounds and that every value is finite
func ValidateVector(values []float64, fieldName string) error {
	if len(values) == 0 {
		return fmt.Errorf("%s must not be empty", fieldName)
	}
	if len(values) > MaxVariables {
		return fmt.Errorf("%s must not exceed %d values", fieldName, MaxVariables)
	}
	for i, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s[%d] is not a finite number", fieldName, i)
		}
	}
	return nil
}

// ValidateMatrix checks that matrix is n×n with finite entries. An empty
// matrix is allowed.
func ValidateMatrix(matrix [][]float64, n int, fieldName string) error {
	if len(matrix) == 0 {
		return nil
	}
	if len(matrix) != n {
		return fmt.Errorf("%s must have %d rows, got %d", fieldName, n, len(matrix))
	}
	for i, row := range matrix {
		if len(row) != n {
			return fmt.Errorf("%s row %d must have %d columns, got %d", fieldName, i, n, len(row))
		}
		for j, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("%s[%d][%d] is not a finite number", fieldName, i, j)
			}
		}
	}
	return nil
}

// ValidateKeyBits checks a requested key length
func ValidateKeyBits(bits int) error {
	if bits <= 0 || bits > MaxKeyBits {
		return fmt.Errorf("bits must be between 1 and %d", MaxKeyBits)
	}
	return nil
}

// ValidateDatabase checks a search database size
func ValidateDatabase(db []string) error {
	if len(db) == 0 {
		return fmt.Errorf("database must not be empty")
	}
	if len(db) > MaxDatabaseSize {
		return fmt.Errorf("database must not exceed %d entries", MaxDatabaseSize)
	}
	var total int
	for _, entry := range db {
		total += len(entry)
	}
	if total > MaxDatabaseBytes {
		return fmt.Errorf("database must not exceed %d bytes", MaxDatabaseBytes)
	}
	return nil
}

// ValidateURL checks for an absolute http(s) URL
func ValidateURL(raw, fieldName string, required bool) error {
	if err := ValidateString(raw, fieldName, 1, MaxURLLength, required); err != nil {
		return err
	}
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("%s is not a valid URL: %w", fieldName, err)
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("%s must be an absolute http or https URL", fieldName)
	}
	return nil
}
