package resilience

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

var ErrExhausted = errors.New("fallback attempts exhausted")

// Variant identifies which backend build a call runs against
type Variant int

const (
	VariantPrimary Variant = iota
	VariantFallback
)

// String returns the string representation of the variant
func (v Variant) String() string {
	switch v {
	case VariantPrimary:
		return "primary"
	case VariantFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// Settings configures the supervisor behavior
type Settings struct {
	// MaxRetries is the number of backoff retries allowed on the fallback
	// variant after the first, free, fallback attempt. Zero disables retries.
	MaxRetries int
	// Backoff is the fixed wait between fallback retries
	Backoff time.Duration
	// Retryable reports whether a failure may trigger a variant flip or a
	// retry. Non-retryable failures are returned immediately.
	Retryable func(err error) bool
	// OnVariantChange is called whenever the active variant changes
	OnVariantChange func(name string, from Variant, to Variant)
	// OnAttempt is called after every attempt with its outcome
	OnAttempt func(name string, variant Variant, err error)
}

// DefaultSettings returns one retry with a 500ms backoff
func DefaultSettings() Settings {
	return Settings{
		MaxRetries: 1,
		Backoff:    500 * time.Millisecond,
	}
}

// Counts holds the statistics for the supervisor
type Counts struct {
	Calls            uint32 `json:"calls"`
	PrimaryAttempts  uint32 `json:"primaryAttempts"`
	FallbackAttempts uint32 `json:"fallbackAttempts"`
	Failures         uint32 `json:"failures"`
	Exhaustions      uint32 `json:"exhaustions"`
}

// ExhaustedError is returned once the fallback variant has used up its retries
type ExhaustedError struct {
	Attempts int
	Err      error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("%v after %d attempts: %v", ErrExhausted, e.Attempts, e.Err)
}

func (e *ExhaustedError) Unwrap() error { return e.Err }

// Is matches ErrExhausted
func (e *ExhaustedError) Is(target error) bool { return target == ErrExhausted }

// Supervisor runs requests against a primary variant and degrades to the
// fallback variant on failure. Degradation is sticky: once flipped, every
// call that starts afterwards uses the fallback variant until Reset.
type Supervisor struct {
	name     string
	settings Settings

	mu      sync.Mutex
	variant Variant
	counts  Counts
}

// NewSupervisor creates a supervisor in the primary variant
func NewSupervisor(name string, settings Settings) *Supervisor {
	if settings.MaxRetries < 0 {
		settings.MaxRetries = 0
	}
	if settings.Backoff < 0 {
		settings.Backoff = 0
	}
	if settings.Retryable == nil {
		settings.Retryable = func(error) bool { return true }
	}

	return &Supervisor{
		name:     name,
		settings: settings,
		variant:  VariantPrimary,
	}
}

// Name returns the name of the supervisor
func (s *Supervisor) Name() string {
	return s.name
}

// Settings returns the normalized settings
func (s *Supervisor) Settings() Settings {
	return s.settings
}

// Variant returns the variant new calls will start on
func (s *Supervisor) Variant() Variant {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.variant
}

// Counts returns a copy of the internal counts
func (s *Supervisor) Counts() Counts {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.counts
}

// Reset restores the primary variant
func (s *Supervisor) Reset() {
	s.setVariant(VariantPrimary)
}

// Execute runs req, flipping to the fallback variant on the first
// retryable failure and retrying with a fixed backoff until MaxRetries
// is used up.
func (s *Supervisor) Execute(ctx context.Context, req func(ctx context.Context, variant Variant) (interface{}, error)) (interface{}, error) {
	s.mu.Lock()
	s.counts.Calls++
	variant := s.variant
	s.mu.Unlock()

	retries := s.settings.MaxRetries
	attempts := 0

	for {
		attempts++
		result, err := req(ctx, variant)
		s.afterAttempt(variant, err)
		if err == nil {
			return result, nil
		}

		if !s.settings.Retryable(err) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, errors.Join(ctxErr, err)
		}

		if variant == VariantPrimary {
			// first fallback attempt does not consume a retry
			s.setVariant(VariantFallback)
			variant = VariantFallback
			continue
		}

		if retries == 0 {
			s.mu.Lock()
			s.counts.Exhaustions++
			s.mu.Unlock()
			return nil, &ExhaustedError{Attempts: attempts, Err: err}
		}

		if waitErr := wait(ctx, s.settings.Backoff); waitErr != nil {
			return nil, errors.Join(waitErr, err)
		}
		retries--
	}
}

// afterAttempt records the outcome of one attempt
func (s *Supervisor) afterAttempt(variant Variant, err error) {
	s.mu.Lock()
	switch variant {
	case VariantPrimary:
		s.counts.PrimaryAttempts++
	case VariantFallback:
		s.counts.FallbackAttempts++
	}
	if err != nil {
		s.counts.Failures++
	}
	s.mu.Unlock()

	if s.settings.OnAttempt != nil {
		s.settings.OnAttempt(s.name, variant, err)
	}
}

// setVariant changes the active variant
func (s *Supervisor) setVariant(to Variant) {
	s.mu.Lock()
	from := s.variant
	s.variant = to
	s.mu.Unlock()

	if from != to && s.settings.OnVariantChange != nil {
		s.settings.OnVariantChange(s.name, from, to)
	}
}

func wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
