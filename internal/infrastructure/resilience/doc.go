/*
Package resilience provides the primary/fallback supervisor used for graceful degradation.

# Overview

A Supervisor runs requests against a primary variant of a backend. The first
recoverable failure flips the supervisor to the fallback variant and the request is
re-issued there immediately. Further fallback failures are retried with a fixed
backoff until the retry budget is spent, at which point ErrExhausted is returned.

The flip is sticky and process wide: every call that starts after it uses the
fallback variant. Only Reset restores the primary variant.

# Usage

	sup := resilience.NewSupervisor("bridge", resilience.Settings{
		MaxRetries: 1,
		Backoff:    500 * time.Millisecond,
		Retryable: func(err error) bool {
			return !errors.Is(err, quantum.ErrSizeMismatch)
		},
		OnVariantChange: func(name string, from, to resilience.Variant) {
			logger.Warn("variant changed", zap.Stringer("from", from), zap.Stringer("to", to))
		},
	})

	result, err := sup.Execute(ctx, func(ctx context.Context, v resilience.Variant) (interface{}, error) {
		return backend.Invoke(ctx, v, instance)
	})

# States

	Primary --[recoverable failure]-> Fallback --[Reset]-> Primary

Within one call on the fallback variant:

	attempt --[failure, retries > 0]-> backoff -> attempt
	attempt --[failure, retries == 0]-> ErrExhausted
*/
package resilience
