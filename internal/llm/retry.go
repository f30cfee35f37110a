package llm

import (
	"context"
	"fmt"
	"time"
)

// Generate runs fn up to attempts times, waiting delay between tries,
// and returns the first successful result. Non-retryable errors stop
// the loop immediately. When every attempt fails, fallback (if non-nil)
// supplies the result instead; a nil fallback makes the last error
// terminal.
//
// This is the degraded-over-failed policy the analysis pipeline relies
// on: a templated fallback answer is better than a 500.
func Generate(ctx context.Context, attempts int, delay time.Duration, fn func(context.Context) (string, error), fallback func(error) string) (string, error) {
	if attempts < 1 {
		attempts = 1
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if attempt > 1 {
			select {
			case <-ctx.Done():
				return "", fmt.Errorf("llm: cancelled during retry wait: %w", ctx.Err())
			case <-time.After(delay):
			}
		}

		result, err := fn(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if !Retryable(err) {
			break
		}
	}

	if fallback != nil {
		return fallback(lastErr), nil
	}
	return "", fmt.Errorf("llm: exhausted %d attempts: %w", attempts, lastErr)
}
