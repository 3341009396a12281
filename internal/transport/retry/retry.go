// Package retry is the bounded exponential backoff shared by the
// outbound HTTP clients.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Config bounds the retry loop for an external call.
type Config struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
}

// DefaultConfig is used when configuration leaves retry unset.
func DefaultConfig() Config {
	return Config{MaxAttempts: 3, InitialDelay: 200 * time.Millisecond, MaxDelay: 2 * time.Second}
}

// transient marks a failure worth retrying (network errors, 429, 5xx).
type transient struct {
	err error
}

func (e *transient) Error() string { return e.err.Error() }
func (e *transient) Unwrap() error { return e.err }

// Mark flags err as transient so Do reattempts it.
func Mark(err error) error { return &transient{err} }

// Do runs fn with exponential backoff. Only failures flagged by Mark are
// reattempted; everything else propagates immediately.
func Do(ctx context.Context, cfg Config, fn func() error) error {
	if cfg.MaxAttempts <= 0 {
		cfg = DefaultConfig()
	}

	delay := cfg.InitialDelay
	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		var tr *transient
		if !errors.As(err, &tr) {
			return err
		}
		if attempt == cfg.MaxAttempts {
			break
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > cfg.MaxDelay {
			delay = cfg.MaxDelay
		}
	}
	return fmt.Errorf("all %d attempts failed: %w", cfg.MaxAttempts, lastErr)
}
