package retry

import (
	"context"
	"errors"
	"time"

	appErrors "github.com/ZyrticX/youreditable-api/pkg/errors"
)

// Config bounds retry behaviour for throttled store calls.
type Config struct {
	MaxAttempts int
	BaseDelay   time.Duration
}

// Do runs fn up to cfg.MaxAttempts times, backing off exponentially between
// attempts. Only rate-limit errors are retried; anything else is returned
// immediately.
func Do(ctx context.Context, cfg Config, fn func(context.Context) error) error {
	attempts := cfg.MaxAttempts
	if attempts <= 0 {
		attempts = 3
	}
	delay := cfg.BaseDelay
	if delay <= 0 {
		delay = 200 * time.Millisecond
	}

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil {
			return nil
		}
		if !IsRateLimited(err) || attempt == attempts {
			return err
		}

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
	return err
}

// IsRateLimited reports whether err is a throttling error from the store.
func IsRateLimited(err error) bool {
	var appErr *appErrors.Error
	if errors.As(err, &appErr) {
		return appErr.Code == appErrors.ErrRateLimited.Code
	}
	return false
}
