package retry

import (
	"context"
	"errors"
	"time"

	"crossposter/infrastructure/logger"
)

// Sleep is replaceable in tests.
var Sleep = func(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

type permanentError struct {
	err error
}

func (p *permanentError) Error() string { return p.err.Error() }
func (p *permanentError) Unwrap() error { return p.err }

// Permanent marks err as non-retryable. Do returns it immediately,
// unwrapped.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// Do runs op up to maxAttempts times, sleeping baseDelay * 2^attempt
// between failures. The error of the final attempt is returned as-is.
func Do(ctx context.Context, maxAttempts int, baseDelay time.Duration, op func() error) error {
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	var err error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		err = op()
		if err == nil {
			return nil
		}
		var perm *permanentError
		if errors.As(err, &perm) {
			return perm.err
		}
		if attempt == maxAttempts-1 {
			break
		}
		delay := baseDelay << uint(attempt)
		logger.GetLogger().WithField("attempt", attempt+1).WithField("delay", delay.String()).
			WithField("error", err.Error()).Warn("Operation failed. Retrying")
		if serr := Sleep(ctx, delay); serr != nil {
			return serr
		}
	}
	return err
}
