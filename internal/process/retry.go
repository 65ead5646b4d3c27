package process

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog/log"
)

// RetryRunner retries failed commands with exponential backoff. Context
// cancellation is never retried.
type RetryRunner struct {
	next            Runner
	maxTries        uint
	initialInterval time.Duration
}

var _ Runner = (*RetryRunner)(nil)

// NewRetryRunner wraps next so each command gets up to maxTries attempts.
func NewRetryRunner(next Runner, maxTries uint, initialInterval time.Duration) *RetryRunner {
	if maxTries == 0 {
		maxTries = 1
	}
	return &RetryRunner{next: next, maxTries: maxTries, initialInterval: initialInterval}
}

func (r *RetryRunner) Run(ctx context.Context, name string, args ...string) error {
	expBackoff := backoff.NewExponentialBackOff()
	expBackoff.InitialInterval = r.initialInterval

	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		err := r.next.Run(ctx, name, args...)
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return struct{}{}, backoff.Permanent(err)
		}
		return struct{}{}, err
	},
		backoff.WithBackOff(expBackoff),
		backoff.WithMaxTries(r.maxTries),
		backoff.WithNotify(func(err error, next time.Duration) {
			log.Warn().Err(err).Str("command", name).Dur("retry_in", next).Msg("Command failed, retrying")
		}),
	)

	return err
}
