package crm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/cenkalti/backoff/v4"
)

// ErrRateLimited matches any StatusError carrying a 429.
var ErrRateLimited = errors.New("rate limited")

// StatusError is an unexpected response status from the CRM.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrRateLimited && e.Status == http.StatusTooManyRequests
}

// Sleeper pauses for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration)

func sleepContext(ctx context.Context, d time.Duration) {
	if d <= 0 {
		return
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
	case <-t.C:
	}
}

// sleeperTimer lets backoff wait through a Sleeper. One instance serves a
// single retry loop.
type sleeperTimer struct {
	ctx   context.Context
	sleep Sleeper
	c     chan time.Time
}

func newSleeperTimer(ctx context.Context, sleep Sleeper) *sleeperTimer {
	return &sleeperTimer{ctx: ctx, sleep: sleep, c: make(chan time.Time, 1)}
}

func (t *sleeperTimer) Start(d time.Duration) {
	t.sleep(t.ctx, d)
	if t.ctx.Err() != nil {
		return
	}
	t.c <- time.Now()
}

func (t *sleeperTimer) Stop() {}

func (t *sleeperTimer) C() <-chan time.Time {
	return t.c
}

// rateLimitPolicy retries at a fixed pause; maxRetries of 0 never gives up.
func rateLimitPolicy(ctx context.Context, pause time.Duration, maxRetries int) backoff.BackOffContext {
	var b backoff.BackOff = backoff.NewConstantBackOff(pause)
	if maxRetries > 0 {
		b = backoff.WithMaxRetries(b, uint64(maxRetries))
	}
	return backoff.WithContext(b, ctx)
}

// retryRateLimited runs op until it succeeds, fails with anything other than
// ErrRateLimited, or the policy stops. attempt is 1 for the first call.
func retryRateLimited(ctx context.Context, policy backoff.BackOffContext, sleep Sleeper, onRetry func(err error, pause time.Duration), op func(attempt int) error) error {
	attempt := 0
	return backoff.RetryNotifyWithTimer(func() error {
		attempt++
		err := op(attempt)
		if err != nil && !errors.Is(err, ErrRateLimited) {
			return backoff.Permanent(err)
		}
		return err
	}, policy, onRetry, newSleeperTimer(ctx, sleep))
}
