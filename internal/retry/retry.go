// Package retry implements the exponential-backoff wrapper described in
// spec §4.A, in the style of the teacher's own common/backoff package
// (see common/backoff/exponential_test.go in the retrieval pack): a
// small deterministic duration generator plus a Do loop that retries
// errs.Retryable errors on the backoff schedule, retries errs.RetryOnce
// errors once, and gives up on everything else.
package retry

import (
	"context"
	"math/rand"
	"time"

	"github.com/mars-etl/ethetl/internal/errs"
)

// Policy is an exponential-backoff schedule with jitter, matching the
// spec §4.A defaults: 250ms initial delay, factor 2.0, 30s max delay,
// 15 minutes max elapsed.
type Policy struct {
	InitialDelay time.Duration
	Factor       float64
	MaxDelay     time.Duration
	MaxElapsed   time.Duration

	// Notify, if set, is invoked on every retry attempt with the error
	// that triggered it and the elapsed time since the first attempt.
	Notify func(err error, elapsed time.Duration)

	// rand is overridable in tests so jitter is deterministic.
	rand *rand.Rand
}

// DefaultPolicy returns the spec §4.A defaults.
func DefaultPolicy() *Policy {
	return &Policy{
		InitialDelay: 250 * time.Millisecond,
		Factor:       2.0,
		MaxDelay:     30 * time.Second,
		MaxElapsed:   15 * time.Minute,
	}
}

// nextDelay returns the un-jittered delay for the given zero-indexed
// attempt number, capped at MaxDelay.
func (p *Policy) nextDelay(attempt int) time.Duration {
	d := float64(p.InitialDelay)
	for i := 0; i < attempt; i++ {
		d *= p.Factor
	}
	delay := time.Duration(d)
	if delay > p.MaxDelay || delay <= 0 {
		delay = p.MaxDelay
	}
	return delay
}

func (p *Policy) jitter(d time.Duration) time.Duration {
	// up to +/-10% jitter, always non-negative
	spread := d / 10
	if spread <= 0 {
		return d
	}
	n := int64(2*spread + 1)
	if p.rand == nil {
		return d - spread + time.Duration(rand.Int63n(n))
	}
	return d - spread + time.Duration(p.rand.Int63n(n))
}

// Op is a fallible operation the policy retries until it succeeds, the
// budget is exhausted, or it returns a non-retryable error.
type Op func(ctx context.Context) error

// Do runs op, retrying on errs.Retryable errors according to the
// policy, until it succeeds, a non-retryable error occurs, the
// context is cancelled, or MaxElapsed is exceeded. The last error is
// returned on budget exhaustion.
//
// An errs.RetryOnce error (spec §7's storage write failures) is not
// subject to the backoff schedule: it is retried exactly once, using
// the same delay/jitter as the next backoff attempt would use, and
// treated as fatal if it recurs.
func (p *Policy) Do(ctx context.Context, op Op) error {
	start := time.Now()
	var lastErr error
	retriedOnce := false
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = op(ctx)
		if lastErr == nil {
			return nil
		}
		if !errs.Retryable(lastErr) {
			if retriedOnce || !errs.RetryOnce(lastErr) {
				return lastErr
			}
			retriedOnce = true
		}
		elapsed := time.Since(start)
		if p.MaxElapsed > 0 && elapsed >= p.MaxElapsed {
			return lastErr
		}
		if p.Notify != nil {
			p.Notify(lastErr, elapsed)
		}
		delay := p.jitter(p.nextDelay(attempt))
		if p.MaxElapsed > 0 && elapsed+delay > p.MaxElapsed {
			delay = p.MaxElapsed - elapsed
			if delay < 0 {
				delay = 0
			}
		}
		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
}
