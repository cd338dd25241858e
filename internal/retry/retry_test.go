package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/mars-etl/ethetl/internal/errs"
	"github.com/stretchr/testify/require"
)

func TestPolicy_RetriesTransientThenSucceeds(t *testing.T) {
	p := &Policy{
		InitialDelay: time.Millisecond,
		Factor:       2,
		MaxDelay:     10 * time.Millisecond,
		MaxElapsed:   time.Second,
	}
	var notifyCount int
	p.Notify = func(err error, elapsed time.Duration) { notifyCount++ }

	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 3 {
			return errs.Transport("test", errors.New("transient"))
		}
		return nil
	})

	require.NoError(t, err)
	require.Equal(t, 3, attempts)
	require.Equal(t, 2, notifyCount, "notify should fire once per retry, not on the final success")
}

func TestPolicy_FatalErrorAbortsImmediately(t *testing.T) {
	p := &Policy{InitialDelay: time.Millisecond, Factor: 2, MaxDelay: 10 * time.Millisecond, MaxElapsed: time.Second}
	attempts := 0
	sentinel := errs.Decode("test", errors.New("malformed"))
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 1, attempts)
}

func TestPolicy_StorageErrorRetriesOnceThenSucceeds(t *testing.T) {
	p := &Policy{InitialDelay: time.Millisecond, Factor: 2, MaxDelay: 10 * time.Millisecond, MaxElapsed: time.Second}
	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		if attempts < 2 {
			return errs.Storage("test", errors.New("put failed"))
		}
		return nil
	})
	require.NoError(t, err)
	require.Equal(t, 2, attempts, "a storage error should get exactly one retry")
}

func TestPolicy_StorageErrorIsFatalOnSecondFailure(t *testing.T) {
	p := &Policy{InitialDelay: time.Millisecond, Factor: 2, MaxDelay: 10 * time.Millisecond, MaxElapsed: time.Second}
	attempts := 0
	sentinel := errs.Storage("test", errors.New("put failed"))
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
	require.Equal(t, 2, attempts, "a recurring storage error retries once then is fatal")
}

func TestPolicy_BudgetExhaustionReturnsLastError(t *testing.T) {
	p := &Policy{InitialDelay: time.Millisecond, Factor: 1, MaxDelay: time.Millisecond, MaxElapsed: 5 * time.Millisecond}
	attempts := 0
	err := p.Do(context.Background(), func(ctx context.Context) error {
		attempts++
		return errs.Transport("test", errors.New("still failing"))
	})
	require.Error(t, err)
	require.True(t, errs.Retryable(err))
	require.Greater(t, attempts, 1)
}

func TestPolicy_NextDelayCapsAtMax(t *testing.T) {
	p := &Policy{InitialDelay: 250 * time.Millisecond, Factor: 2, MaxDelay: 30 * time.Second}
	require.Equal(t, 250*time.Millisecond, p.nextDelay(0))
	require.Equal(t, 500*time.Millisecond, p.nextDelay(1))
	require.Equal(t, 30*time.Second, p.nextDelay(20))
}
