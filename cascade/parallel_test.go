package cascade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func delayedSuccess(d time.Duration, output interface{}) HandlerFunc {
	return func(ctx context.Context, input interface{}, tierCtx *TierContext) (interface{}, error) {
		select {
		case <-time.After(d):
			return output, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

func TestRunParallel_FastestWins(t *testing.T) {
	c, err := New("race", map[Tier]Handler{
		TierCode:       delayedSuccess(5*time.Millisecond, "fast"),
		TierGenerative: delayedSuccess(50*time.Millisecond, "slow"),
	}, &Options{EnableParallel: true})
	require.NoError(t, err)

	result, err := c.Execute(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, TierCode, result.SuccessTier)
	assert.Equal(t, "fast", result.Output)
}

func TestRunParallel_EscalationsAndRetriesAlwaysZero(t *testing.T) {
	c, err := New("race-zero", map[Tier]Handler{
		TierCode:       failsWith(errors.New("x")),
		TierGenerative: delayedSuccess(5*time.Millisecond, "y"),
	}, &Options{EnableParallel: true})
	require.NoError(t, err)

	result, err := c.Execute(context.Background(), nil, nil)
	require.NoError(t, err)

	assert.Equal(t, 0, result.Metrics.Escalations)
	assert.Equal(t, 0, result.Metrics.TotalRetries)
}

func TestRunParallel_AllFailReturnsExhausted(t *testing.T) {
	c, err := New("race-exhausted", map[Tier]Handler{
		TierCode:       failsWith(errors.New("a")),
		TierGenerative: failsWith(errors.New("b")),
	}, &Options{EnableParallel: true})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), nil, nil)
	require.Error(t, err)
	var exhausted *CascadeExhaustedError
	require.ErrorAs(t, err, &exhausted)
	assert.Len(t, exhausted.History, 2)
}

func TestRunParallel_EmptyTierMap(t *testing.T) {
	c, err := New("race-empty", map[Tier]Handler{}, &Options{EnableParallel: true})
	require.NoError(t, err)

	_, err = c.Execute(context.Background(), nil, nil)
	require.Error(t, err)
	var exhausted *CascadeExhaustedError
	require.ErrorAs(t, err, &exhausted)
}

func TestRunParallel_AbortBeforeStart(t *testing.T) {
	c, err := New("race-abort", map[Tier]Handler{
		TierCode: delayedSuccess(50*time.Millisecond, "never"),
	}, &Options{EnableParallel: true})
	require.NoError(t, err)

	abort := make(chan struct{})
	close(abort)

	_, err = c.Execute(context.Background(), nil, &ExecuteOptions{Abort: abort})
	require.Error(t, err)
	var aborted *AbortedError
	require.ErrorAs(t, err, &aborted)
	assert.Empty(t, aborted.History)
}

func TestRunParallel_SkippedTiersExcludedFromRace(t *testing.T) {
	c, err := New("race-skipped", map[Tier]Handler{
		TierCode:       delayedSuccess(5*time.Millisecond, "fast"),
		TierGenerative: delayedSuccess(5*time.Millisecond, "slow"),
	}, &Options{
		EnableParallel: true,
		SkipTiers:      map[Tier]bool{TierGenerative: true},
	})
	require.NoError(t, err)

	result, err := c.Execute(context.Background(), nil, nil)
	require.NoError(t, err)
	assert.Equal(t, TierCode, result.SuccessTier)
	assert.Contains(t, result.SkippedTiers, TierGenerative)
}
