package cascade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunWithTimeout_HandlerCompletesBeforeDeadline(t *testing.T) {
	handler := succeedsWith("done")
	outcome := runWithTimeout(context.Background(), handler, nil, &TierContext{Tier: TierCode}, time.Second, 0, nil)

	assert.Equal(t, StatusCompleted, outcome.status)
	assert.Equal(t, "done", outcome.result)
	assert.NoError(t, outcome.err)
}

func TestRunWithTimeout_HandlerFails(t *testing.T) {
	handler := failsWith(errors.New("boom"))
	outcome := runWithTimeout(context.Background(), handler, nil, &TierContext{Tier: TierCode}, time.Second, 0, nil)

	assert.Equal(t, StatusFailed, outcome.status)
	require.Error(t, outcome.err)
	assert.Equal(t, "boom", outcome.err.Error())
}

func TestRunWithTimeout_HarnessTimesOut(t *testing.T) {
	handler := hangsForever()
	outcome := runWithTimeout(context.Background(), handler, nil, &TierContext{Tier: TierGenerative}, 10*time.Millisecond, 0, nil)

	assert.Equal(t, StatusTimeout, outcome.status)
	var tte *TierTimeoutError
	require.ErrorAs(t, outcome.err, &tte)
	assert.Equal(t, TierGenerative, tte.Tier)
	assert.Equal(t, int64(10), tte.TimeoutMs)
}

func TestRunWithTimeout_RemainingTotalShrinksEffectiveTimeout(t *testing.T) {
	handler := hangsForever()
	outcome := runWithTimeout(context.Background(), handler, nil, &TierContext{Tier: TierCode}, time.Hour, 10*time.Millisecond, nil)

	assert.Equal(t, StatusTimeout, outcome.status)
	var tte *TierTimeoutError
	require.ErrorAs(t, outcome.err, &tte)
	assert.Equal(t, int64(10), tte.TimeoutMs)
}

func TestRunWithTimeout_AbortWins(t *testing.T) {
	handler := hangsForever()
	abort := make(chan struct{})
	close(abort)

	outcome := runWithTimeout(context.Background(), handler, nil, &TierContext{Tier: TierCode}, time.Hour, 0, abort)

	assert.Equal(t, StatusFailed, outcome.status)
	var aborted *AbortedError
	require.ErrorAs(t, outcome.err, &aborted)
}

func TestRunWithTimeout_RecoversPanic(t *testing.T) {
	handler := HandlerFunc(func(ctx context.Context, input interface{}, tierCtx *TierContext) (interface{}, error) {
		panic("handler exploded")
	})

	outcome := runWithTimeout(context.Background(), handler, nil, &TierContext{Tier: TierCode}, time.Second, 0, nil)

	assert.Equal(t, StatusFailed, outcome.status)
	require.Error(t, outcome.err)
	assert.Contains(t, outcome.err.Error(), "handler exploded")
}

func TestRunWithTimeout_HandlerNeverForciblyKilled(t *testing.T) {
	started := make(chan struct{})
	finished := make(chan struct{})
	handler := HandlerFunc(func(ctx context.Context, input interface{}, tierCtx *TierContext) (interface{}, error) {
		close(started)
		<-ctx.Done()
		close(finished)
		return nil, ctx.Err()
	})

	outcome := runWithTimeout(context.Background(), handler, nil, &TierContext{Tier: TierCode}, 10*time.Millisecond, 0, nil)
	assert.Equal(t, StatusTimeout, outcome.status)

	<-started
	select {
	case <-finished:
	case <-time.After(time.Second):
		t.Fatal("handler goroutine should have observed ctx.Done() and exited")
	}
}
