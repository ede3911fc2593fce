package human

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cascade-run/cascade/cascade"
	"github.com/cascade-run/cascade/core"
)

func setupStore(t *testing.T) *Store {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	redisClient, err := core.NewRedisClient(core.RedisClientOptions{
		RedisURL:  "redis://" + mr.Addr(),
		Namespace: "cascade:human-test",
	})
	require.NoError(t, err)
	t.Cleanup(func() { redisClient.Close() })

	store, err := NewStore(StoreOptions{Redis: redisClient, TTL: time.Minute})
	require.NoError(t, err)
	return store
}

func TestNewStore_RequiresRedis(t *testing.T) {
	_, err := NewStore(StoreOptions{})
	require.Error(t, err)
}

func TestStore_CreateGetResolve(t *testing.T) {
	store := setupStore(t)
	ctx := context.Background()

	task := &Task{ID: "t1", CascadeID: "c1", Input: map[string]string{"k": "v"}}
	require.NoError(t, store.Create(ctx, task))

	got, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusPending, got.Status)
	assert.Equal(t, "c1", got.CascadeID)

	pending, err := store.Pending(ctx)
	require.NoError(t, err)
	assert.Contains(t, pending, "t1")

	require.NoError(t, store.Resolve(ctx, "t1", StatusApproved, "final-output", ""))

	resolved, err := store.Get(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, StatusApproved, resolved.Status)
	assert.Equal(t, "final-output", resolved.Result)

	pending, err = store.Pending(ctx)
	require.NoError(t, err)
	assert.NotContains(t, pending, "t1")
}

func TestStore_GetMissingTask(t *testing.T) {
	store := setupStore(t)
	_, err := store.Get(context.Background(), "does-not-exist")
	require.ErrorIs(t, err, ErrTaskNotFound)
}

func TestHandler_ApprovedResolutionReturnsResult(t *testing.T) {
	store := setupStore(t)
	var createdID string
	h := NewHandler(store, func() string { return "fixed-id" }, func(task *Task) { createdID = task.ID })

	resultCh := make(chan interface{}, 1)
	errCh := make(chan error, 1)
	go func() {
		out, err := h.Execute(context.Background(), map[string]string{"x": "y"}, nil)
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- out
	}()

	require.Eventually(t, func() bool { return createdID == "fixed-id" }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Resolve(context.Background(), "fixed-id", StatusApproved, "approved-output", ""))

	select {
	case out := <-resultCh:
		assert.Equal(t, "approved-output", out)
	case err := <-errCh:
		t.Fatalf("unexpected error: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not observe resolution in time")
	}
}

func TestHandler_RejectedResolutionReturnsError(t *testing.T) {
	store := setupStore(t)
	h := NewHandler(store, func() string { return "reject-id" }, nil)

	errCh := make(chan error, 1)
	go func() {
		_, err := h.Execute(context.Background(), nil, nil)
		errCh <- err
	}()

	require.Eventually(t, func() bool {
		_, err := store.Get(context.Background(), "reject-id")
		return err == nil
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.Resolve(context.Background(), "reject-id", StatusRejected, nil, "not authorized"))

	select {
	case err := <-errCh:
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not authorized")
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not observe rejection in time")
	}
}

func TestHandler_ContextCancellationCarriesTaskIDAsPartialResult(t *testing.T) {
	store := setupStore(t)
	h := NewHandler(store, func() string { return "cancel-id" }, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := h.Execute(ctx, nil, nil)
	require.Error(t, err)

	var handlerErr *cascade.HandlerError
	require.ErrorAs(t, err, &handlerErr)
	assert.Equal(t, cascade.TierHuman, handlerErr.Tier)
	assert.Equal(t, "cancel-id", handlerErr.PartialResult)
}

func TestHandler_CarriesPreviousTierContext(t *testing.T) {
	store := setupStore(t)
	var createdTask *Task
	h := NewHandler(store, func() string { return "ctx-id" }, func(task *Task) { createdTask = task })

	go h.Execute(context.Background(), nil, &cascade.TierContext{
		Tier:          cascade.TierHuman,
		PreviousTier:  cascade.TierAgentic,
		PreviousError: assertErr{},
	})

	require.Eventually(t, func() bool { return createdTask != nil }, time.Second, 5*time.Millisecond)
	assert.Equal(t, cascade.TierAgentic, createdTask.PrevTier)
	assert.Equal(t, "agentic handler failed", createdTask.PrevError)

	require.NoError(t, store.Resolve(context.Background(), "ctx-id", StatusApproved, "ok", ""))
}

type assertErr struct{}

func (assertErr) Error() string { return "agentic handler failed" }
