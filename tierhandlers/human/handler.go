// Package human provides a reference human-tier handler: it parks an
// invocation as a durable, Redis-backed task and blocks until an operator
// resolves it (or the tier's own timeout/abort fires first). It is shipped
// as a ready-made adapter, not part of the cascade core — cascade.Handler
// never knows this package exists.
package human

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cascade-run/cascade/cascade"
	"github.com/cascade-run/cascade/core"
)

// Task is the durable record stored in Redis while a human-tier invocation
// is pending.
type Task struct {
	ID          string       `json:"id"`
	CascadeID   string       `json:"cascadeId"`
	Input       interface{}  `json:"input"`
	PrevTier    cascade.Tier `json:"prevTier,omitempty"`
	PrevError   string       `json:"prevError,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	Status      TaskStatus   `json:"status"`
	Result      interface{}  `json:"result,omitempty"`
	RejectedMsg string       `json:"rejectedMsg,omitempty"`
}

// TaskStatus is the lifecycle state of a pending human task.
type TaskStatus string

const (
	StatusPending  TaskStatus = "pending"
	StatusApproved TaskStatus = "approved"
	StatusRejected TaskStatus = "rejected"
)

const (
	taskKeyPrefix = "task"
	pendingSetKey = "pending"
	pollInterval  = 2 * time.Second
)

// ErrTaskNotFound is returned by Store.Get when the task's TTL has expired
// or it was never created.
var ErrTaskNotFound = fmt.Errorf("human: task not found")

// Store is a thin durable task store on top of core.RedisClient, keyed by
// task ID with a pending-task Set index and a configurable TTL.
type Store struct {
	redis  *core.RedisClient
	ttl    time.Duration
	logger core.Logger
}

// StoreOptions configures a Store.
type StoreOptions struct {
	Redis  *core.RedisClient
	TTL    time.Duration // defaults to the human tier's 24h default timeout
	Logger core.Logger
}

// NewStore constructs a Store. Redis is required; TTL and Logger default to
// the human tier's standard timeout and a no-op logger respectively.
func NewStore(opts StoreOptions) (*Store, error) {
	if opts.Redis == nil {
		return nil, fmt.Errorf("human.NewStore: redis client is required: %w", core.ErrInvalidConfiguration)
	}
	ttl := opts.TTL
	if ttl <= 0 {
		ttl = cascade.DefaultTierTimeouts[cascade.TierHuman]
	}
	logger := opts.Logger
	if logger == nil {
		logger = &core.NoOpLogger{}
	}
	return &Store{redis: opts.Redis, ttl: ttl, logger: logger}, nil
}

func taskKey(id string) string { return fmt.Sprintf("%s:%s", taskKeyPrefix, id) }

// Create persists a new pending task and adds it to the pending-task index.
func (s *Store) Create(ctx context.Context, task *Task) error {
	task.Status = StatusPending
	task.CreatedAt = time.Now()

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("human: marshal task %s: %w", task.ID, err)
	}
	if err := s.redis.Set(ctx, taskKey(task.ID), string(data), s.ttl); err != nil {
		return fmt.Errorf("human: persist task %s: %w", task.ID, err)
	}
	if err := s.redis.SAdd(ctx, pendingSetKey, task.ID); err != nil {
		return fmt.Errorf("human: index task %s: %w", task.ID, err)
	}
	s.logger.Info("human: task created", map[string]interface{}{"task_id": task.ID, "cascade_id": task.CascadeID})
	return nil
}

// Get loads a task by ID. It returns ErrTaskNotFound if the task's TTL has
// already expired or it was never created.
func (s *Store) Get(ctx context.Context, id string) (*Task, error) {
	raw, err := s.redis.Get(ctx, taskKey(id))
	if err != nil {
		return nil, fmt.Errorf("human: load task %s: %w", id, ErrTaskNotFound)
	}
	var task Task
	if err := json.Unmarshal([]byte(raw), &task); err != nil {
		return nil, fmt.Errorf("human: unmarshal task %s: %w", id, err)
	}
	return &task, nil
}

// Resolve marks a pending task approved or rejected and removes it from the
// pending-task index. Operators (an approval UI, a Slack action, a CLI call
// this module doesn't define) call this out of band from the blocked
// Handler.Execute call.
func (s *Store) Resolve(ctx context.Context, id string, status TaskStatus, result interface{}, rejectedMsg string) error {
	task, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	task.Status = status
	task.Result = result
	task.RejectedMsg = rejectedMsg

	data, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("human: marshal resolved task %s: %w", id, err)
	}
	ttl, err := s.redis.TTL(ctx, taskKey(id))
	if err != nil || ttl <= 0 {
		ttl = s.ttl
	}
	if err := s.redis.Set(ctx, taskKey(id), string(data), ttl); err != nil {
		return fmt.Errorf("human: persist resolved task %s: %w", id, err)
	}
	if err := s.redis.SRem(ctx, pendingSetKey, id); err != nil {
		s.logger.Warn("human: failed to remove resolved task from pending index", map[string]interface{}{"task_id": id, "error": err.Error()})
	}
	s.logger.Info("human: task resolved", map[string]interface{}{"task_id": id, "status": string(status)})
	return nil
}

// Pending returns the IDs of every task still awaiting resolution.
func (s *Store) Pending(ctx context.Context) ([]string, error) {
	return s.redis.SMembers(ctx, pendingSetKey)
}

// Handler adapts Store to cascade.Handler: Execute creates a pending task
// from the invocation and polls the store until it is resolved, the
// handler's context is cancelled (tier timeout or abort), or the context
// deadline is reached — whichever comes first. The cascade's own timeout
// harness enforces the deadline; this handler only needs to poll.
type Handler struct {
	store    *Store
	newID    func() string
	onCreate func(task *Task) // optional hook, e.g. to notify an operator channel
}

// NewHandler builds a Handler backed by store. newID mints a task ID per
// invocation; pass nil to use a timestamp-based ID.
func NewHandler(store *Store, newID func() string, onCreate func(task *Task)) *Handler {
	if newID == nil {
		newID = func() string { return fmt.Sprintf("task-%d", time.Now().UnixNano()) }
	}
	return &Handler{store: store, newID: newID, onCreate: onCreate}
}

// Execute implements cascade.Handler.
func (h *Handler) Execute(ctx context.Context, input interface{}, tierCtx *cascade.TierContext) (interface{}, error) {
	task := &Task{
		ID:    h.newID(),
		Input: input,
	}
	if tierCtx != nil {
		task.PrevTier = tierCtx.PreviousTier
		if tierCtx.PreviousError != nil {
			task.PrevError = tierCtx.PreviousError.Error()
		}
	}

	if err := h.store.Create(ctx, task); err != nil {
		return nil, err
	}
	if h.onCreate != nil {
		h.onCreate(task)
	}

	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, cascade.WithPartialResult(cascade.TierHuman, ctx.Err(), task.ID)
		case <-ticker.C:
			current, err := h.store.Get(ctx, task.ID)
			if err != nil {
				continue
			}
			switch current.Status {
			case StatusApproved:
				return current.Result, nil
			case StatusRejected:
				return nil, fmt.Errorf("human: task %s rejected: %s", task.ID, current.RejectedMsg)
			}
		}
	}
}
