package port

import (
	"context"
	"time"
)

// Task is a background job: a stable type name plus an opaque payload.
// Payload encoding is up to the producer and handler pair.
type Task struct {
	Type    string
	Payload []byte
}

// Handler processes a Task. A non-nil error triggers the adapter's retry
// policy, so handlers must be idempotent.
type Handler func(ctx context.Context, task Task) error

// EnqueueOption tunes enqueue behavior. Zero values mean "unspecified";
// adapters map supported fields best-effort.
type EnqueueOption struct {
	Queue     string        // logical queue name
	ProcessIn time.Duration // delay before processing
	MaxRetry  int           // max retries
	UniqueTTL time.Duration // uniqueness window, if supported
}

// Client enqueues tasks for background processing.
type Client interface {
	Enqueue(ctx context.Context, t Task, opts ...EnqueueOption) (id string, err error)
	Close() error
}

// Server runs background workers. Run blocks until the context is canceled.
type Server interface {
	Register(taskType string, h Handler)
	Run(ctx context.Context) error
	Stop(ctx context.Context) error
}
