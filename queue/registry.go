package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Registry owns one Queue per course. Queues are created on first use and live
// as long as the registry.
type Registry struct {
	ctx    context.Context
	logger *zap.Logger

	mu     sync.Mutex
	queues map[string]*Queue
	wg     sync.WaitGroup
}

// NewRegistry creates a registry whose actions run with ctx.
func NewRegistry(ctx context.Context, logger *zap.Logger) *Registry {
	return &Registry{
		ctx:    ctx,
		logger: logger.Named("queue"),
		queues: make(map[string]*Queue),
	}
}

// For returns the queue of a course, creating it if needed.
func (r *Registry) For(course string) *Queue {
	r.mu.Lock()
	defer r.mu.Unlock()

	q, ok := r.queues[course]
	if !ok {
		q = newQueue(r.ctx, course, r.logger, &r.wg)
		r.queues[course] = q
	}
	return q
}

// Wait blocks until every queue has drained.
func (r *Registry) Wait() {
	r.wg.Wait()
}
