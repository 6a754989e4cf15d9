package queue

import (
	"container/list"
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/panics"
	"go.uber.org/zap"
)

// ErrStillRunning is returned by Do when the caller stops waiting before the action finished.
// The action itself keeps its place in the queue and still runs.
var ErrStillRunning = errors.New("action is still queued or running")

// Func is a unit of work executed on a course queue.
type Func func(ctx context.Context) error

// Ticket tracks a pushed action. Coalesced pushes share one ticket.
type Ticket struct {
	ID   string
	Name string
	done chan struct{}
	err  error
}

// Done is closed once the action finished.
func (t *Ticket) Done() <-chan struct{} {
	return t.done
}

// Err returns the action's result. It is only meaningful after Done is closed.
func (t *Ticket) Err() error {
	return t.err
}

// Wait blocks until the action finished or ctx is done.
func (t *Ticket) Wait(ctx context.Context) error {
	select {
	case <-t.done:
		return t.err
	case <-ctx.Done():
		return ErrStillRunning
	}
}

type action struct {
	key    string
	run    Func
	ticket *Ticket
}

// Queue runs the actions of one course strictly one at a time, in submission order.
// It is idle until an action is pushed, then drains in its own goroutine until empty.
type Queue struct {
	course string
	ctx    context.Context
	logger *zap.Logger
	wg     *sync.WaitGroup

	mu       sync.Mutex
	pending  *list.List
	keyed    map[string]*Ticket // pending actions that may be coalesced
	draining bool
}

func newQueue(ctx context.Context, course string, logger *zap.Logger, wg *sync.WaitGroup) *Queue {
	return &Queue{
		course:  course,
		ctx:     ctx,
		logger:  logger.With(zap.String("course", course)),
		wg:      wg,
		pending: list.New(),
		keyed:   make(map[string]*Ticket),
	}
}

// Push appends an action to the tail of the queue.
func (q *Queue) Push(name string, run Func) *Ticket {
	return q.push("", name, run)
}

// PushUnique appends an action unless one with the same key is still waiting to start,
// in which case the waiting action's ticket is returned instead.
func (q *Queue) PushUnique(key, name string, run Func) *Ticket {
	return q.push(key, name, run)
}

// Do pushes an action and waits for it. When ctx ends first, ErrStillRunning is returned.
func (q *Queue) Do(ctx context.Context, name string, run Func) error {
	return q.Push(name, run).Wait(ctx)
}

// Len returns the number of actions waiting to start.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.pending.Len()
}

func (q *Queue) push(key, name string, run Func) *Ticket {
	q.mu.Lock()
	defer q.mu.Unlock()

	if key != "" {
		if ticket, ok := q.keyed[key]; ok {
			q.logger.Debug("Coalesced queued action", zap.String("action", name), zap.String("key", key))
			return ticket
		}
	}

	ticket := &Ticket{
		ID:   uuid.NewString(),
		Name: name,
		done: make(chan struct{}),
	}
	q.pending.PushBack(&action{key: key, run: run, ticket: ticket})
	if key != "" {
		q.keyed[key] = ticket
	}

	if !q.draining {
		q.draining = true
		q.wg.Add(1)
		go q.drain()
	}
	return ticket
}

func (q *Queue) drain() {
	defer q.wg.Done()

	for {
		q.mu.Lock()
		front := q.pending.Front()
		if front == nil {
			q.draining = false
			q.mu.Unlock()
			return
		}
		q.pending.Remove(front)
		act := front.Value.(*action)
		if act.key != "" {
			delete(q.keyed, act.key)
		}
		q.mu.Unlock()

		act.ticket.err = q.run(act)
		close(act.ticket.done)
	}
}

func (q *Queue) run(act *action) (err error) {
	start := time.Now()

	var catcher panics.Catcher
	catcher.Try(func() {
		err = act.run(q.ctx)
	})
	if recovered := catcher.Recovered(); recovered != nil {
		err = recovered.AsError()
	}

	if err != nil {
		q.logger.Error("Queued action failed",
			zap.String("action", act.ticket.Name),
			zap.String("id", act.ticket.ID),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		return err
	}

	q.logger.Debug("Queued action finished",
		zap.String("action", act.ticket.Name),
		zap.String("id", act.ticket.ID),
		zap.Duration("elapsed", time.Since(start)))
	return nil
}
