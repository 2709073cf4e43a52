package bot

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrAwaitTimeout is returned when no qualifying message arrives in time.
var ErrAwaitTimeout = errors.New("timed out waiting for a reply")

// ErrAwaiterClosed is returned when the awaiter shuts down mid-wait.
var ErrAwaiterClosed = errors.New("awaiter closed")

// Predicate filters inbound messages for a pending Await.
type Predicate func(Message) bool

// Awaiter lets a command flow suspend until the next inbound message that
// matches its predicate. Delivery observes messages without consuming them;
// normal routing of a delivered message still proceeds.
type Awaiter struct {
	mu      sync.Mutex
	waiters map[uint64]*waiter
	nextID  uint64
	closed  bool
	done    chan struct{}
}

type waiter struct {
	pred Predicate
	ch   chan Message
}

func NewAwaiter() *Awaiter {
	return &Awaiter{
		waiters: map[uint64]*waiter{},
		done:    make(chan struct{}),
	}
}

// Await blocks until a message matching pred is delivered, the timeout
// elapses, ctx is cancelled, or the awaiter is closed.
func (a *Awaiter) Await(ctx context.Context, pred Predicate, timeout time.Duration) (Message, error) {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return Message{}, ErrAwaiterClosed
	}
	id := a.nextID
	a.nextID++
	w := &waiter{pred: pred, ch: make(chan Message, 1)}
	a.waiters[id] = w
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		delete(a.waiters, id)
		a.mu.Unlock()
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case msg := <-w.ch:
		return msg, nil
	case <-timer.C:
		return Message{}, ErrAwaitTimeout
	case <-a.done:
		return Message{}, ErrAwaiterClosed
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Deliver offers msg to every pending wait whose predicate matches and
// reports whether any wait took it. Each wait receives at most one message.
func (a *Awaiter) Deliver(msg Message) bool {
	a.mu.Lock()
	defer a.mu.Unlock()

	delivered := false
	for id, w := range a.waiters {
		if w.pred(msg) {
			w.ch <- msg
			delete(a.waiters, id)
			delivered = true
		}
	}
	return delivered
}

// Close releases every pending wait with ErrAwaiterClosed.
func (a *Awaiter) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if !a.closed {
		a.closed = true
		close(a.done)
	}
}
