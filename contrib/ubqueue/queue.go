package ubqueue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned by Push once the queue is closed, and by Pop once it
// is closed and empty.
var ErrClosed = errors.New("queue closed")

// Queue is an unbounded FIFO shared between producers and a single blocking
// consumer.  Pushing never blocks, which keeps a reader from stalling on slow
// consumers and producers from stalling on a slow writer.
type Queue[T any] struct {
	lock     sync.Mutex
	items    []T
	closed   bool
	signal   chan struct{}
	closedCh chan struct{}
}

func New[T any]() *Queue[T] {
	return &Queue[T]{
		signal:   make(chan struct{}, 1),
		closedCh: make(chan struct{}),
	}
}

func (q *Queue[T]) Push(item T) error {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		return ErrClosed
	}
	q.items = append(q.items, item)
	q.lock.Unlock()

	q.notify()
	return nil
}

func (q *Queue[T]) notify() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

// Pop blocks until an item is available.  Items pushed before Close are
// still handed out, ErrClosed is returned once the queue is closed and empty.
func (q *Queue[T]) Pop(ctx context.Context) (T, error) {
	var empty T
	for {
		q.lock.Lock()
		if len(q.items) > 0 {
			item := q.items[0]
			q.items[0] = empty
			q.items = q.items[1:]
			remaining := len(q.items)
			q.lock.Unlock()

			if remaining > 0 {
				q.notify()
			}
			return item, nil
		}
		closed := q.closed
		q.lock.Unlock()

		if closed {
			return empty, ErrClosed
		}

		select {
		case <-q.signal:
		case <-q.closedCh:
		case <-ctx.Done():
			return empty, ctx.Err()
		}
	}
}

func (q *Queue[T]) Len() int {
	q.lock.Lock()
	defer q.lock.Unlock()
	return len(q.items)
}

// Close stops the queue from accepting items.  It is safe to call more than
// once.
func (q *Queue[T]) Close() {
	q.lock.Lock()
	defer q.lock.Unlock()
	q.closeLocked()
}

// Abort closes the queue and drops everything still waiting in it, returning
// the dropped items.
func (q *Queue[T]) Abort() []T {
	q.lock.Lock()
	defer q.lock.Unlock()

	q.closeLocked()
	items := q.items
	q.items = nil
	return items
}

func (q *Queue[T]) closeLocked() {
	if q.closed {
		return
	}
	q.closed = true
	close(q.closedCh)
}
