package pool

import (
	"context"
	"sync"
	"time"
)

type fifo[T any] []T

func (q *fifo[T]) Len() int { return len(*q) }

func (q *fifo[T]) Pop() T {
	old := *q
	x := old[0]
	var zero T
	old[0] = zero
	*q = old[1:]
	return x
}

func (q *fifo[T]) Push(t T) {
	*q = append(*q, t)
}

// queue is an unbounded FIFO shared between goroutines.
// Put never blocks. Get waits at most the given timeout for an item.
// Every item handed out by Get must be acknowledged with Done; Join waits
// until all items ever put have been acknowledged.
type queue[T any] struct {
	mu      sync.Mutex
	items   fifo[T]
	notify  chan struct{}
	pending sync.WaitGroup
}

func newQueue[T any]() *queue[T] {
	return &queue[T]{
		items:  fifo[T]{},
		notify: make(chan struct{}, 1),
	}
}

func (q *queue[T]) Put(v T) {
	q.mu.Lock()
	q.pending.Add(1)
	q.items.Push(v)
	q.mu.Unlock()

	q.signal()
}

func (q *queue[T]) signal() {
	select {
	case q.notify <- struct{}{}:
	default:
	}
}

func (q *queue[T]) tryPop() (T, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.items.Len() == 0 {
		var zero T
		return zero, false
	}
	v := q.items.Pop()
	if q.items.Len() > 0 {
		// wake up the next waiting consumer
		q.signal()
	}
	return v, true
}

// Get returns the next item. ok is false when timeout elapsed with nothing
// available. A non-nil error means ctx was cancelled.
func (q *queue[T]) Get(ctx context.Context, timeout time.Duration) (v T, ok bool, err error) {
	if v, ok := q.tryPop(); ok {
		return v, true, nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			var zero T
			return zero, false, ctx.Err()
		case <-timer.C:
			// last chance: an item may have raced with the timer
			v, ok := q.tryPop()
			return v, ok, nil
		case <-q.notify:
			if v, ok := q.tryPop(); ok {
				return v, true, nil
			}
		}
	}
}

// Drain returns every item currently queued without waiting.
// Drained items are acknowledged immediately.
func (q *queue[T]) Drain() []T {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]T, 0, q.items.Len())
	for q.items.Len() > 0 {
		out = append(out, q.items.Pop())
		q.pending.Done()
	}
	return out
}

func (q *queue[T]) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.items.Len()
}

func (q *queue[T]) Done() {
	q.pending.Done()
}

func (q *queue[T]) Join() {
	q.pending.Wait()
}
