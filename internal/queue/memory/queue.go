// Package memory provides an in-process target queue.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
)

// Queue is a bounded in-memory queue with context-aware operations. Closing
// it stops new enqueues; items already buffered are still handed out.
type Queue struct {
	ch        chan crawler.QueueItem
	done      chan struct{}
	closeOnce sync.Once
}

// NewQueue constructs a new queue with the provided capacity.
func NewQueue(capacity int) *Queue {
	if capacity < 0 {
		capacity = 0
	}
	return &Queue{
		ch:   make(chan crawler.QueueItem, capacity),
		done: make(chan struct{}),
	}
}

// Enqueue pushes an item, blocking while the queue is full.
func (q *Queue) Enqueue(ctx context.Context, item crawler.QueueItem) error {
	select {
	case <-q.done:
		return crawler.ErrQueueClosed
	default:
	}
	select {
	case <-ctx.Done():
		return fmt.Errorf("enqueue canceled: %w", ctx.Err())
	case <-q.done:
		return crawler.ErrQueueClosed
	case q.ch <- item:
		return nil
	}
}

// Dequeue pops the next item. It returns crawler.ErrQueueClosed once the
// queue is closed and drained.
func (q *Queue) Dequeue(ctx context.Context) (crawler.QueueItem, error) {
	select {
	case <-ctx.Done():
		return crawler.QueueItem{}, fmt.Errorf("dequeue canceled: %w", ctx.Err())
	case item := <-q.ch:
		return item, nil
	case <-q.done:
		select {
		case item := <-q.ch:
			return item, nil
		default:
			return crawler.QueueItem{}, crawler.ErrQueueClosed
		}
	}
}

// Len reports how many items are buffered.
func (q *Queue) Len() int {
	return len(q.ch)
}

// Close stops the queue. It is safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() { close(q.done) })
}
