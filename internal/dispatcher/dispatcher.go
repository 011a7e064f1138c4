// Package dispatcher manages worker fan-out over the target queue.
package dispatcher

import (
	"context"
	"fmt"
	"sync"

	"github.com/JakeFAU/kalaam-crawler/internal/crawler"
	"github.com/JakeFAU/kalaam-crawler/internal/worker"
)

// Dispatcher fans out queue work to a pool of workers.
type Dispatcher struct {
	queue   crawler.Queue
	clock   crawler.Clock
	workers []*worker.Worker
}

// New creates a Dispatcher.
func New(queue crawler.Queue, clock crawler.Clock, workers []*worker.Worker) *Dispatcher {
	return &Dispatcher{
		queue:   queue,
		clock:   clock,
		workers: workers,
	}
}

// Run starts all workers and blocks until every one of them has returned,
// which happens once the queue is closed and drained or ctx ends.
func (d *Dispatcher) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for _, w := range d.workers {
		wg.Add(1)
		go func(wk *worker.Worker) {
			defer wg.Done()
			wk.Run(ctx)
		}(w)
	}
	wg.Wait()
}

// Enqueue proxies to the underlying queue.
func (d *Dispatcher) Enqueue(ctx context.Context, item crawler.QueueItem) error {
	if err := d.queue.Enqueue(ctx, item); err != nil {
		return fmt.Errorf("queue enqueue: %w", err)
	}
	return nil
}

// Submit wraps a discovered target in a queue item and enqueues it.
func (d *Dispatcher) Submit(ctx context.Context, target crawler.Target) error {
	item := crawler.QueueItem{Target: target, Attempt: 1}
	if d.clock != nil {
		item.Submitted = d.clock.Now().UnixNano()
	}
	return d.Enqueue(ctx, item)
}
