// Package queue defines the contract for feeding scans to the scoring
// workers.
//
// The tracking phase itself is strictly sequential; the queue only decouples
// the parallel scoring stage from the scan source.
package queue

import (
	"context"
	"sync"

	"github.com/mzsweep/mzsweep/internal/domain/model"
	"github.com/mzsweep/mzsweep/pkg/metrics"
)

// Default queue configuration constants.
const defaultCapacity = 1024

// Scan is the payload type flowing through the queue.
type Scan = model.Scan

// Queue provides non-blocking enqueue and channel-based dequeue semantics.
type Queue interface {
	// Enqueue adds a scan to the queue. Returns false if the queue is full
	// or closed and the scan was not enqueued.
	Enqueue(ctx context.Context, s Scan) bool

	// EnqueueWait adds a scan to the queue, waiting for space when the
	// queue is full. Returns false if the queue is closed or ctx is
	// canceled before the scan could be enqueued.
	EnqueueWait(ctx context.Context, s Scan) bool

	// Dequeue returns a channel that receives scans as they become
	// available. The channel is closed when the queue is closed and
	// drained.
	Dequeue(ctx context.Context) <-chan Scan

	// Len returns the current number of queued scans.
	Len(ctx context.Context) int

	// Close stops the queue; no new scans can be enqueued afterwards.
	Close() error
}

// InMemoryQueue implements Queue using a buffered channel.
type InMemoryQueue struct {
	scans    chan Scan
	capacity int

	mu     sync.RWMutex
	closed bool
}

// NewInMemoryQueue creates a new in-memory queue with configuration options.
func NewInMemoryQueue(opts ...Option) *InMemoryQueue {
	q := &InMemoryQueue{
		capacity: defaultCapacity,
	}

	for _, opt := range opts {
		opt(q)
	}

	q.scans = make(chan Scan, q.capacity)

	metrics.UpdateQueueCapacity(q.capacity)
	metrics.UpdateQueueSize(0)
	metrics.UpdateQueueUtilization(0)

	return q
}

// Enqueue adds a scan to the queue.
func (q *InMemoryQueue) Enqueue(ctx context.Context, s Scan) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.scans <- s:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	case <-ctx.Done():
		metrics.RecordQueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	default:
		metrics.RecordQueueError()
		metrics.RecordErrorByComponent("queue", "queue_full")
		return false
	}
}

// EnqueueWait adds a scan to the queue, blocking while it is full.
func (q *InMemoryQueue) EnqueueWait(ctx context.Context, s Scan) bool {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		metrics.RecordQueueError()
		metrics.RecordErrorByComponent("queue", "closed")
		return false
	}

	select {
	case q.scans <- s:
		metrics.RecordQueueEnqueue()
		q.observe()
		return true
	case <-ctx.Done():
		metrics.RecordQueueError()
		metrics.RecordErrorByComponent("queue", "context_cancelled")
		return false
	}
}

// Dequeue returns a channel that receives scans until the queue is closed
// and drained or the context is canceled.
func (q *InMemoryQueue) Dequeue(ctx context.Context) <-chan Scan {
	out := make(chan Scan)
	go func() {
		defer close(out)
		for s := range q.scans {
			select {
			case out <- s:
				metrics.RecordQueueDequeue()
				q.observe()
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Len returns the current number of queued scans.
func (q *InMemoryQueue) Len(_ context.Context) int {
	return len(q.scans)
}

// Close stops the queue. Closing twice is a no-op.
func (q *InMemoryQueue) Close() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return nil
	}
	close(q.scans)
	q.closed = true
	return nil
}

// observe refreshes the queue gauges.
func (q *InMemoryQueue) observe() {
	size := len(q.scans)
	metrics.UpdateQueueSize(size)
	metrics.UpdateQueueUtilization(float64(size) / float64(q.capacity))
}
