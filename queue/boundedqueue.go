// Package queue implements the two producer/consumer primitives the
// graph-building and sorting passes share: a BoundedQueue with a fixed
// capacity and blocking put/get, and a WorkQueue that drains a stream of
// closures over a fixed pool of worker goroutines. WorkQueue follows the
// channel-plus-sync.WaitGroup worker idiom markduplicates.go uses for its
// shard workers; BoundedQueue is a mutex with two condition variables.
package queue

import "sync"

// BoundedQueue is a blocking, bounded FIFO queue of arbitrary values. Put
// blocks while the queue is full; Get blocks while the queue is empty and
// not yet finished. Finish is idempotent and unblocks any Get waiting on
// an empty queue, causing it to report ok=false once drained.
//
// Unlike BoundedQueue.hh's sync(), which blocks a producer until every
// previously queued item has been consumed, this port omits sync(): no
// caller in this module needs it (SPEC_FULL.md's corresponding Open
// Question resolution).
type BoundedQueue struct {
	mu       sync.Mutex
	notFull  *sync.Cond
	notEmpty *sync.Cond
	items    []interface{}
	cap      int
	finished bool
}

// NewBoundedQueue creates a BoundedQueue with the given capacity.
func NewBoundedQueue(capacity int) *BoundedQueue {
	q := &BoundedQueue{cap: capacity}
	q.notFull = sync.NewCond(&q.mu)
	q.notEmpty = sync.NewCond(&q.mu)
	return q
}

// Put enqueues v, blocking while the queue is at capacity. Put after
// Finish is a programming error and panics, mirroring the teacher's
// Panicf-on-misuse convention elsewhere in this module.
func (q *BoundedQueue) Put(v interface{}) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.finished {
		panic("queue.BoundedQueue.Put called after Finish")
	}
	for len(q.items) >= q.cap {
		q.notFull.Wait()
	}
	q.items = append(q.items, v)
	q.notEmpty.Signal()
}

// Get dequeues the oldest value. It blocks while the queue is empty and
// not finished. ok is false iff the queue is empty and Finish has been
// called: this is the only way a consumer learns there is no more work.
func (q *BoundedQueue) Get() (v interface{}, ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && !q.finished {
		q.notEmpty.Wait()
	}
	if len(q.items) == 0 {
		return nil, false
	}
	v = q.items[0]
	q.items = q.items[1:]
	q.notFull.Signal()
	return v, true
}

// Finish marks the queue as done: no more Puts will occur, and every
// blocked or future Get drains the remaining items before reporting
// ok=false. Finish is idempotent.
func (q *BoundedQueue) Finish() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.finished {
		return
	}
	q.finished = true
	q.notEmpty.Broadcast()
}

// Len returns the number of items currently queued.
func (q *BoundedQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
