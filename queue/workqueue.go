package queue

import (
	"sync"

	"github.com/grailbio/base/errors"
)

// Task is a single unit of work submitted to a WorkQueue.
type Task func() error

// WorkQueue runs a stream of Tasks over a fixed pool of worker
// goroutines, collecting the first error (if any) with errors.Once the
// way MarkDuplicates.generatePAM collects per-shard close errors.
type WorkQueue struct {
	tasks   chan Task
	wg      sync.WaitGroup
	errOnce errors.Once
}

// NewWorkQueue starts nWorkers goroutines that will pull from an internal
// channel of capacity depth. Submit enqueues work; Close stops accepting
// new work and waits for the pool to drain.
func NewWorkQueue(nWorkers, depth int) *WorkQueue {
	q := &WorkQueue{tasks: make(chan Task, depth)}
	q.wg.Add(nWorkers)
	for i := 0; i < nWorkers; i++ {
		go func() {
			defer q.wg.Done()
			for t := range q.tasks {
				q.errOnce.Set(t())
			}
		}()
	}
	return q
}

// Submit enqueues a task, blocking if the internal channel is full.
// Submit after Close panics.
func (q *WorkQueue) Submit(t Task) {
	q.tasks <- t
}

// Close stops accepting work, waits for every queued task to finish, and
// returns the first error any task returned, if any.
func (q *WorkQueue) Close() error {
	close(q.tasks)
	q.wg.Wait()
	return q.errOnce.Err()
}
