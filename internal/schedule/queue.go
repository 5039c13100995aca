package schedule

import "context"

// provides a simple in-memory job queue feeding the dispatch loop.

// Job is one callback waiting for the loop.
type Job struct {
	Name string
	Run  func()
}

type Queue struct {
	ch chan Job
}

func NewQueue(size int) *Queue {
	return &Queue{ch: make(chan Job, size)}
}

// Push enqueues j unless ctx is done first.
func (q *Queue) Push(ctx context.Context, j Job) bool {
	select {
	case q.ch <- j:
		return true
	case <-ctx.Done():
		return false
	}
}

// Pop waits for the next job. Once ctx is done it reports false even when
// jobs are still queued.
func (q *Queue) Pop(ctx context.Context) (Job, bool) {
	if ctx.Err() != nil {
		return Job{}, false
	}
	select {
	case j := <-q.ch:
		return j, true
	case <-ctx.Done():
		return Job{}, false
	}
}
