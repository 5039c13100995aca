package schedule

import (
	"context"
	"fmt"

	"github.com/raoulx24/heapsnap/internal/logging"
)

// contains the loop that pulls jobs from the queue and runs them one at a
// time, so scheduled callbacks never overlap.

func RunLoop(ctx context.Context, q *Queue, log logging.Logger) {
	for {
		job, ok := q.Pop(ctx)
		if !ok || ctx.Err() != nil {
			return
		}
		runJob(job, log)
	}
}

func runJob(job Job, log logging.Logger) {
	defer func() {
		if r := recover(); r != nil {
			log.Error("schedule: job panicked", "job", job.Name, "panic", fmt.Sprint(r))
		}
	}()
	job.Run()
}
