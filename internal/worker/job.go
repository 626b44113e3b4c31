package worker

import (
	"context"
	"io"
	"sync/atomic"
)

const (
	jobPending int32 = iota
	jobRunning
	jobAbandoned
)

// Job is one pin request waiting for a worker.
type Job struct {
	ctx      context.Context
	name     string
	body     io.Reader
	resultCh chan result
	state    *atomic.Int32
}

func newJob(ctx context.Context, name string, body io.Reader) Job {
	return Job{ctx: ctx, name: name, body: body, resultCh: make(chan result, 1), state: new(atomic.Int32)}
}

// claim marks the job as taken by a worker. It fails once the caller has
// abandoned the job.
func (j Job) claim() bool {
	return j.state.CompareAndSwap(jobPending, jobRunning)
}

// abandon fails when a worker already owns the job and its body.
func (j Job) abandon() bool {
	return j.state.CompareAndSwap(jobPending, jobAbandoned)
}

type result struct {
	cid string
	err error
}
