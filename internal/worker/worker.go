package worker

import "coinpal/internal/pinning"

type Worker struct {
	id         int
	pinner     pinning.Pinner
	workerPool chan chan Job
	jobChannel chan Job
	quit       chan struct{}
}

func NewWorker(id int, pool chan chan Job, pinner pinning.Pinner) *Worker {
	return &Worker{
		id:         id,
		pinner:     pinner,
		workerPool: pool,
		jobChannel: make(chan Job),
		quit:       make(chan struct{}),
	}
}

func (w *Worker) Start() {
	go func() {
		for {
			// register as idle before waiting for work
			select {
			case w.workerPool <- w.jobChannel:
			case <-w.quit:
				return
			}
			select {
			case job := <-w.jobChannel:
				w.handle(job)
			case <-w.quit:
				return
			}
		}
	}()
}

func (w *Worker) handle(job Job) {
	if !job.claim() {
		return
	}
	// the caller may have given up while the job sat in the queue
	if err := job.ctx.Err(); err != nil {
		job.resultCh <- result{err: err}
		return
	}
	traceJob(w.id, job)
	cid, err := w.pinner.Pin(job.ctx, job.name, job.body)
	job.resultCh <- result{cid: cid, err: err}
}

func (w *Worker) Stop() {
	close(w.quit)
}
