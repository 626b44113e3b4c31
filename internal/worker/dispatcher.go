package worker

import (
	"context"
	"errors"
	"io"
	"sync"

	"coinpal/internal/apperr"
	"coinpal/internal/pinning"
)

var (
	ErrDispatcherBusy    = errors.New("dispatcher queue is full")
	ErrDispatcherStopped = errors.New("dispatcher stopped")
)

// Dispatcher bounds concurrent pin requests to a fixed worker set and a
// fixed-size queue. It implements pinning.Pinner.
type Dispatcher struct {
	workerPool chan chan Job
	JobQueue   chan Job
	workers    []*Worker

	quit     chan struct{}
	stopOnce sync.Once
}

var _ pinning.Pinner = (*Dispatcher)(nil)

func NewDispatcher(pinner pinning.Pinner, maxWorkers, queueSize int) *Dispatcher {
	if maxWorkers <= 0 {
		maxWorkers = 1
	}
	if queueSize < 0 {
		queueSize = 0
	}
	d := &Dispatcher{
		workerPool: make(chan chan Job, maxWorkers),
		JobQueue:   make(chan Job, queueSize),
		quit:       make(chan struct{}),
	}
	for i := 0; i < maxWorkers; i++ {
		w := NewWorker(i+1, d.workerPool, pinner)
		d.workers = append(d.workers, w)
		w.Start()
	}
	go d.run()
	return d
}

func (d *Dispatcher) run() {
	for {
		select {
		case job := <-d.JobQueue:
			select {
			case jobChannel := <-d.workerPool:
				select {
				case jobChannel <- job:
				case <-d.quit:
					job.resultCh <- result{err: ErrDispatcherStopped}
					return
				}
			case <-d.quit:
				job.resultCh <- result{err: ErrDispatcherStopped}
				return
			}
		case <-d.quit:
			return
		}
	}
}

// Pin queues the upload and waits for a worker to finish it. A full queue
// fails fast with ErrDispatcherBusy.
func (d *Dispatcher) Pin(ctx context.Context, name string, r io.Reader) (string, error) {
	select {
	case <-d.quit:
		return "", apperr.Wrap(apperr.Internal, ErrDispatcherStopped)
	default:
	}

	job := newJob(ctx, name, r)
	select {
	case d.JobQueue <- job:
	default:
		return "", apperr.Wrap(apperr.Busy, ErrDispatcherBusy)
	}

	// r belongs to the caller, so wait for the worker even if ctx ends;
	// the pinner observes ctx itself.
	select {
	case res := <-job.resultCh:
		return res.cid, res.err
	case <-d.quit:
		if job.abandon() {
			return "", apperr.Wrap(apperr.Internal, ErrDispatcherStopped)
		}
		// a worker is already reading r
		res := <-job.resultCh
		return res.cid, res.err
	}
}

// Stop ends every worker. Jobs still queued are failed with ErrDispatcherStopped.
func (d *Dispatcher) Stop() {
	d.stopOnce.Do(func() {
		close(d.quit)
		for _, w := range d.workers {
			w.Stop()
		}
		for {
			select {
			case job := <-d.JobQueue:
				job.resultCh <- result{err: ErrDispatcherStopped}
			default:
				return
			}
		}
	})
}
