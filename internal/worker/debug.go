package worker

import (
	"os"

	"coinpal/internal/logger"
)

// COINPAL_WORKER_DEBUG=1 traces every job a worker picks up.
var traceJobs = os.Getenv("COINPAL_WORKER_DEBUG") == "1"

func traceJob(workerID int, job Job) {
	if !traceJobs {
		return
	}
	logger.WithFields(logger.Fields{"worker": workerID, "file": job.name}).Debug("pin job picked up")
}
