package worker

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"github.com/cuongbtq/estimate-viewer/internal/worker/domain"
)

// dispatch starts the job's goroutine. Jobs are not canceled once started,
// so each one runs on its own background context.
func (w *Worker) dispatch(job *domain.Job) {
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.processJob(context.Background(), job)
	}()
}

// guard runs fn and turns a panic into an error so the job still reaches a terminal state
func (w *Worker) guard(jobID string, fn func() (string, error)) (outputPath string, err error) {
	defer func() {
		if r := recover(); r != nil {
			w.logger.Error("Job panicked",
				slog.String("job_id", jobID),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			outputPath = ""
			err = fmt.Errorf("%v", r)
		}
	}()

	return fn()
}
