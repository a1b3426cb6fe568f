package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/generator"
	"github.com/cuongbtq/estimate-viewer/internal/worker/domain"
)

// processJob drives one job from queued to a terminal state
func (w *Worker) processJob(ctx context.Context, job *domain.Job) {
	logger := w.logger.With(
		slog.String("job_id", job.ID),
		slog.String("project", job.Project),
		slog.String("provider", job.Provider),
	)
	start := time.Now()

	w.publish(ctx, domain.EventJobQueued, job)

	outputPath, err := w.guard(job.ID, func() (string, error) {
		return w.executeJob(ctx, job)
	})

	var final *domain.Job
	var updateErr error
	if err != nil {
		logger.Error("Job failed",
			slog.String("error", err.Error()),
			slog.Duration("elapsed", time.Since(start)),
		)
		final, updateErr = w.store.MarkFailed(job.ID, err.Error())
	} else {
		logger.Info("Job completed",
			slog.String("output_path", outputPath),
			slog.Duration("elapsed", time.Since(start)),
		)
		final, updateErr = w.store.MarkCompleted(job.ID, outputPath)
	}

	if updateErr != nil {
		logger.Error("Failed to record job result",
			slog.String("error", updateErr.Error()),
		)
	}

	if pruned := w.store.Prune(); pruned > 0 {
		logger.Debug("Pruned old jobs", slog.Int("count", pruned))
	}

	if final != nil {
		event := domain.EventJobCompleted
		if final.Status == domain.JobStatusFailed {
			event = domain.EventJobFailed
		}
		w.publish(ctx, event, final)
	}
}

// executeJob runs the generation steps in order and returns the result's relative path
func (w *Worker) executeJob(ctx context.Context, job *domain.Job) (string, error) {
	running, err := w.store.MarkRunning(job.ID)
	if err != nil {
		return "", fmt.Errorf("failed to start job: %w", err)
	}
	w.publish(ctx, domain.EventJobRunning, running)

	input, err := w.workspace.ReadProjectInput(job.Project)
	if err != nil {
		return "", err
	}

	prompt := w.prompts.Build(job.Provider, job.Project, input)

	raw, err := w.runGenerator(ctx, prompt)
	if err != nil {
		return "", err
	}

	text := generator.Normalize(raw)
	if text == "" {
		return "", domain.ErrEmptyOutput
	}

	outputPath, err := w.workspace.WriteProjectResult(job.Project, job.Provider, text)
	if err != nil {
		return "", fmt.Errorf("failed to write result: %w", err)
	}
	return outputPath, nil
}

func (w *Worker) runGenerator(ctx context.Context, prompt string) (string, error) {
	if w.jobTimeout <= 0 {
		return w.runner.Run(ctx, prompt)
	}

	runCtx, cancel := context.WithTimeout(ctx, w.jobTimeout)
	defer cancel()

	raw, err := w.runner.Run(runCtx, prompt)
	if err != nil && errors.Is(runCtx.Err(), context.DeadlineExceeded) {
		return "", &generator.ProcessError{
			ExitCode: -1,
			Message:  fmt.Sprintf("generator timed out after %s", w.jobTimeout),
			Cause:    err,
		}
	}
	return raw, err
}
