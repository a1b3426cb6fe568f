package worker

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/worker/domain"
)

const publishTimeout = 5 * time.Second

// EventPublisher delivers job lifecycle events to an outside system
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, body []byte) error
}

// JobEvent is the message body published on every job transition
type JobEvent struct {
	Event      string    `json:"event"`
	OccurredAt time.Time `json:"occurredAt"`
	JobID      string    `json:"jobId"`
	Project    string    `json:"project"`
	Provider   string    `json:"provider"`
	Status     string    `json:"status"`
	OutputPath *string   `json:"outputPath"`
	Error      *string   `json:"error"`
}

func newJobEvent(event string, job *domain.Job) JobEvent {
	return JobEvent{
		Event:      event,
		OccurredAt: time.Now().UTC(),
		JobID:      job.ID,
		Project:    job.Project,
		Provider:   job.Provider,
		Status:     string(job.Status),
		OutputPath: job.OutputPath,
		Error:      job.Error,
	}
}

// publish is best effort; a broker failure never affects the job
func (w *Worker) publish(ctx context.Context, event string, job *domain.Job) {
	if w.publisher == nil || job == nil {
		return
	}

	body, err := json.Marshal(newJobEvent(event, job))
	if err != nil {
		w.logger.Warn("Failed to encode job event",
			slog.String("job_id", job.ID),
			slog.String("error", err.Error()),
		)
		return
	}

	pubCtx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := w.publisher.Publish(pubCtx, event, body); err != nil {
		w.logger.Warn("Failed to publish job event",
			slog.String("job_id", job.ID),
			slog.String("event", event),
			slog.String("error", err.Error()),
		)
	}
}
