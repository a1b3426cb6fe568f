package worker

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/generator"
	"github.com/cuongbtq/estimate-viewer/internal/worker/domain"
	"github.com/cuongbtq/estimate-viewer/internal/worker/storage"
	"github.com/cuongbtq/estimate-viewer/internal/workspace"
)

// PromptBuilder turns a project's input document into a generation prompt
type PromptBuilder interface {
	Build(provider, project, input string) string
}

// Config holds worker configuration
type Config struct {
	Logger    *slog.Logger
	Store     *storage.Store
	Workspace *workspace.Workspace
	Prompts   PromptBuilder
	Runner    generator.Runner
	Publisher EventPublisher
	Providers []string
	// JobTimeout bounds each generator call; zero disables the limit
	JobTimeout time.Duration
}

// Worker accepts generation requests and runs each one in its own goroutine
type Worker struct {
	logger     *slog.Logger
	store      *storage.Store
	workspace  *workspace.Workspace
	prompts    PromptBuilder
	runner     generator.Runner
	publisher  EventPublisher
	providers  []string
	jobTimeout time.Duration
	wg         sync.WaitGroup
}

// SubmitResult is the outcome of a submission
type SubmitResult struct {
	Reused bool
	Job    *domain.Job
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	providers := cfg.Providers
	if len(providers) == 0 {
		providers = domain.DefaultProviders
	}

	normalized := make([]string, 0, len(providers))
	for _, p := range providers {
		normalized = append(normalized, strings.ToLower(strings.TrimSpace(p)))
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Worker{
		logger:     logger,
		store:      cfg.Store,
		workspace:  cfg.Workspace,
		prompts:    cfg.Prompts,
		runner:     cfg.Runner,
		publisher:  cfg.Publisher,
		providers:  normalized,
		jobTimeout: cfg.JobTimeout,
	}
}

// Providers returns the supported provider identifiers
func (w *Worker) Providers() []string {
	return slices.Clone(w.providers)
}

// Submit validates a request and either reuses the active job for the pair or schedules a new one.
// It never waits for generation.
func (w *Worker) Submit(ctx context.Context, project, provider string) (*SubmitResult, error) {
	project = strings.TrimSpace(project)
	provider = strings.ToLower(strings.TrimSpace(provider))

	if project == "" {
		return nil, &domain.InvalidRequestError{Field: "project"}
	}
	dir, ok := w.workspace.ProjectDir(project)
	if !ok {
		return nil, domain.NewInvalidRequest("project", "invalid project name: %q", project)
	}
	if provider == "" {
		return nil, &domain.InvalidRequestError{Field: "provider"}
	}
	if !slices.Contains(w.providers, provider) {
		return nil, domain.NewInvalidRequest("provider", "unsupported provider: %s", provider)
	}
	if !workspace.DirectoryExists(dir) {
		return nil, &domain.NotFoundError{Resource: "project directory", Path: w.workspace.RelPath(dir)}
	}

	job, reused := w.store.CreateOrReuse(project, provider)
	if reused {
		w.logger.InfoContext(ctx, "Reusing active job",
			slog.String("job_id", job.ID),
			slog.String("project", project),
			slog.String("provider", provider),
			slog.String("status", string(job.Status)),
		)
		return &SubmitResult{Reused: true, Job: job}, nil
	}

	w.logger.InfoContext(ctx, "Job queued",
		slog.String("job_id", job.ID),
		slog.String("project", project),
		slog.String("provider", provider),
	)

	w.dispatch(job)
	return &SubmitResult{Reused: false, Job: job}, nil
}

// Get returns a snapshot of a job
func (w *Worker) Get(id string) (*domain.Job, error) {
	return w.store.Get(id)
}

// List returns snapshots of all retained jobs, newest first
func (w *Worker) List() []*domain.Job {
	return w.store.List()
}

// Await polls a job until it is terminal or ctx ends
func (w *Worker) Await(ctx context.Context, id string, interval time.Duration) (*domain.Job, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		job, err := w.store.Get(id)
		if err != nil {
			return nil, err
		}
		if job.Status.IsTerminal() {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return job, fmt.Errorf("stopped waiting for job %s: %w", id, ctx.Err())
		case <-ticker.C:
		}
	}
}

// Wait blocks until every dispatched job has finished
func (w *Worker) Wait() {
	w.wg.Wait()
}

// Shutdown waits for in-flight jobs to finish or for ctx to end
func (w *Worker) Shutdown(ctx context.Context) error {
	w.logger.Info("Waiting for in-flight jobs...")

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		w.logger.Info("All jobs finished")
		return nil
	case <-ctx.Done():
		w.logger.Warn("Shutdown timeout exceeded with jobs still running")
		return ctx.Err()
	}
}
