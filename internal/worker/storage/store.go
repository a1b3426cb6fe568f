package storage

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/worker/domain"
	"github.com/google/uuid"
)

// MaxRetainedJobs is the hard ceiling on jobs kept in memory
const MaxRetainedJobs = 100

// Store is the process-wide job table.
// Every method takes the lock; callers only ever receive copies.
type Store struct {
	mu       sync.Mutex
	jobs     map[string]*record
	capacity int
	seq      uint64
	now      func() time.Time
	newID    func() string
}

type record struct {
	job *domain.Job
	seq uint64
}

// Option configures a Store
type Option func(*Store)

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithIDGenerator overrides job id allocation
func WithIDGenerator(newID func() string) Option {
	return func(s *Store) {
		s.newID = newID
	}
}

// NewStore creates a Store retaining at most capacity jobs once they finish.
// Out-of-range capacities fall back to MaxRetainedJobs.
func NewStore(capacity int, opts ...Option) *Store {
	if capacity <= 0 || capacity > MaxRetainedJobs {
		capacity = MaxRetainedJobs
	}

	s := &Store{
		jobs:     make(map[string]*record),
		capacity: capacity,
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capacity returns the retention limit
func (s *Store) Capacity() int {
	return s.capacity
}

// Create inserts a new queued job
func (s *Store) Create(project, provider string) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.createLocked(project, provider).Clone()
}

// FindActive returns the first queued or running job for the pair, or nil
func (s *Store) FindActive(project, provider string) *domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.findActiveLocked(project, provider).Clone()
}

// CreateOrReuse returns the active job for the pair if one exists, otherwise inserts a new one.
// Lookup and insert share one critical section, so two concurrent callers never both create.
func (s *Store) CreateOrReuse(project, provider string) (*domain.Job, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if active := s.findActiveLocked(project, provider); active != nil {
		return active.Clone(), true
	}
	return s.createLocked(project, provider).Clone(), false
}

// Get returns a snapshot of the job
func (s *Store) Get(id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	return rec.job.Clone(), nil
}

// List returns snapshots of all jobs, newest first
func (s *Store) List() []*domain.Job {
	s.mu.Lock()
	defer s.mu.Unlock()

	records := s.sortedLocked()
	jobs := make([]*domain.Job, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		jobs = append(jobs, records[i].job.Clone())
	}
	return jobs
}

// Len returns the number of jobs in the table
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.jobs)
}

// MarkRunning moves a queued job to running
func (s *Store) MarkRunning(id string) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if rec.job.Status != domain.JobStatusQueued {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, rec.job.Status, domain.JobStatusRunning)
	}

	now := s.now()
	rec.job.Status = domain.JobStatusRunning
	rec.job.StartedAt = &now
	return rec.job.Clone(), nil
}

// MarkCompleted finishes an active job with its output path
func (s *Store) MarkCompleted(id, outputPath string) (*domain.Job, error) {
	return s.finish(id, domain.JobStatusCompleted, func(j *domain.Job) {
		j.OutputPath = &outputPath
		j.Error = nil
	})
}

// MarkFailed finishes an active job with an error message
func (s *Store) MarkFailed(id, message string) (*domain.Job, error) {
	return s.finish(id, domain.JobStatusFailed, func(j *domain.Job) {
		j.Error = &message
		j.OutputPath = nil
	})
}

// Prune evicts the oldest finished jobs until the table is back at capacity.
// Active jobs are never evicted. Returns how many jobs were removed.
func (s *Store) Prune() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	excess := len(s.jobs) - s.capacity
	if excess <= 0 {
		return 0
	}

	removed := 0
	for _, rec := range s.sortedLocked() {
		if removed == excess {
			break
		}
		if rec.job.Status.IsActive() {
			continue
		}
		delete(s.jobs, rec.job.ID)
		removed++
	}
	return removed
}

func (s *Store) finish(id string, status domain.JobStatus, apply func(*domain.Job)) (*domain.Job, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.jobs[id]
	if !ok {
		return nil, domain.ErrJobNotFound
	}
	if !rec.job.Status.IsActive() {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, rec.job.Status, status)
	}

	now := s.now()
	// a job that never started still records a start time, so every terminal job has one
	if rec.job.StartedAt == nil {
		rec.job.StartedAt = &now
	}
	rec.job.Status = status
	rec.job.CompletedAt = &now
	apply(rec.job)
	return rec.job.Clone(), nil
}

func (s *Store) createLocked(project, provider string) *domain.Job {
	id := s.newID()
	for s.jobs[id] != nil {
		id = s.newID()
	}

	s.seq++
	job := &domain.Job{
		ID:        id,
		Project:   project,
		Provider:  provider,
		Status:    domain.JobStatusQueued,
		CreatedAt: s.now(),
	}
	s.jobs[id] = &record{job: job, seq: s.seq}
	return job
}

func (s *Store) findActiveLocked(project, provider string) *domain.Job {
	for _, rec := range s.sortedLocked() {
		if rec.job.Matches(project, provider) && rec.job.Status.IsActive() {
			return rec.job
		}
	}
	return nil
}

// sortedLocked orders records by creation time, oldest first, insertion order breaking ties
func (s *Store) sortedLocked() []*record {
	records := make([]*record, 0, len(s.jobs))
	for _, rec := range s.jobs {
		records = append(records, rec)
	}

	sort.Slice(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if !a.job.CreatedAt.Equal(b.job.CreatedAt) {
			return a.job.CreatedAt.Before(b.job.CreatedAt)
		}
		return a.seq < b.seq
	})
	return records
}
