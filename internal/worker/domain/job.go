package domain

import "time"

// Job represents one generation attempt for a (project, provider) pair
type Job struct {
	ID          string
	Project     string
	Provider    string
	Status      JobStatus
	CreatedAt   time.Time
	StartedAt   *time.Time
	CompletedAt *time.Time
	OutputPath  *string
	Error       *string
}

// Clone returns a deep copy so callers never share pointers with the store
func (j *Job) Clone() *Job {
	if j == nil {
		return nil
	}

	c := *j
	c.StartedAt = cloneTime(j.StartedAt)
	c.CompletedAt = cloneTime(j.CompletedAt)
	c.OutputPath = cloneString(j.OutputPath)
	c.Error = cloneString(j.Error)
	return &c
}

// Matches reports whether the job targets the given pair
func (j *Job) Matches(project, provider string) bool {
	return j.Project == project && j.Provider == provider
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}
