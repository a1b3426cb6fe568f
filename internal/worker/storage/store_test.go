package storage

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cuongbtq/estimate-viewer/internal/worker/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock hands out strictly increasing timestamps
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func TestNewStore_Capacity(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		want     int
	}{
		{name: "within range", capacity: 10, want: 10},
		{name: "zero falls back", capacity: 0, want: MaxRetainedJobs},
		{name: "above maximum is capped", capacity: 500, want: MaxRetainedJobs},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewStore(tt.capacity).Capacity())
		})
	}
}

func TestStore_Create(t *testing.T) {
	s := NewStore(10)

	job := s.Create("acme", "aws")
	require.NotNil(t, job)
	assert.NotEmpty(t, job.ID)
	assert.Equal(t, "acme", job.Project)
	assert.Equal(t, "aws", job.Provider)
	assert.Equal(t, domain.JobStatusQueued, job.Status)
	assert.False(t, job.CreatedAt.IsZero())
	assert.Nil(t, job.StartedAt)
	assert.Nil(t, job.CompletedAt)
	assert.Nil(t, job.OutputPath)
	assert.Nil(t, job.Error)

	other := s.Create("acme", "aws")
	assert.NotEqual(t, job.ID, other.ID)
	assert.Equal(t, 2, s.Len())
}

func TestStore_CreateRetriesDuplicateIDs(t *testing.T) {
	ids := []string{"a", "a", "b"}
	s := NewStore(10, WithIDGenerator(func() string {
		id := ids[0]
		ids = ids[1:]
		return id
	}))

	first := s.Create("p", "aws")
	second := s.Create("p", "aws")
	assert.Equal(t, "a", first.ID)
	assert.Equal(t, "b", second.ID)
}

func TestStore_GetReturnsSnapshot(t *testing.T) {
	s := NewStore(10)
	job := s.Create("acme", "aws")

	got, err := s.Get(job.ID)
	require.NoError(t, err)
	got.Status = domain.JobStatusFailed

	again, err := s.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.JobStatusQueued, again.Status, "mutating a snapshot must not touch the store")

	_, err = s.Get("missing")
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
}

func TestStore_FindActive(t *testing.T) {
	s := NewStore(10)

	assert.Nil(t, s.FindActive("acme", "aws"))

	queued := s.Create("acme", "aws")
	found := s.FindActive("acme", "aws")
	require.NotNil(t, found)
	assert.Equal(t, queued.ID, found.ID)

	_, err := s.MarkRunning(queued.ID)
	require.NoError(t, err)
	found = s.FindActive("acme", "aws")
	require.NotNil(t, found)
	assert.Equal(t, domain.JobStatusRunning, found.Status)

	assert.Nil(t, s.FindActive("acme", "gcp"))
	assert.Nil(t, s.FindActive("other", "aws"))

	_, err = s.MarkCompleted(queued.ID, "estimates/acme/aws.md")
	require.NoError(t, err)
	assert.Nil(t, s.FindActive("acme", "aws"))
}

func TestStore_CreateOrReuse(t *testing.T) {
	s := NewStore(10)

	first, reused := s.CreateOrReuse("acme", "aws")
	assert.False(t, reused)

	second, reused := s.CreateOrReuse("acme", "aws")
	assert.True(t, reused)
	assert.Equal(t, first.ID, second.ID)

	_, reused = s.CreateOrReuse("acme", "gcp")
	assert.False(t, reused)

	_, err := s.MarkFailed(first.ID, "boom")
	require.NoError(t, err)

	third, reused := s.CreateOrReuse("acme", "aws")
	assert.False(t, reused, "terminal jobs are not reused")
	assert.NotEqual(t, first.ID, third.ID)
	assert.Equal(t, 3, s.Len())
}

func TestStore_CreateOrReuseConcurrent(t *testing.T) {
	s := NewStore(100)

	const callers = 50
	var wg sync.WaitGroup
	ids := make(chan string, callers)
	created := make(chan struct{}, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			job, reused := s.CreateOrReuse("acme", "aws")
			if !reused {
				created <- struct{}{}
			}
			ids <- job.ID
		}()
	}
	wg.Wait()
	close(ids)
	close(created)

	assert.Len(t, created, 1, "exactly one caller creates the job")
	assert.Equal(t, 1, s.Len())

	var first string
	for id := range ids {
		if first == "" {
			first = id
		}
		assert.Equal(t, first, id)
	}
}

func TestStore_Transitions(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(10, WithClock(clock.Now))

	t.Run("completed path", func(t *testing.T) {
		job := s.Create("acme", "aws")

		running, err := s.MarkRunning(job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusRunning, running.Status)
		require.NotNil(t, running.StartedAt)
		assert.True(t, running.StartedAt.After(job.CreatedAt))
		assert.Nil(t, running.CompletedAt)

		done, err := s.MarkCompleted(job.ID, "estimates/acme/aws.md")
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCompleted, done.Status)
		require.NotNil(t, done.CompletedAt)
		require.NotNil(t, done.OutputPath)
		assert.Equal(t, "estimates/acme/aws.md", *done.OutputPath)
		assert.Nil(t, done.Error)
		assert.Equal(t, *running.StartedAt, *done.StartedAt)
	})

	t.Run("failed path", func(t *testing.T) {
		job := s.Create("acme", "gcp")
		_, err := s.MarkRunning(job.ID)
		require.NoError(t, err)

		failed, err := s.MarkFailed(job.ID, "rate limited")
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusFailed, failed.Status)
		require.NotNil(t, failed.Error)
		assert.Equal(t, "rate limited", *failed.Error)
		assert.Nil(t, failed.OutputPath)
		assert.NotNil(t, failed.CompletedAt)
	})

	t.Run("failing a queued job still records a start time", func(t *testing.T) {
		job := s.Create("acme", "azure")

		failed, err := s.MarkFailed(job.ID, "could not start")
		require.NoError(t, err)
		assert.NotNil(t, failed.StartedAt)
		assert.NotNil(t, failed.CompletedAt)
	})

	t.Run("transitions never go backwards", func(t *testing.T) {
		job := s.Create("beta", "aws")
		_, err := s.MarkRunning(job.ID)
		require.NoError(t, err)

		_, err = s.MarkRunning(job.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		_, err = s.MarkCompleted(job.ID, "out.md")
		require.NoError(t, err)

		_, err = s.MarkFailed(job.ID, "late")
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)
		_, err = s.MarkRunning(job.ID)
		assert.ErrorIs(t, err, domain.ErrInvalidTransition)

		got, err := s.Get(job.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.JobStatusCompleted, got.Status)
	})

	t.Run("unknown id", func(t *testing.T) {
		_, err := s.MarkRunning("missing")
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
		_, err = s.MarkCompleted("missing", "x")
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
		_, err = s.MarkFailed("missing", "x")
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
	})
}

func TestStore_Prune(t *testing.T) {
	t.Run("no-op under capacity", func(t *testing.T) {
		s := NewStore(5)
		for i := 0; i < 5; i++ {
			s.Create(fmt.Sprintf("p%d", i), "aws")
		}
		assert.Equal(t, 0, s.Prune())
		assert.Equal(t, 5, s.Len())
	})

	t.Run("keeps the most recently created jobs", func(t *testing.T) {
		clock := newFakeClock()
		s := NewStore(MaxRetainedJobs, WithClock(clock.Now))

		const total = 150
		ids := make([]string, 0, total)
		for i := 0; i < total; i++ {
			job := s.Create(fmt.Sprintf("project-%d", i), "aws")
			_, err := s.MarkCompleted(job.ID, "out.md")
			require.NoError(t, err)
			ids = append(ids, job.ID)
			s.Prune()
			assert.LessOrEqual(t, s.Len(), MaxRetainedJobs)
		}

		assert.Equal(t, MaxRetainedJobs, s.Len())
		for _, id := range ids[:total-MaxRetainedJobs] {
			_, err := s.Get(id)
			assert.ErrorIs(t, err, domain.ErrJobNotFound)
		}
		for _, id := range ids[total-MaxRetainedJobs:] {
			_, err := s.Get(id)
			assert.NoError(t, err)
		}
	})

	t.Run("uses insertion order when timestamps tie", func(t *testing.T) {
		fixed := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
		s := NewStore(2, WithClock(func() time.Time { return fixed }))

		var ids []string
		for i := 0; i < 4; i++ {
			job := s.Create(fmt.Sprintf("p%d", i), "aws")
			_, err := s.MarkFailed(job.ID, "x")
			require.NoError(t, err)
			ids = append(ids, job.ID)
		}

		assert.Equal(t, 2, s.Prune())
		_, err := s.Get(ids[0])
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
		_, err = s.Get(ids[1])
		assert.ErrorIs(t, err, domain.ErrJobNotFound)
		_, err = s.Get(ids[3])
		assert.NoError(t, err)
	})

	t.Run("never evicts active jobs", func(t *testing.T) {
		clock := newFakeClock()
		s := NewStore(2, WithClock(clock.Now))

		active := s.Create("old", "aws")
		var finished []string
		for i := 0; i < 3; i++ {
			job := s.Create(fmt.Sprintf("p%d", i), "aws")
			_, err := s.MarkCompleted(job.ID, "out.md")
			require.NoError(t, err)
			finished = append(finished, job.ID)
		}

		assert.Equal(t, 2, s.Prune())
		assert.Equal(t, 2, s.Len())

		_, err := s.Get(active.ID)
		assert.NoError(t, err)
		_, err = s.Get(finished[2])
		assert.NoError(t, err)
	})

	t.Run("exceeds capacity while all jobs are active", func(t *testing.T) {
		// Active jobs outrank the cap; the store shrinks again once they finish.
		s := NewStore(2)
		for i := 0; i < 3; i++ {
			s.Create(fmt.Sprintf("p%d", i), "aws")
		}

		assert.Equal(t, 0, s.Prune())
		assert.Equal(t, 3, s.Len())
	})
}

func TestStore_List(t *testing.T) {
	clock := newFakeClock()
	s := NewStore(10, WithClock(clock.Now))

	a := s.Create("a", "aws")
	b := s.Create("b", "aws")
	c := s.Create("c", "aws")

	jobs := s.List()
	require.Len(t, jobs, 3)
	assert.Equal(t, []string{c.ID, b.ID, a.ID}, []string{jobs[0].ID, jobs[1].ID, jobs[2].ID})
}
