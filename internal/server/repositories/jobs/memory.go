package jobs

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
)

type memoryJob struct {
	job     models.SyncJob
	results map[int]models.RecordResult
}

// MemoryRepository keeps jobs in process memory. Status reads hold the lock
// only long enough to copy the job.
type MemoryRepository struct {
	mu   sync.RWMutex
	jobs map[string]*memoryJob
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{jobs: make(map[string]*memoryJob)}
}

func (r *MemoryRepository) Create(ctx context.Context, job *models.SyncJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j := *job
	j.Results = nil
	r.jobs[job.ID] = &memoryJob{job: j, results: make(map[int]models.RecordResult, job.Total)}
	return nil
}

func (r *MemoryRepository) SetState(ctx context.Context, id string, state models.JobState, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return common.ErrJobNotFound
	}
	j.job.State = state
	j.job.UpdatedAt = at
	if state == models.JobDone {
		t := at
		j.job.FinishedAt = &t
	}
	return nil
}

func (r *MemoryRepository) PutResult(ctx context.Context, id string, result models.RecordResult, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	j, ok := r.jobs[id]
	if !ok {
		return common.ErrJobNotFound
	}
	j.results[result.Index] = result
	j.job.UpdatedAt = at
	return nil
}

func (r *MemoryRepository) Get(ctx context.Context, id string) (*models.SyncJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	j, ok := r.jobs[id]
	if !ok {
		return nil, common.ErrJobNotFound
	}

	out := j.job
	out.Results = make([]models.RecordResult, 0, len(j.results))
	for _, res := range j.results {
		out.Results = append(out.Results, res)
	}
	sortResults(out.Results)
	out.Processed = len(out.Results)
	return &out, nil
}
