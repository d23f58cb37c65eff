// Package jobs is the job table: it holds batch sync jobs and their per-record
// results so status reads never wait on record processing.
package jobs

import (
	"context"
	"sort"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/server/models"
)

type Repository interface {
	// Create stores a new job. The job's Results are ignored.
	Create(ctx context.Context, job *models.SyncJob) error
	// SetState moves a job to state at the given time. Moving to done also
	// sets FinishedAt.
	SetState(ctx context.Context, id string, state models.JobState, at time.Time) error
	// PutResult records the outcome of one record. Writing the same index
	// twice keeps the latest result.
	PutResult(ctx context.Context, id string, result models.RecordResult, at time.Time) error
	// Get returns a snapshot of the job with results ordered by index,
	// or common.ErrJobNotFound.
	Get(ctx context.Context, id string) (*models.SyncJob, error)
}

func sortResults(rs []models.RecordResult) {
	sort.Slice(rs, func(i, j int) bool { return rs[i].Index < rs[j].Index })
}
