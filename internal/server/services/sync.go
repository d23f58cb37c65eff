package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/logging"
	"github.com/dmitrijs2005/farmsync/internal/server/metrics"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"github.com/dmitrijs2005/farmsync/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/farmsync/internal/server/validator"
	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

// ErrNotStarted is returned by Submit before Start has been called.
var ErrNotStarted = errors.New("sync service is not running")

// internalErrorMessage replaces the detail of unexpected failures in record
// results.
const internalErrorMessage = "internal error while processing record"

// SyncOptions tunes the worker pool.
type SyncOptions struct {
	Workers       int
	QueueSize     int
	RecordTimeout time.Duration
}

type task struct {
	jobID     string
	submitter string
	index     int
	record    *models.RawRecord
}

// SyncService accepts batches of farmer records, reconciles them in the
// background on a fixed pool of workers and reports progress through the
// job table.
//
// Every record of an accepted job ends in exactly one result. A failing
// record never affects the others.
type SyncService struct {
	jobs      jobs.Repository
	validator *validator.Validator
	resolver  *Resolver
	logger    logging.Logger
	opts      SyncOptions
	now       func() time.Time

	tasks   chan task
	baseCtx context.Context
	started atomic.Bool
	wg      sync.WaitGroup

	mu        sync.Mutex
	remaining map[string]int
}

func NewSyncService(j jobs.Repository, v *validator.Validator, r *Resolver, l logging.Logger, opts SyncOptions) *SyncService {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.QueueSize <= 0 {
		opts.QueueSize = opts.Workers * 16
	}
	if opts.RecordTimeout <= 0 {
		opts.RecordTimeout = 10 * time.Second
	}
	return &SyncService{
		jobs:      j,
		validator: v,
		resolver:  r,
		logger:    l,
		opts:      opts,
		now:       func() time.Time { return time.Now().UTC() },
		tasks:     make(chan task, opts.QueueSize),
		remaining: make(map[string]int),
	}
}

// Start launches the workers. They stop when ctx is cancelled; records still
// queued at that point are left unprocessed.
func (s *SyncService) Start(ctx context.Context) {
	s.baseCtx = ctx
	for i := 0; i < s.opts.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx)
	}
	s.started.Store(true)
	s.logger.Info(ctx, "sync workers started", "workers", s.opts.Workers, "queue", s.opts.QueueSize)
}

// Wait blocks until every worker has exited.
func (s *SyncService) Wait() {
	s.wg.Wait()
}

// Submit registers a job for records and returns its ID without waiting for
// any record to be processed. An empty batch is accepted and completes with
// no results.
func (s *SyncService) Submit(ctx context.Context, submitter string, records []*models.RawRecord) (string, error) {
	if !s.started.Load() {
		return "", ErrNotStarted
	}

	now := s.now()
	job := &models.SyncJob{
		ID:        uuid.NewString(),
		Submitter: submitter,
		State:     models.JobQueued,
		Total:     len(records),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return "", fmt.Errorf("create job: %w", err)
	}

	s.mu.Lock()
	s.remaining[job.ID] = len(records)
	s.mu.Unlock()

	metrics.JobTransitions.WithLabelValues(string(models.JobQueued)).Inc()
	metrics.JobsInFlight.Inc()
	metrics.BatchSize.Observe(float64(len(records)))
	s.logger.Info(ctx, "job accepted", "job_id", job.ID, "submitter", submitter, "records", len(records))

	go s.dispatch(job.ID, submitter, records)
	return job.ID, nil
}

// Status returns the current snapshot of a job, or common.ErrJobNotFound.
func (s *SyncService) Status(ctx context.Context, jobID string) (*models.SyncJob, error) {
	job, err := s.jobs.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, common.ErrJobNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("get job: %w", err)
	}
	return job, nil
}

func (s *SyncService) dispatch(jobID, submitter string, records []*models.RawRecord) {
	ctx := s.baseCtx
	s.setState(ctx, jobID, models.JobRunning)

	if len(records) == 0 {
		s.finish(ctx, jobID)
		return
	}

	for i, rec := range records {
		select {
		case s.tasks <- task{jobID: jobID, submitter: submitter, index: i, record: rec}:
		case <-ctx.Done():
			s.logger.Warn(ctx, "dispatch interrupted", "job_id", jobID, "dispatched", i, "total", len(records))
			return
		}
	}
}

func (s *SyncService) worker(ctx context.Context) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case t := <-s.tasks:
			s.handle(ctx, t)
		}
	}
}

func (s *SyncService) handle(ctx context.Context, t task) {
	start := time.Now()
	res := s.processRecord(ctx, t)
	elapsed := time.Since(start)

	metrics.RecordsProcessed.WithLabelValues(string(res.Outcome)).Inc()
	metrics.RecordDuration.WithLabelValues(string(res.Outcome)).Observe(elapsed.Seconds())

	l := s.logger.With("job_id", t.jobID, "index", t.index)
	if res.Outcome == models.OutcomeError {
		l.Warn(ctx, "record failed", "temp_id", res.TempID, "errors", len(res.Errors))
	} else {
		l.Debug(ctx, "record reconciled", "temp_id", res.TempID, "farmer_id", *res.FarmerID, "outcome", string(res.Outcome))
	}

	err := s.persist(ctx, func(ctx context.Context) error {
		return s.jobs.PutResult(ctx, t.jobID, res, s.now())
	})
	if err != nil {
		// Without its result the job can not be reported done; it stays running.
		l.Error(ctx, "store record result, job left running", "error", err)
		return
	}

	s.mu.Lock()
	s.remaining[t.jobID]--
	done := s.remaining[t.jobID] <= 0
	if done {
		delete(s.remaining, t.jobID)
	}
	s.mu.Unlock()

	if done {
		s.finish(ctx, t.jobID)
	}
}

// processRecord validates and reconciles one record. Any failure, including a
// panic, becomes an error result for this record only.
func (s *SyncService) processRecord(ctx context.Context, t task) (res models.RecordResult) {
	res = models.RecordResult{Index: t.index, Errors: []string{}}
	if t.record != nil {
		res.TempID = t.record.TempID
	}

	defer func() {
		if p := recover(); p != nil {
			s.logger.Error(ctx, "panic while processing record", "job_id", t.jobID, "index", t.index, "panic", fmt.Sprint(p))
			res.FarmerID = nil
			res.Outcome = models.OutcomeError
			res.Errors = []string{internalErrorMessage}
		}
	}()

	if err := s.validator.Validate(t.record); err != nil {
		return failed(res, err)
	}

	ctx, cancel := context.WithTimeout(ctx, s.opts.RecordTimeout)
	defer cancel()

	out, err := s.resolver.Resolve(ctx, t.submitter, t.record)
	if err != nil {
		return failed(res, err)
	}

	id := out.FarmerID
	res.FarmerID = &id
	res.Outcome = out.Outcome
	return res
}

func failed(res models.RecordResult, err error) models.RecordResult {
	res.FarmerID = nil
	res.Outcome = models.OutcomeError

	var ve *common.ValidationError
	if errors.As(err, &ve) {
		res.Errors = ve.Messages()
		return res
	}
	res.Errors = []string{err.Error()}
	return res
}

func (s *SyncService) finish(ctx context.Context, jobID string) {
	s.setState(ctx, jobID, models.JobDone)
	metrics.JobsInFlight.Dec()
	s.logger.Info(ctx, "job done", "job_id", jobID)
}

func (s *SyncService) setState(ctx context.Context, jobID string, state models.JobState) {
	err := s.persist(ctx, func(ctx context.Context) error {
		return s.jobs.SetState(ctx, jobID, state, s.now())
	})
	if err != nil {
		s.logger.Error(ctx, "update job state", "job_id", jobID, "state", string(state), "error", err)
		return
	}
	metrics.JobTransitions.WithLabelValues(string(state)).Inc()
}

// persist retries transient job-table failures with exponential backoff.
// A missing job is not retried.
func (s *SyncService) persist(ctx context.Context, write func(ctx context.Context) error) error {
	b := retry.WithMaxRetries(3, retry.NewExponential(50*time.Millisecond))
	return retry.Do(ctx, b, func(ctx context.Context) error {
		err := write(ctx)
		if err == nil || errors.Is(err, common.ErrJobNotFound) {
			return err
		}
		return retry.RetryableError(err)
	})
}
