package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "farmsync:job:"

// Hash fields of a job key.
const (
	fieldMeta       = "meta"
	fieldState      = "state"
	fieldUpdatedAt  = "updated_at"
	fieldFinishedAt = "finished_at"
)

type jobMeta struct {
	ID        string    `json:"job_id"`
	Submitter string    `json:"submitter"`
	Total     int       `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// RedisRepository keeps each job in two hashes: the job key holds the job
// header and state, the results key maps record index to its JSON result.
// Both expire ttl after the last write so finished jobs age out.
type RedisRepository struct {
	client redis.UniversalClient
	ttl    time.Duration
}

func NewRedisRepository(client redis.UniversalClient, ttl time.Duration) *RedisRepository {
	return &RedisRepository{client: client, ttl: ttl}
}

func jobKey(id string) string     { return keyPrefix + id }
func resultsKey(id string) string { return keyPrefix + id + ":results" }

func (r *RedisRepository) Create(ctx context.Context, job *models.SyncJob) error {
	meta, err := json.Marshal(jobMeta{ID: job.ID, Submitter: job.Submitter, Total: job.Total, CreatedAt: job.CreatedAt})
	if err != nil {
		return fmt.Errorf("encode job: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, jobKey(job.ID),
			fieldMeta, meta,
			fieldState, string(job.State),
			fieldUpdatedAt, formatTime(job.UpdatedAt))
		p.Expire(ctx, jobKey(job.ID), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) SetState(ctx context.Context, id string, state models.JobState, at time.Time) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}

	values := []any{fieldState, string(state), fieldUpdatedAt, formatTime(at)}
	if state == models.JobDone {
		values = append(values, fieldFinishedAt, formatTime(at))
	}

	_, err := r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, jobKey(id), values...)
		p.Expire(ctx, jobKey(id), r.ttl)
		p.Expire(ctx, resultsKey(id), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) PutResult(ctx context.Context, id string, result models.RecordResult, at time.Time) error {
	if err := r.exists(ctx, id); err != nil {
		return err
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}

	_, err = r.client.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.HSet(ctx, resultsKey(id), strconv.Itoa(result.Index), data)
		p.HSet(ctx, jobKey(id), fieldUpdatedAt, formatTime(at))
		p.Expire(ctx, resultsKey(id), r.ttl)
		p.Expire(ctx, jobKey(id), r.ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	return nil
}

func (r *RedisRepository) Get(ctx context.Context, id string) (*models.SyncJob, error) {
	var header, results *redis.MapStringStringCmd
	_, err := r.client.Pipelined(ctx, func(p redis.Pipeliner) error {
		header = p.HGetAll(ctx, jobKey(id))
		results = p.HGetAll(ctx, resultsKey(id))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("redis error: %w", err)
	}

	h := header.Val()
	if len(h) == 0 {
		return nil, common.ErrJobNotFound
	}

	var meta jobMeta
	if err := json.Unmarshal([]byte(h[fieldMeta]), &meta); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}

	job := &models.SyncJob{
		ID:        meta.ID,
		Submitter: meta.Submitter,
		State:     models.JobState(h[fieldState]),
		Total:     meta.Total,
		CreatedAt: meta.CreatedAt,
		Results:   make([]models.RecordResult, 0, len(results.Val())),
	}
	if job.UpdatedAt, err = parseTime(h[fieldUpdatedAt]); err != nil {
		return nil, err
	}
	if v, ok := h[fieldFinishedAt]; ok {
		t, err := parseTime(v)
		if err != nil {
			return nil, err
		}
		job.FinishedAt = &t
	}

	for _, raw := range results.Val() {
		var res models.RecordResult
		if err := json.Unmarshal([]byte(raw), &res); err != nil {
			return nil, fmt.Errorf("decode result: %w", err)
		}
		job.Results = append(job.Results, res)
	}
	sortResults(job.Results)
	job.Processed = len(job.Results)
	return job, nil
}

func (r *RedisRepository) exists(ctx context.Context, id string) error {
	n, err := r.client.Exists(ctx, jobKey(id)).Result()
	if err != nil {
		return fmt.Errorf("redis error: %w", err)
	}
	if n == 0 {
		return common.ErrJobNotFound
	}
	return nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("decode time %q: %w", s, err)
	}
	return t, nil
}
