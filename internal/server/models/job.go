package models

import "time"

type JobState string

const (
	JobQueued  JobState = "queued"
	JobRunning JobState = "running"
	JobDone    JobState = "done"
)

type Outcome string

const (
	OutcomeCreated Outcome = "created"
	OutcomeUpdated Outcome = "updated"
	OutcomeError   Outcome = "error"
)

// RecordResult is the terminal outcome of one input record.
type RecordResult struct {
	Index    int      `json:"index"`
	TempID   string   `json:"temp_id,omitempty"`
	FarmerID *string  `json:"farmer_id"`
	Outcome  Outcome  `json:"outcome"`
	Errors   []string `json:"errors"`
}

// SyncJob is the unit of batch work. Results are ordered by input index and,
// while the job is running, hold only the records finished so far.
type SyncJob struct {
	ID         string         `json:"job_id"`
	Submitter  string         `json:"submitter"`
	State      JobState       `json:"state"`
	Total      int            `json:"total"`
	Processed  int            `json:"processed"`
	Results    []RecordResult `json:"results"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	FinishedAt *time.Time     `json:"finished_at,omitempty"`
}
