package rpc

import "github.com/dmitrijs2005/farmsync/internal/server/models"

type SubmitBatchRequest struct {
	Records []*models.RawRecord `json:"farmers"`
	// LastSync is the client's previous successful sync time, if any.
	// It is logged but does not affect reconciliation.
	LastSync string `json:"last_sync,omitempty"`
}

type SubmitBatchResponse struct {
	JobID  string          `json:"job_id"`
	Status models.JobState `json:"status"`
	Total  int             `json:"total"`
}

type GetStatusRequest struct {
	JobID string `json:"job_id"`
}

type GetStatusResponse struct {
	Job *models.SyncJob `json:"job"`
}

type PingRequest struct{}

type PingResponse struct {
	Status string `json:"status"`
}
