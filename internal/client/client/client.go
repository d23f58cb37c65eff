package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/server/models"
)

type Client interface {
	Close() error
	Ping(ctx context.Context) error
	Submit(ctx context.Context, records []*models.RawRecord, lastSync string) (string, int, error)
	Status(ctx context.Context, jobID string) (*models.SyncJob, error)
	WaitDone(ctx context.Context, jobID string, interval time.Duration) (*models.SyncJob, error)
}
