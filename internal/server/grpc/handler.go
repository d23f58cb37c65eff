package grpc

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/rpc"
	"github.com/dmitrijs2005/farmsync/internal/server/auth"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func (s *GRPCServer) SubmitBatch(ctx context.Context, req *rpc.SubmitBatchRequest) (*rpc.SubmitBatchResponse, error) {
	operatorID, ok := auth.OperatorFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if s.maxBatchSize > 0 && len(req.Records) > s.maxBatchSize {
		return nil, status.Error(codes.InvalidArgument,
			fmt.Sprintf("batch of %d records exceeds the limit of %d", len(req.Records), s.maxBatchSize))
	}

	jobID, err := s.sync.Submit(ctx, operatorID, req.Records)
	if err != nil {
		s.logger.Error(ctx, "submit batch", "operator", operatorID, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}

	s.logger.Info(ctx, "Batch submitted", "operator", operatorID, "job_id", jobID,
		"records", len(req.Records), "last_sync", req.LastSync)
	return &rpc.SubmitBatchResponse{JobID: jobID, Status: models.JobQueued, Total: len(req.Records)}, nil
}

func (s *GRPCServer) GetStatus(ctx context.Context, req *rpc.GetStatusRequest) (*rpc.GetStatusResponse, error) {
	operatorID, ok := auth.OperatorFromContext(ctx)
	if !ok {
		return nil, status.Error(codes.Unauthenticated, "unauthenticated")
	}
	if req.JobID == "" {
		return nil, status.Error(codes.InvalidArgument, "job_id is required")
	}

	job, err := s.sync.Status(ctx, req.JobID)
	if err != nil {
		if errors.Is(err, common.ErrJobNotFound) {
			return nil, status.Error(codes.NotFound, "job not found")
		}
		s.logger.Error(ctx, "get job status", "job_id", req.JobID, "error", err)
		return nil, status.Error(codes.Internal, "internal error")
	}
	// Jobs of other operators are indistinguishable from missing ones.
	if job.Submitter != operatorID {
		return nil, status.Error(codes.NotFound, "job not found")
	}

	return &rpc.GetStatusResponse{Job: job}, nil
}

func (s *GRPCServer) Ping(ctx context.Context, req *rpc.PingRequest) (*rpc.PingResponse, error) {
	return &rpc.PingResponse{Status: "OK"}, nil
}
