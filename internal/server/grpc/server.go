package grpc

import (
	"context"
	"net"

	"github.com/dmitrijs2005/farmsync/internal/logging"
	"github.com/dmitrijs2005/farmsync/internal/rpc"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"google.golang.org/grpc"
)

// SyncService is the batch coordinator the transport delegates to.
type SyncService interface {
	Submit(ctx context.Context, submitter string, records []*models.RawRecord) (string, error)
	Status(ctx context.Context, jobID string) (*models.SyncJob, error)
}

type GRPCServer struct {
	address      string
	sync         SyncService
	logger       logging.Logger
	jwtSecret    []byte
	maxBatchSize int
}

func NewGRPCServer(a string, l logging.Logger, ss SyncService, secretKey string, maxBatchSize int) *GRPCServer {
	return &GRPCServer{
		address:      a,
		logger:       l.With("module", "grpc_server"),
		sync:         ss,
		jwtSecret:    []byte(secretKey),
		maxBatchSize: maxBatchSize,
	}
}

// Run listens on the configured address and serves until ctx is cancelled.
func (s *GRPCServer) Run(ctx context.Context) error {
	listen, err := net.Listen("tcp", s.address)
	if err != nil {
		return err
	}
	return s.Serve(ctx, listen)
}

// Serve serves on lis until ctx is cancelled, then stops gracefully.
func (s *GRPCServer) Serve(ctx context.Context, lis net.Listener) error {
	srv := grpc.NewServer(grpc.ChainUnaryInterceptor(s.accessTokenInterceptor))
	rpc.RegisterSyncServer(srv, s)

	go func() {
		<-ctx.Done()
		s.logger.Info(ctx, "Stopping gRPC server...")
		srv.GracefulStop()
	}()

	s.logger.Info(ctx, "Starting gRPC server", "address", lis.Addr().String())

	if err := srv.Serve(lis); err != nil {
		return err
	}
	return nil
}
