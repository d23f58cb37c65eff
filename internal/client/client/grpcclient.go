package client

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/rpc"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

type syncAPI interface {
	SubmitBatch(ctx context.Context, in *rpc.SubmitBatchRequest, opts ...grpc.CallOption) (*rpc.SubmitBatchResponse, error)
	GetStatus(ctx context.Context, in *rpc.GetStatusRequest, opts ...grpc.CallOption) (*rpc.GetStatusResponse, error)
	Ping(ctx context.Context, in *rpc.PingRequest, opts ...grpc.CallOption) (*rpc.PingResponse, error)
}

type GRPCClient struct {
	endpointURL    string
	conn           *grpc.ClientConn
	client         syncAPI
	accessToken    string
	requestTimeout time.Duration
}

func withAccessToken(ctx context.Context, token string) context.Context {
	md, _ := metadata.FromOutgoingContext(ctx)
	md = md.Copy()
	if md == nil {
		md = metadata.MD{}
	}
	md.Set(common.AccessTokenHeaderName, token)

	return metadata.NewOutgoingContext(ctx, md)
}

func (s *GRPCClient) accessTokenInterceptor(
	ctx context.Context,
	method string,
	req, reply interface{},
	cc *grpc.ClientConn,
	invoker grpc.UnaryInvoker,
	opts ...grpc.CallOption,
) error {
	if s.accessToken != "" {
		ctx = withAccessToken(ctx, s.accessToken)
	}
	return invoker(ctx, method, req, reply, cc, opts...)
}

// NewGRPCClient dials endpointURL lazily; the first call establishes the
// connection. A zero requestTimeout leaves call deadlines to the caller.
func NewGRPCClient(endpointURL, accessToken string, requestTimeout time.Duration, opts ...grpc.DialOption) (*GRPCClient, error) {
	c := &GRPCClient{endpointURL: endpointURL, accessToken: accessToken, requestTimeout: requestTimeout}

	opts = append([]grpc.DialOption{
		grpc.WithTransportCredentials(insecure.NewCredentials()),
		grpc.WithUnaryInterceptor(c.accessTokenInterceptor),
	}, opts...)

	conn, err := grpc.NewClient(endpointURL, opts...)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	c.client = rpc.NewSyncClient(conn)
	return c, nil
}

func (s *GRPCClient) Close() error {
	if s.conn == nil {
		return nil
	}
	return s.conn.Close()
}

func (s *GRPCClient) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.requestTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.requestTimeout)
}

func (s *GRPCClient) Ping(ctx context.Context) error {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	resp, err := s.client.Ping(ctx, &rpc.PingRequest{})
	if err != nil {
		return s.mapError(err)
	}

	if resp.Status != "OK" {
		return ErrUnavailable
	}

	return nil
}

// Submit sends records as one batch and returns the job ID together with the
// number of records the server accepted into the job.
func (s *GRPCClient) Submit(ctx context.Context, records []*models.RawRecord, lastSync string) (string, int, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	resp, err := s.client.SubmitBatch(ctx, &rpc.SubmitBatchRequest{Records: records, LastSync: lastSync})
	if err != nil {
		return "", 0, s.mapError(err)
	}
	return resp.JobID, resp.Total, nil
}

func (s *GRPCClient) Status(ctx context.Context, jobID string) (*models.SyncJob, error) {
	ctx, cancel := s.callContext(ctx)
	defer cancel()

	resp, err := s.client.GetStatus(ctx, &rpc.GetStatusRequest{JobID: jobID})
	if err != nil {
		return nil, s.mapError(err)
	}
	if resp.Job == nil {
		return nil, ErrJobNotFound
	}
	return resp.Job, nil
}

// WaitDone polls the job every interval until it reaches the done state or
// ctx ends. The last status seen is returned alongside a ctx error.
func (s *GRPCClient) WaitDone(ctx context.Context, jobID string, interval time.Duration) (*models.SyncJob, error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	var last *models.SyncJob
	for {
		job, err := s.Status(ctx, jobID)
		if err != nil {
			return last, err
		}
		last = job
		if job.State == models.JobDone {
			return job, nil
		}

		select {
		case <-ctx.Done():
			return last, ctx.Err()
		case <-ticker.C:
		}
	}
}

func (s *GRPCClient) mapError(err error) error {
	if err == nil {
		return nil
	}
	st, _ := status.FromError(err)
	switch st.Code() {
	case codes.Unauthenticated, codes.PermissionDenied:
		return fmt.Errorf("%w: %s", ErrUnauthorized, st.Message())
	case codes.Unavailable, codes.DeadlineExceeded:
		return ErrUnavailable
	case codes.NotFound:
		return ErrJobNotFound
	case codes.InvalidArgument:
		return fmt.Errorf("%w: %s", ErrInvalidRequest, st.Message())
	default:
		return fmt.Errorf("rpc error: %w", err)
	}
}
