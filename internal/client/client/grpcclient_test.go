package client

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/dmitrijs2005/farmsync/internal/common"
	"github.com/dmitrijs2005/farmsync/internal/cryptox"
	"github.com/dmitrijs2005/farmsync/internal/logging"
	"github.com/dmitrijs2005/farmsync/internal/rpc"
	"github.com/dmitrijs2005/farmsync/internal/server/auth"
	gs "github.com/dmitrijs2005/farmsync/internal/server/grpc"
	"github.com/dmitrijs2005/farmsync/internal/server/models"
	"github.com/dmitrijs2005/farmsync/internal/server/repositories/farmers"
	"github.com/dmitrijs2005/farmsync/internal/server/repositories/jobs"
	"github.com/dmitrijs2005/farmsync/internal/server/services"
	"github.com/dmitrijs2005/farmsync/internal/server/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

/*************
 * Fake rpc client
 *************/

type fakeAPI struct {
	lastSubmit *rpc.SubmitBatchRequest
	lastStatus *rpc.GetStatusRequest

	submitResp *rpc.SubmitBatchResponse
	submitErr  error

	// statuses are returned in order; the last one repeats.
	statuses  []*rpc.GetStatusResponse
	statusErr error
	calls     int

	pingResp *rpc.PingResponse
	pingErr  error
}

func (f *fakeAPI) SubmitBatch(ctx context.Context, in *rpc.SubmitBatchRequest, opts ...grpc.CallOption) (*rpc.SubmitBatchResponse, error) {
	f.lastSubmit = in
	return f.submitResp, f.submitErr
}

func (f *fakeAPI) GetStatus(ctx context.Context, in *rpc.GetStatusRequest, opts ...grpc.CallOption) (*rpc.GetStatusResponse, error) {
	f.lastStatus = in
	if f.statusErr != nil {
		return nil, f.statusErr
	}
	i := f.calls
	if i >= len(f.statuses) {
		i = len(f.statuses) - 1
	}
	f.calls++
	return f.statuses[i], nil
}

func (f *fakeAPI) Ping(ctx context.Context, in *rpc.PingRequest, opts ...grpc.CallOption) (*rpc.PingResponse, error) {
	return f.pingResp, f.pingErr
}

/*************
 * accessTokenInterceptor tests
 *************/

func TestInterceptor_AttachesToken(t *testing.T) {
	c := &GRPCClient{accessToken: "A1"}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Equal(t, []string{"A1"}, md.Get(common.AccessTokenHeaderName))
		return nil
	}

	ctx := metadata.AppendToOutgoingContext(context.Background(), common.AccessTokenHeaderName, "stale")
	require.NoError(t, c.accessTokenInterceptor(ctx, "/svc/Method", nil, nil, nil, invoker))
}

func TestInterceptor_NoTokenLeavesMetadataAlone(t *testing.T) {
	c := &GRPCClient{}

	invoker := func(ctx context.Context, method string, req, reply interface{}, cc *grpc.ClientConn, opts ...grpc.CallOption) error {
		md, _ := metadata.FromOutgoingContext(ctx)
		require.Empty(t, md.Get(common.AccessTokenHeaderName))
		return status.Error(codes.Internal, "boom")
	}

	require.Error(t, c.accessTokenInterceptor(context.Background(), "/svc/Method", nil, nil, nil, invoker))
}

/*************
 * mapError tests
 *************/

func TestMapError(t *testing.T) {
	c := &GRPCClient{}

	require.ErrorIs(t, c.mapError(status.Error(codes.Unauthenticated, "x")), ErrUnauthorized)
	require.ErrorIs(t, c.mapError(status.Error(codes.PermissionDenied, "x")), ErrUnauthorized)
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.Unavailable, "x")))
	require.Equal(t, ErrUnavailable, c.mapError(status.Error(codes.DeadlineExceeded, "x")))
	require.Equal(t, ErrJobNotFound, c.mapError(status.Error(codes.NotFound, "x")))
	require.ErrorIs(t, c.mapError(status.Error(codes.InvalidArgument, "too big")), ErrInvalidRequest)
	require.NoError(t, c.mapError(nil))
	require.ErrorContains(t, c.mapError(errors.New("plain")), "rpc error:")
}

/*************
 * Method tests
 *************/

func TestPing(t *testing.T) {
	c := &GRPCClient{client: &fakeAPI{pingResp: &rpc.PingResponse{Status: "OK"}}}
	require.NoError(t, c.Ping(context.Background()))

	c = &GRPCClient{client: &fakeAPI{pingResp: &rpc.PingResponse{Status: "NOT_OK"}}}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)

	c = &GRPCClient{client: &fakeAPI{pingErr: status.Error(codes.Unavailable, "down")}}
	require.ErrorIs(t, c.Ping(context.Background()), ErrUnavailable)
}

func TestSubmit(t *testing.T) {
	f := &fakeAPI{submitResp: &rpc.SubmitBatchResponse{JobID: "job-1", Status: models.JobQueued, Total: 2}}
	c := &GRPCClient{client: f, requestTimeout: time.Second}

	records := []*models.RawRecord{{TempID: "a"}, {TempID: "b"}}
	id, total, err := c.Submit(context.Background(), records, "2024-01-01T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "job-1", id)
	assert.Equal(t, 2, total)
	assert.Equal(t, records, f.lastSubmit.Records)
	assert.Equal(t, "2024-01-01T00:00:00Z", f.lastSubmit.LastSync)

	f.submitErr = status.Error(codes.InvalidArgument, "batch too large")
	_, _, err = c.Submit(context.Background(), records, "")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestStatus(t *testing.T) {
	job := &models.SyncJob{ID: "job-1", State: models.JobRunning}
	f := &fakeAPI{statuses: []*rpc.GetStatusResponse{{Job: job}}}
	c := &GRPCClient{client: f}

	got, err := c.Status(context.Background(), "job-1")
	require.NoError(t, err)
	assert.Equal(t, job, got)
	assert.Equal(t, "job-1", f.lastStatus.JobID)

	f.statuses = []*rpc.GetStatusResponse{{}}
	f.calls = 0
	_, err = c.Status(context.Background(), "job-1")
	require.ErrorIs(t, err, ErrJobNotFound)

	f.statusErr = status.Error(codes.NotFound, "job not found")
	_, err = c.Status(context.Background(), "job-1")
	require.ErrorIs(t, err, ErrJobNotFound)
}

func TestWaitDone_PollsUntilDone(t *testing.T) {
	f := &fakeAPI{statuses: []*rpc.GetStatusResponse{
		{Job: &models.SyncJob{ID: "j", State: models.JobQueued}},
		{Job: &models.SyncJob{ID: "j", State: models.JobRunning}},
		{Job: &models.SyncJob{ID: "j", State: models.JobDone, Processed: 1}},
	}}
	c := &GRPCClient{client: f}

	job, err := c.WaitDone(context.Background(), "j", time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, models.JobDone, job.State)
	assert.Equal(t, 3, f.calls)
}

func TestWaitDone_ContextCancelled(t *testing.T) {
	f := &fakeAPI{statuses: []*rpc.GetStatusResponse{
		{Job: &models.SyncJob{ID: "j", State: models.JobRunning}},
	}}
	c := &GRPCClient{client: f}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	job, err := c.WaitDone(ctx, "j", 5*time.Millisecond)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.NotNil(t, job)
	assert.Equal(t, models.JobRunning, job.State)
}

/*************
 * End to end over bufconn
 *************/

func startServer(t *testing.T, secret string) *bufconn.Listener {
	t.Helper()

	cipher, err := cryptox.NewFieldCipher("client-test-master-secret-012345")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	resolver := services.NewResolver(farmers.NewMemoryRepository(), cipher, 0, logging.Nop{})
	svc := services.NewSyncService(jobs.NewMemoryRepository(), validator.New(), resolver, logging.Nop{},
		services.SyncOptions{Workers: 2})
	svc.Start(ctx)

	lis := bufconn.Listen(1 << 20)
	srv := gs.NewGRPCServer("", logging.Nop{}, svc, secret, 10)
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx, lis) }()

	t.Cleanup(func() {
		cancel()
		<-served
		svc.Wait()
	})
	return lis
}

func dialBufconn(t *testing.T, lis *bufconn.Listener, token string) *GRPCClient {
	t.Helper()
	c, err := NewGRPCClient("passthrough:///bufnet", token, 5*time.Second,
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}))
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func TestGRPCClient_EndToEnd(t *testing.T) {
	const secret = "client-e2e-secret"
	lis := startServer(t, secret)

	token, err := auth.GenerateToken("OPA1B2C3", []byte(secret), time.Hour)
	require.NoError(t, err)
	c := dialBufconn(t, lis, token)

	require.NoError(t, c.Ping(context.Background()))

	rec := &models.RawRecord{
		TempID:       "tmp-1",
		PersonalInfo: &models.PersonalInfo{FirstName: "Mary", LastName: "Banda", PhonePrimary: "+260977000001"},
		Address:      &models.Address{Province: "Eastern", District: "Chipata"},
	}
	id, total, err := c.Submit(context.Background(), []*models.RawRecord{rec}, "")
	require.NoError(t, err)
	assert.Equal(t, 1, total)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	job, err := c.WaitDone(ctx, id, 10*time.Millisecond)
	require.NoError(t, err)
	require.Len(t, job.Results, 1)
	assert.Equal(t, models.OutcomeCreated, job.Results[0].Outcome)

	big := make([]*models.RawRecord, 11)
	for i := range big {
		big[i] = rec
	}
	_, _, err = c.Submit(context.Background(), big, "")
	require.ErrorIs(t, err, ErrInvalidRequest)
}

func TestGRPCClient_RejectsBadToken(t *testing.T) {
	lis := startServer(t, "right-secret")

	token, err := auth.GenerateToken("OPA1B2C3", []byte("wrong-secret"), time.Hour)
	require.NoError(t, err)
	c := dialBufconn(t, lis, token)

	_, _, err = c.Submit(context.Background(), []*models.RawRecord{{TempID: "x"}}, "")
	require.ErrorIs(t, err, ErrUnauthorized)

	_, err = c.Status(context.Background(), "whatever")
	require.ErrorIs(t, err, ErrUnauthorized)
}
