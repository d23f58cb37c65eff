// Package client talks to the farmsync sync service.
//
// GRPCClient submits batches of farmer records, reads job status and can
// poll a job until every record has a result. It attaches the operator
// access token to each call through an interceptor and maps gRPC status
// codes to the sentinel errors ErrUnavailable, ErrUnauthorized,
// ErrJobNotFound and ErrInvalidRequest.
package client
