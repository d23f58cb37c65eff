// Package common contains shared constants, sentinel errors and small helpers
// used across farmsync components.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// submitter's access token on inbound requests.
const AccessTokenHeaderName = "access_token"
