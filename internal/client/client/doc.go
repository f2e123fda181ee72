// Package client is the gRPC client of the XConnect CLI.
//
// GRPCClient attaches the access token to every call, speaks the JSON
// codec declared in internal/api and maps gRPC status codes to sentinel
// errors (ErrUnauthorized, ErrUnavailable, ErrNotFound, ErrInvalidArgument)
// that callers match with errors.Is.
package client
