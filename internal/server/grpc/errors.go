package grpc

import (
	"context"
	"errors"

	"github.com/dmitrijs2005/xconnect/internal/common"
	"github.com/dmitrijs2005/xconnect/internal/server/services"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// toStatus maps the error taxonomy onto gRPC status codes. Messages are
// fixed per category so that nothing from the underlying error, such as a
// provider response, reaches the caller. Validation messages are our own
// and are passed through.
func toStatus(err error) error {
	var sfe *services.SchemaFetchError
	if errors.As(err, &sfe) {
		code, _ := classify(sfe.Err)
		if code == codes.Internal {
			code = codes.Unavailable
		}
		return status.Errorf(code, "%s schema %q unavailable", sfe.Side, sfe.Resource)
	}
	code, msg := classify(err)
	if code == codes.InvalidArgument {
		msg = err.Error()
	}
	return status.Error(code, msg)
}

func classify(err error) (codes.Code, string) {
	switch {
	case errors.Is(err, context.Canceled):
		return codes.Canceled, "canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return codes.DeadlineExceeded, "deadline exceeded"
	case errors.Is(err, common.ErrorValidation):
		return codes.InvalidArgument, "invalid argument"
	case errors.Is(err, common.ErrorUnauthorized), errors.Is(err, common.ErrAuthenticationFailure):
		return codes.Unauthenticated, "authentication failed"
	case errors.Is(err, common.ErrAuthorizationFailure):
		return codes.PermissionDenied, "permission denied"
	case errors.Is(err, common.ErrRateLimited):
		return codes.ResourceExhausted, "rate limited"
	case errors.Is(err, common.ErrorNotFound):
		return codes.NotFound, "not found"
	case errors.Is(err, common.ErrBackendUnavailable):
		return codes.Unavailable, "backend unavailable"
	case errors.Is(err, common.ErrIntegrityFailure):
		return codes.DataLoss, "stored secret failed integrity check"
	case errors.Is(err, common.ErrActiveConflict):
		return codes.Aborted, "concurrent update, retry"
	default:
		return codes.Internal, "internal error"
	}
}
