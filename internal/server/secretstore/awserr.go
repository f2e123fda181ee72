package secretstore

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	smtypes "github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/xconnect/internal/common"
)

var transientCodes = map[string]bool{
	"ThrottlingException":     true,
	"Throttling":              true,
	"TooManyRequests":         true,
	"InternalServiceError":    true,
	"InternalError":           true,
	"ServiceUnavailable":      true,
	"SlowDown":                true,
	"RequestTimeout":          true,
	"RequestTimeoutException": true,
}

var missingCodes = map[string]bool{
	"ResourceNotFoundException": true,
	"NoSuchKey":                 true,
	"NotFound":                  true,
}

var deniedCodes = map[string]bool{
	"AccessDeniedException": true,
	"AccessDenied":          true,
	"AllAccessDisabled":     true,
	"KMSAccessDenied":       true,
}

var unauthenticatedCodes = map[string]bool{
	"UnrecognizedClientException": true,
	"InvalidClientTokenId":        true,
	"InvalidAccessKeyId":          true,
	"SignatureDoesNotMatch":       true,
	"ExpiredToken":                true,
	"ExpiredTokenException":       true,
}

// classifyAWSError maps an SDK error onto the secret-layer taxonomy. The
// returned error names the operation but never echoes request payloads.
func classifyAWSError(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return err
	}

	var notFound *smtypes.ResourceNotFoundException
	var noSuchKey *s3types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		code := apiErr.ErrorCode()
		switch {
		case missingCodes[code]:
			return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
		case transientCodes[code]:
			return fmt.Errorf("%s: %w: %s", op, common.ErrBackendUnavailable, code)
		case deniedCodes[code]:
			return fmt.Errorf("%s: %w: %s", op, common.ErrAuthorizationFailure, code)
		case unauthenticatedCodes[code]:
			return fmt.Errorf("%s: %w: %s", op, common.ErrAuthenticationFailure, code)
		}
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		status := respErr.HTTPStatusCode()
		switch {
		case status == http.StatusNotFound:
			return fmt.Errorf("%s: %w", op, common.ErrorNotFound)
		case status == http.StatusUnauthorized:
			return fmt.Errorf("%s: %w: status %d", op, common.ErrAuthenticationFailure, status)
		case status == http.StatusForbidden:
			return fmt.Errorf("%s: %w: status %d", op, common.ErrAuthorizationFailure, status)
		case status == http.StatusTooManyRequests || status >= http.StatusInternalServerError:
			return fmt.Errorf("%s: %w: status %d", op, common.ErrBackendUnavailable, status)
		}
	}

	if apiErr != nil {
		return fmt.Errorf("%s: %w: %s", op, common.ErrorInternal, apiErr.ErrorCode())
	}

	var netErr net.Error
	if errors.As(err, &netErr) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w: network failure", op, common.ErrBackendUnavailable)
	}
	return fmt.Errorf("%s: %w", op, common.ErrBackendUnavailable)
}
