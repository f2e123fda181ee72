// Package netx holds the HTTP plumbing shared by the REST integrations:
// a JSON request helper and the mapping of transport and status failures onto
// the error taxonomy in internal/common.
package netx

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/dmitrijs2005/xconnect/internal/common"
)

// maxBody caps how much of a response body is decoded.
const maxBody = 8 << 20

// Client issues JSON requests against third-party APIs.
type Client struct {
	hc *http.Client
}

// NewClient returns a Client whose requests time out after timeout.
func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{hc: &http.Client{Timeout: timeout}}
}

// NewClientWith wraps an existing http.Client, e.g. httptest.Server.Client().
func NewClientWith(hc *http.Client) *Client {
	return &Client{hc: hc}
}

// DoJSON sends req and decodes a 2xx JSON body into out. Failures are
// already classified by Classify.
func (c *Client) DoJSON(req *http.Request, out any) error {
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	resp, err := c.hc.Do(req)
	if err := Classify(resp, err); err != nil {
		if resp != nil {
			_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBody))
			resp.Body.Close()
		}
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBody)).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s response: %v", common.ErrorInternal, req.URL.Path, err)
	}
	return nil
}

// Classify turns the outcome of an HTTP round trip into a taxonomy error,
// or nil for a 2xx response.
//
//	transport failure, timeout, 5xx   -> ErrBackendUnavailable
//	401                               -> ErrAuthenticationFailure
//	403 with exhausted rate limit     -> ErrRateLimited
//	403                               -> ErrAuthorizationFailure
//	429                               -> ErrRateLimited
//	404                               -> ErrorNotFound
//
// Cancellation of the caller's context is returned unchanged.
func Classify(resp *http.Response, err error) error {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return err
		}
		return fmt.Errorf("%w: %v", common.ErrBackendUnavailable, err)
	}
	if resp == nil {
		return fmt.Errorf("%w: empty response", common.ErrBackendUnavailable)
	}

	code := resp.StatusCode
	switch {
	case code >= 200 && code < 300:
		return nil
	case code == http.StatusUnauthorized:
		return fmt.Errorf("%w: status %d", common.ErrAuthenticationFailure, code)
	case code == http.StatusForbidden:
		if resp.Header.Get("X-RateLimit-Remaining") == "0" {
			return fmt.Errorf("%w: status %d", common.ErrRateLimited, code)
		}
		return fmt.Errorf("%w: status %d", common.ErrAuthorizationFailure, code)
	case code == http.StatusTooManyRequests:
		return fmt.Errorf("%w: status %d", common.ErrRateLimited, code)
	case code == http.StatusNotFound:
		return fmt.Errorf("%w: status %d", common.ErrorNotFound, code)
	case code >= 500:
		return fmt.Errorf("%w: status %d", common.ErrBackendUnavailable, code)
	default:
		return fmt.Errorf("%w: unexpected status %d", common.ErrorInternal, code)
	}
}
