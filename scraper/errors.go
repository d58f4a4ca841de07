package scraper

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// errNoURL is the record message for a catalog entry with an empty URL.
const errNoURL = "No URL provided"

// HTTPStatusError reports a fetch that reached the target but answered with
// a status other than 200. The code lands on the record's http_status field
// and Error() is the record's error text.
type HTTPStatusError struct {
	StatusCode int
}

func (e *HTTPStatusError) Error() string {
	return fmt.Sprintf("HTTP %d", e.StatusCode)
}

// Failure categories for the error_type metric label.
const (
	failureTimeout     = "timeout"
	failureConnection  = "connection"
	failureForbidden   = "forbidden"
	failureNotFound    = "not_found"
	failureRateLimited = "rate_limited"
	failureOther       = "other"
	failureUnknown     = "unknown"
)

// classifyFailure buckets a failed fetch for metrics and the error-type
// tally. Transport-level causes win over the HTTP status: a status only
// matters when the request itself went through.
func classifyFailure(err error, statusCode int) string {
	if errors.Is(err, context.DeadlineExceeded) {
		return failureTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return failureTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return failureConnection
	}

	switch statusCode {
	case http.StatusForbidden:
		return failureForbidden
	case http.StatusNotFound:
		return failureNotFound
	case http.StatusTooManyRequests:
		return failureRateLimited
	}

	if err == nil && statusCode == 0 {
		return failureUnknown
	}
	return failureOther
}
