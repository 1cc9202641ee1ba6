package source

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
)

// FailureKind classifies why a fetch produced no results.
type FailureKind string

const (
	KindTimeout   FailureKind = "timeout"
	KindRateLimit FailureKind = "rate_limit"
	KindNetwork   FailureKind = "network"
	KindStatus    FailureKind = "status"
	KindDecode    FailureKind = "decode"
)

// FetchError describes a failed query against the map-data API.
type FetchError struct {
	Kind       FailureKind
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s (status %d): %v", e.Kind, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// isThrottled reports whether the status code is the remote asking us to slow down.
func isThrottled(code int) bool {
	return code == http.StatusTooManyRequests || code == http.StatusServiceUnavailable
}

// classifyTransport maps a transport-level error to a FetchError.
func classifyTransport(err error) *FetchError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &FetchError{Kind: KindTimeout, Err: err}
	}
	return &FetchError{Kind: KindNetwork, Err: err}
}
