package apiclient

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/pollutantsai/aianalysis/internal/analysis"
)

// maxErrorBody caps how much of a non-2xx response body is kept on HTTPStatusError.
const maxErrorBody = 4 << 10

// TransportError reports a request that produced no usable response:
// connection refused, DNS failure, timeout or cancellation.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: request %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Is matches analysis.ErrTransport.
func (e *TransportError) Is(target error) bool {
	return target == analysis.ErrTransport
}

// Timeout reports whether the request failed because its deadline passed.
func (e *TransportError) Timeout() bool {
	if errors.Is(e.Err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(e.Err, &netErr) && netErr.Timeout()
}

// HTTPStatusError reports a non-2xx response.
type HTTPStatusError struct {
	Op         string
	URL        string
	StatusCode int

	// Body holds the start of the response body, if any.
	Body string
}

func (e *HTTPStatusError) Error() string {
	msg := fmt.Sprintf("%s: unexpected status %d (%s) from %s",
		e.Op, e.StatusCode, http.StatusText(e.StatusCode), e.URL)
	if e.Body != "" {
		msg += ": " + e.Body
	}
	return msg
}

// Is matches analysis.ErrUnexpectedStatus.
func (e *HTTPStatusError) Is(target error) bool {
	return target == analysis.ErrUnexpectedStatus
}

// DecodeError reports a response body that is not valid JSON or does not
// match the expected shape.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: decode response: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// Is matches analysis.ErrDecode.
func (e *DecodeError) Is(target error) bool {
	return target == analysis.ErrDecode
}
