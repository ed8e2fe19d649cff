// Package clierr maps failures to structured CLI errors with exit codes.
package clierr

import (
	"errors"
	"fmt"

	"github.com/pollutantsai/aianalysis/internal/analysis/apiclient"
)

// Code identifies a class of CLI failure.
type Code string

const (
	CodeUsage     Code = "USAGE_ERROR"
	CodeTransport Code = "API_UNREACHABLE"
	CodeStatus    Code = "API_ERROR"
	CodeDecode    Code = "BAD_RESPONSE"
	CodeInternal  Code = "INTERNAL_ERROR"
)

// Exit codes.
const (
	ExitInternal  = 1
	ExitUsage     = 2
	ExitTransport = 3
	ExitStatus    = 4
	ExitDecode    = 5
)

// Error is a CLI error with a recovery suggestion.
type Error struct {
	Code       Code
	Message    string
	Suggestion string
	ExitCode   int
	Err        error
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Usage reports incorrect command usage.
func Usage(format string, args ...any) *Error {
	return &Error{
		Code:       CodeUsage,
		Message:    fmt.Sprintf(format, args...),
		Suggestion: "Run with --help to see the expected arguments.",
		ExitCode:   ExitUsage,
	}
}

// FromError classifies err. Errors that are already *Error pass through.
func FromError(err error) *Error {
	if err == nil {
		return nil
	}

	var cliErr *Error
	if errors.As(err, &cliErr) {
		return cliErr
	}

	var transportErr *apiclient.TransportError
	if errors.As(err, &transportErr) {
		suggestion := "Check that the analysis API is running and that --api-base (or ANALYSIS_API_BASE) points at it."
		if transportErr.Timeout() {
			suggestion = "The analysis API did not answer in time. Narrow the date range or check backend load."
		}
		return &Error{
			Code:       CodeTransport,
			Message:    err.Error(),
			Suggestion: suggestion,
			ExitCode:   ExitTransport,
			Err:        err,
		}
	}

	var statusErr *apiclient.HTTPStatusError
	if errors.As(err, &statusErr) {
		suggestion := "The analysis API reported a server error. Check the backend logs."
		if statusErr.StatusCode < 500 {
			suggestion = "The analysis API rejected the request. Check the ids and date range."
		}
		return &Error{
			Code:       CodeStatus,
			Message:    err.Error(),
			Suggestion: suggestion,
			ExitCode:   ExitStatus,
			Err:        err,
		}
	}

	var decodeErr *apiclient.DecodeError
	if errors.As(err, &decodeErr) {
		return &Error{
			Code:       CodeDecode,
			Message:    err.Error(),
			Suggestion: "The API base URL may point at something other than the analysis API.",
			ExitCode:   ExitDecode,
			Err:        err,
		}
	}

	return &Error{
		Code:     CodeInternal,
		Message:  err.Error(),
		ExitCode: ExitInternal,
		Err:      err,
	}
}
