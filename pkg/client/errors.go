package client

import (
	"errors"
	"fmt"
	"time"
)

// Common errors returned by the client.
var (
	// ErrRetryExhausted is returned when all attempts are spent without a terminal result.
	ErrRetryExhausted = errors.New("retry attempts exhausted")

	// ErrContextCancelled is returned when the context is cancelled while waiting.
	ErrContextCancelled = errors.New("context cancelled")

	// ErrMalformedResponse is returned when a 200 body cannot be decoded into candidates.
	ErrMalformedResponse = errors.New("malformed response body")
)

// AttemptError describes why a single attempt did not produce a terminal
// success or not-found result.
type AttemptError struct {
	StatusCode int
	ErrorClass ErrorClass
	Message    string

	// Wait is the server-dictated delay for ErrorClassRateLimit.
	Wait time.Duration

	Err error
}

// Error implements the error interface.
func (e *AttemptError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("geocoder %s error (status %d): %s: %v",
			e.ErrorClass, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("geocoder %s error (status %d): %s",
		e.ErrorClass, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *AttemptError) Unwrap() error {
	return e.Err
}

// shouldRetry determines if an error class is worth another attempt.
func shouldRetry(errorClass ErrorClass) bool {
	switch errorClass {
	case ErrorClassHTTP:
		// Server-reported errors other than 429 are usually a bad query or a
		// permanent condition.
		return false
	case ErrorClassRateLimit:
		return true
	case ErrorClassTransport:
		return true
	default:
		return false
	}
}
