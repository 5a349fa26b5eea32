// ABOUTME: Classified error type for remote CRM API failures
// ABOUTME: Lets the queue processor branch on retryability without string matching
package crm

import (
	"errors"
	"fmt"
)

// ErrorKind classifies an API failure for retry decisions.
type ErrorKind string

const (
	// ErrKindAuth means the access token was rejected. The client refreshes
	// once and retries at its own layer; if it still surfaces, it is
	// treated as transient by the processor.
	ErrKindAuth ErrorKind = "auth_expired"
	// ErrKindRateLimited means the remote asked us to back off.
	ErrKindRateLimited ErrorKind = "rate_limited"
	// ErrKindTransient covers network timeouts and 5xx responses.
	ErrKindTransient ErrorKind = "transient_network"
	// ErrKindValidation means the remote rejected the payload. Never retried.
	ErrKindValidation ErrorKind = "validation"
	// ErrKindNotFound means the remote object does not exist. Never retried.
	ErrKindNotFound ErrorKind = "not_found"
)

// APIError is the error returned by every Client operation.
type APIError struct {
	Kind       ErrorKind
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("crm api error (%s, http %d): %s", e.Kind, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("crm api error (%s): %s", e.Kind, e.Message)
}

// Retryable reports whether the failure should go through queue backoff.
func (e *APIError) Retryable() bool {
	switch e.Kind {
	case ErrKindRateLimited, ErrKindTransient, ErrKindAuth:
		return true
	default:
		return false
	}
}

// IsRetryable reports whether err should be retried with backoff.
// Unclassified errors (network layer, JSON decoding) count as retryable.
func IsRetryable(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Retryable()
	}
	return err != nil
}

// IsNotFound reports whether err is a remote not-found rejection.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Kind == ErrKindNotFound
}

// classifyStatus maps an HTTP response status to an error kind.
func classifyStatus(status int) ErrorKind {
	switch {
	case status == 401:
		return ErrKindAuth
	case status == 404:
		return ErrKindNotFound
	case status == 429:
		return ErrKindRateLimited
	case status >= 500:
		return ErrKindTransient
	default:
		return ErrKindValidation
	}
}
