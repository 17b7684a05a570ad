package educontent

import (
	"errors"
	"fmt"
	"net/http"
)

// Error types
var (
	// ErrInvalidParameter indicates a malformed request parameter such as a negative offset
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrValidation indicates a payload that failed field validation
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates the requested record or object does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidStatus indicates a status value outside the collection's enumeration
	ErrInvalidStatus = errors.New("invalid status")

	// ErrStore indicates a failure in the underlying document or object store
	ErrStore = errors.New("store failure")

	// ErrUnsupportedMediaType indicates a request body in a content type the endpoint does not accept
	ErrUnsupportedMediaType = errors.New("unsupported media type")

	// ErrRateLimited indicates the caller exceeded the submission rate
	ErrRateLimited = errors.New("rate limited")

	// ErrDirectAccessRequired is returned by blob stores that cannot hand out URLs and must be streamed
	ErrDirectAccessRequired = errors.New("direct access required")
)

// ValidationError reports the first field that failed validation.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("validation failed: %s", e.Reason)
	}
	return fmt.Sprintf("validation failed: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// StoreError wraps a failure from a store backend. The original cause is kept for logging.
type StoreError struct {
	Op         string
	Collection string
	ID         string
	Err        error
}

func (e *StoreError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("store operation %s failed on %s: %v", e.Op, e.Collection, e.Err)
	}
	return fmt.Sprintf("store operation %s failed on %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func (e *StoreError) Is(target error) bool {
	return target == ErrStore
}

// RecordError represents an error related to a single record operation
type RecordError struct {
	Collection string
	ID         string
	Op         string
	Err        error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record operation %s failed for %s/%s: %v", e.Op, e.Collection, e.ID, e.Err)
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// ErrorKind classifies an error for transport layers.
type ErrorKind string

const (
	KindInvalidParameter     ErrorKind = "invalid_parameter"
	KindValidation           ErrorKind = "validation"
	KindNotFound             ErrorKind = "not_found"
	KindInvalidStatus        ErrorKind = "invalid_status"
	KindUnsupportedMediaType ErrorKind = "unsupported_media_type"
	KindRateLimited          ErrorKind = "rate_limited"
	KindStore                ErrorKind = "store"
)

// KindOf maps err onto the error taxonomy. Anything unrecognised is a store failure.
func KindOf(err error) ErrorKind {
	switch {
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrInvalidStatus):
		return KindInvalidStatus
	case errors.Is(err, ErrInvalidParameter):
		return KindInvalidParameter
	case errors.Is(err, ErrNotFound):
		return KindNotFound
	case errors.Is(err, ErrUnsupportedMediaType):
		return KindUnsupportedMediaType
	case errors.Is(err, ErrRateLimited):
		return KindRateLimited
	default:
		return KindStore
	}
}

// HTTPStatus returns the response status code for the kind.
func (k ErrorKind) HTTPStatus() int {
	switch k {
	case KindInvalidParameter, KindValidation, KindInvalidStatus:
		return http.StatusBadRequest
	case KindNotFound:
		return http.StatusNotFound
	case KindUnsupportedMediaType:
		return http.StatusUnsupportedMediaType
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}
