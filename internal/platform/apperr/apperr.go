// Package apperr defines the error taxonomy shared by the patient-record
// services. Every public service operation fails with exactly one of these
// kinds, carrying a message suitable for direct display.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrValidation means caller-supplied data failed a precondition.
	ErrValidation = errors.New("validation error")
	// ErrNotFound means an identity did not resolve to a record.
	ErrNotFound = errors.New("not found")
	// ErrStoreUnavailable means a document-store or blob-store call failed
	// for transport or auth reasons.
	ErrStoreUnavailable = errors.New("store unavailable")
	// ErrUpload means one or more file uploads in a batch failed.
	ErrUpload = errors.New("upload failed")
)

func Validation(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func NotFound(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

func StoreUnavailable(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, cause)
}

func Upload(op string, cause error) error {
	return fmt.Errorf("%w: %s: %v", ErrUpload, op, cause)
}

// HTTPStatus maps an error to the status code handlers should return.
// Unrecognized errors map to 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	case errors.Is(err, ErrUpload):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
