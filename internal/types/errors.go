package types

import (
	"errors"
	"fmt"
)

// Sentinel errors for common failure modes.
var (
	ErrElementNotFound = errors.New("element not found")
	ErrUnexpectedShape = errors.New("element has unexpected shape")
	ErrEmptyResponse   = errors.New("empty response body")
	ErrInvalidURL      = errors.New("invalid URL")
)

// FetchError wraps errors that occur while retrieving a page.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("fetch error for %s (status %d): %v", e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("fetch error for %s: %v", e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// StructuralError reports that an expected markup location was missing or
// did not have the expected shape. It usually means the host changed its HTML.
type StructuralError struct {
	URL      string
	Query    string
	Selector string
	Err      error
}

func (e *StructuralError) Error() string {
	return fmt.Sprintf("structural extraction error for %s (query=%s selector=%q): %v", e.URL, e.Query, e.Selector, e.Err)
}

func (e *StructuralError) Unwrap() error { return e.Err }

// StageError records which pipeline stage failed.
type StageError struct {
	Stage string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %q failed: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// PipelineError wraps an error raised by a record middleware.
type PipelineError struct {
	Middleware string
	Repository string
	Err        error
}

func (e *PipelineError) Error() string {
	return fmt.Sprintf("pipeline error in %s for %s: %v", e.Middleware, e.Repository, e.Err)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// StorageError wraps errors that occur during storage/export.
type StorageError struct {
	Backend string
	Err     error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error (%s): %v", e.Backend, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// IsFetchError reports whether err wraps a *FetchError.
func IsFetchError(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}

// IsStructuralError reports whether err wraps a *StructuralError.
func IsStructuralError(err error) bool {
	var se *StructuralError
	return errors.As(err, &se)
}
