// Package apperr defines the error kinds shared by the scheduler, the
// storage layer and the HTTP API. The HTTP layer maps each kind to a status
// code with errors.Is / errors.As.
package apperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	// ErrNotFound is returned for operations on a template id that does not exist.
	ErrNotFound = errors.New("recurring transaction not found")

	// ErrInactiveTemplate is returned when processing a template that is
	// inactive or has used up its occurrences.
	ErrInactiveTemplate = errors.New("recurring transaction is inactive")

	// ErrInvalidFrequency is a data-integrity defect: a frequency outside the
	// known set reached date computation.
	ErrInvalidFrequency = errors.New("invalid frequency")

	// ErrUnknownModule is returned when no transaction sink serves a module.
	ErrUnknownModule = errors.New("unknown transaction module")

	// ErrCycleChanged is returned when a template was advanced by another
	// caller after a batch saw it due.
	ErrCycleChanged = errors.New("recurring transaction was already advanced past this cycle")

	ErrAIUnavailable = errors.New("natural-language drafting is not configured")
)

// ValidationError carries field-level problems with a request.
type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Add(field, msg string) {
	if e.Fields == nil {
		e.Fields = make(map[string]string)
	}
	if _, exists := e.Fields[field]; !exists {
		e.Fields[field] = msg
	}
}

func (e *ValidationError) Error() string {
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + ": " + e.Fields[k]
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// OrNil returns nil when no field problem was recorded.
func (e *ValidationError) OrNil() error {
	if len(e.Fields) == 0 {
		return nil
	}
	return e
}

func Invalid(field, msg string) error {
	v := &ValidationError{}
	v.Add(field, msg)
	return v
}

// StorageError wraps a persistence failure.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Storage wraps err as a StorageError. nil stays nil, and errors that
// already carry a kind are returned as they are.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.Is(err, ErrNotFound) || errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
