package domain

import (
	"errors"
	"fmt"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown annotation or file type.
	ErrUnsupportedType = errors.New("unsupported type")

	// Annotation Errors.

	// ErrOffsetResolution indicates a character offset does not map to any token.
	ErrOffsetResolution = errors.New("offset does not resolve to a token")

	// ErrInvalidSpan indicates a degenerate span or one crossing a field or context boundary.
	ErrInvalidSpan = errors.New("invalid span")

	// ErrInvalidEndpoint indicates a relation endpoint that is missing or not a span.
	ErrInvalidEndpoint = errors.New("invalid relation endpoint")

	// ErrDuplicateAssignment indicates two annotations of one variable cover the same token.
	ErrDuplicateAssignment = errors.New("duplicate assignment")

	// Session Errors.

	// ErrNoActiveUnit indicates no unit has been opened for coding.
	ErrNoActiveUnit = errors.New("no active unit")

	// ErrStaleUnit indicates a request was made against a unit that is no longer active.
	ErrStaleUnit = errors.New("stale unit")
)

// RecordError describes a wire record that was dropped during import.
type RecordError struct {
	// Index is the record's position in the imported array.
	Index int

	// Record is the dropped record.
	Record WireAnnotation

	// Err is the reason, wrapping one of the domain errors.
	Err error
}

// Error implements error.
func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (%s=%s): %v", e.Index, e.Record.Variable, e.Record.Value, e.Err)
}

// Unwrap returns the underlying reason.
func (e *RecordError) Unwrap() error {
	return e.Err
}

// ImportReport summarises what happened to each imported record.
type ImportReport struct {
	// Imported is the number of annotations created.
	Imported int

	// Duplicates is the number of records identical to an annotation
	// that was already present.
	Duplicates int

	// Dropped lists the records that could not be placed.
	Dropped []RecordError
}

// Err joins the reasons of all dropped records, or returns nil.
func (r *ImportReport) Err() error {
	if r == nil || len(r.Dropped) == 0 {
		return nil
	}
	errs := make([]error, len(r.Dropped))
	for i := range r.Dropped {
		errs[i] = &r.Dropped[i]
	}
	return errors.Join(errs...)
}
