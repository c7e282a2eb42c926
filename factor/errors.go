/*
errors.go - Centralized error types for the factor engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Adapters and the HTTP layer classify failures with errors.Is against
  the sentinels below.

ERROR CATEGORIES:
  1. Caller errors  - invalid mode, malformed update, decreasing keys
  2. Lookup errors  - missing table, missing column
  3. Store errors   - backend/connection failures, never retried

PARTIAL FAILURE:
  The schema-change path writes twice (replace, then append). If the second
  write fails the first is not undone; the returned error says so.

SEE ALSO:
  - engine.go: Produces these errors
  - api/handlers.go: Maps them to HTTP status codes
*/
package factor

import (
	"errors"
	"fmt"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidMode is returned when the save mode is neither APPEND nor REPLACE.
	ErrInvalidMode = errors.New("invalid save mode")

	// ErrNoSuchTable is returned when APPEND or retrieval targets a table that
	// does not exist. REPLACE creates the table instead.
	ErrNoSuchTable = errors.New("no such table")

	// ErrPreconditionViolation is returned when an update's first key is after
	// its last key. The update is rejected, never repaired.
	ErrPreconditionViolation = errors.New("precondition violation")

	// ErrUnknownColumn is returned by adapters when a filtered read names a
	// column the table does not have.
	ErrUnknownColumn = errors.New("unknown column")

	// ErrInvalidTable is returned when a table's columns are misaligned with
	// its index or a column name is unusable.
	ErrInvalidTable = errors.New("invalid table")

	// ErrInvalidTableName is returned for an empty table name.
	ErrInvalidTableName = errors.New("invalid table name")

	// ErrStore wraps backend failures.
	ErrStore = errors.New("store error")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// NoSuchTableError names the missing table.
type NoSuchTableError struct {
	Table string
}

func (e *NoSuchTableError) Error() string {
	return fmt.Sprintf("no such table: %s", e.Table)
}

func (e *NoSuchTableError) Unwrap() error { return ErrNoSuchTable }

// PreconditionError reports the offending key range of an update.
type PreconditionError struct {
	First Date
	Last  Date
}

func (e *PreconditionError) Error() string {
	return fmt.Sprintf("precondition violation: index is not non-decreasing (first %s > last %s)", e.First, e.Last)
}

func (e *PreconditionError) Unwrap() error { return ErrPreconditionViolation }

// UnknownColumnError names the column a filtered read could not find.
type UnknownColumnError struct {
	Table  string
	Column string
}

func (e *UnknownColumnError) Error() string {
	return fmt.Sprintf("unknown column %q in table %s", e.Column, e.Table)
}

func (e *UnknownColumnError) Unwrap() error { return ErrUnknownColumn }

// StoreError wraps a backend failure with the adapter operation and table.
// It matches both ErrStore and the underlying cause.
type StoreError struct {
	Op    string
	Table string
	Err   error
}

func (e *StoreError) Error() string {
	if e.Table == "" {
		return fmt.Sprintf("store %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("store %s %s: %v", e.Op, e.Table, e.Err)
}

func (e *StoreError) Unwrap() []error { return []error{ErrStore, e.Err} }

// NewStoreError returns nil for a nil err.
func NewStoreError(op, table string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Table: table, Err: err}
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsNotFound returns true if the error indicates a missing table or column.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNoSuchTable) || errors.Is(err, ErrUnknownColumn)
}

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidMode) ||
		errors.Is(err, ErrPreconditionViolation) ||
		errors.Is(err, ErrInvalidTable) ||
		errors.Is(err, ErrInvalidTableName)
}
