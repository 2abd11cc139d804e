package colibri

import (
	"errors"
	"fmt"
)

var (
	// ErrDetachedView is returned when syncing or reading a view whose
	// source table reference has been dropped.
	ErrDetachedView = errors.New("view is detached")
	// ErrNotFound is returned when a lookup matches no row.
	ErrNotFound = errors.New("not found")
)

// ErrColumnTypeMismatch indicates an operation applied to a column of the
// wrong type.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrColumnTypeMismatch struct {
	Column   string
	Expected ColumnType
	Actual   ColumnType
	cause    error
}

func (e *ErrColumnTypeMismatch) Error() string {
	return fmt.Sprintf("column %q: type mismatch: expected %s, got %s", e.Column, e.Expected, e.Actual)
}

func (e *ErrColumnTypeMismatch) Unwrap() error { return e.cause }

// ErrInvalidLinkTarget indicates a link set to a row that does not exist in
// the target table.
type ErrInvalidLinkTarget struct {
	Table string
	Row   int
}

func (e *ErrInvalidLinkTarget) Error() string {
	return fmt.Sprintf("table %q: link target row %d does not exist", e.Table, e.Row)
}
