package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for the analytics core. Handlers map these to HTTP
// responses; services and storage wrap them with context via %w.
var (
	// ErrTenantNotFound means the tenant key is absent from the directory.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantDisabled means the tenant exists but is flagged inactive.
	ErrTenantDisabled = errors.New("tenant disabled")

	// ErrInvalidParameter marks a bad year/month/filter value.
	ErrInvalidParameter = errors.New("invalid parameter")
)

// DataAccessError wraps an underlying store failure. Transient failures
// (connection resets, bad pooled connections) are retried once by the scoped
// executor before surfacing.
type DataAccessError struct {
	Op        string
	Transient bool
	Err       error
}

func (e *DataAccessError) Error() string {
	return fmt.Sprintf("data access: %s: %v", e.Op, e.Err)
}

func (e *DataAccessError) Unwrap() error { return e.Err }

// NewDataAccessError wraps err with the failing operation name.
func NewDataAccessError(op string, transient bool, err error) *DataAccessError {
	return &DataAccessError{Op: op, Transient: transient, Err: err}
}

// IsTransient reports whether err is a transient data-access failure worth a
// single retry on a fresh connection.
func IsTransient(err error) bool {
	var dae *DataAccessError
	return errors.As(err, &dae) && dae.Transient
}
