// Package store provides persistence for deployment records.
package store

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrNotFound is returned when no record exists for a customer.
	ErrNotFound = errors.New("deployment record not found")

	// ErrDuplicateCustomer is returned when creating a second record for
	// a customer. At most one record exists per customer.
	ErrDuplicateCustomer = errors.New("deployment record already exists for this customer")

	// ErrDeployInFlight is returned by MarkDeploying when the record is
	// already in the deploying state.
	ErrDeployInFlight = errors.New("a deployment is already in flight for this customer")

	// ErrConnectionFailed is returned when the database connection fails.
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrMigrationFailed is returned when database migration fails.
	ErrMigrationFailed = errors.New("database migration failed")
)

// StoreError wraps errors with additional context.
type StoreError struct {
	Op         string // Operation that failed (e.g., "CreateDeploymentRecord")
	CustomerID string
	Message    string
	Err        error
}

func (e *StoreError) Error() string {
	if e.CustomerID != "" {
		return fmt.Sprintf("%s customer %s: %s", e.Op, e.CustomerID, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Message)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// NewStoreError creates a new StoreError.
func NewStoreError(op, customerID, message string, err error) *StoreError {
	return &StoreError{
		Op:         op,
		CustomerID: customerID,
		Message:    message,
		Err:        err,
	}
}
