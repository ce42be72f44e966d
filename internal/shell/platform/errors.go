package platform

import (
	"errors"
	"fmt"
)

// =============================================================================
// Error Types
// =============================================================================

var (
	// ErrDomainAlreadyExists is returned when attaching a custom domain
	// that is already attached. Callers treat it as success-path
	// convergence, never as a failure.
	ErrDomainAlreadyExists = errors.New("custom domain is already attached to this project")

	// ErrZoneNotFound is returned when a DNS operation targets a zone the
	// platform account does not manage.
	ErrZoneNotFound = errors.New("DNS zone is not managed by this account")
)

// Error wraps a failed platform call with the operation and the platform's
// own message. The message is user-displayable; no transport detail beyond
// the status code crosses this boundary.
type Error struct {
	Op         string
	StatusCode int
	Code       int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("hosting platform %s: %s", e.Op, e.Message)
	}
	return fmt.Sprintf("hosting platform %s failed", e.Op)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsAlreadyExists reports whether err is the already-attached domain case.
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrDomainAlreadyExists)
}
