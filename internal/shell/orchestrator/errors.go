// Package orchestrator keeps per-customer hosting state in sync with the
// remote hosting platform. This is part of the Imperative Shell - it owns
// the multi-step remote-call-then-persist sequences and their repair via
// reconciliation.
package orchestrator

import (
	"errors"

	"github.com/siteship/siteship/internal/core/dns"
	"github.com/siteship/siteship/internal/core/domain"
	"github.com/siteship/siteship/internal/shell/platform"
	"github.com/siteship/siteship/internal/shell/store"
)

// =============================================================================
// Error Classification
// =============================================================================

// The orchestrators surface five kinds of failure. Validation, conflict and
// precondition errors are rejected before any remote call; platform errors
// come from the hosting API; anything else is a local persistence failure.
// The helpers below classify for the HTTP boundary.

// IsValidation reports whether err is a malformed-input rejection.
func IsValidation(err error) bool {
	return errors.Is(err, domain.ErrInvalidProjectName) ||
		errors.Is(err, domain.ErrProjectNameTooLong) ||
		errors.Is(err, dns.ErrInvalidHostname) ||
		errors.Is(err, dns.ErrHostnameTooLong)
}

// IsNotFound reports whether err means no record exists for the customer.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}

// IsConflict reports whether err is a duplicate initialize or a concurrent
// trigger rejection.
func IsConflict(err error) bool {
	return errors.Is(err, domain.ErrAlreadyInitialized) ||
		errors.Is(err, store.ErrDeployInFlight) ||
		errors.Is(err, store.ErrDuplicateCustomer)
}

// IsPreconditionFailed reports whether err means the operation was attempted
// before the hosting project was initialized.
func IsPreconditionFailed(err error) bool {
	return errors.Is(err, domain.ErrNotInitialized)
}

// IsPlatform reports whether err originated from a hosting platform call.
func IsPlatform(err error) bool {
	var pErr *platform.Error
	return errors.As(err, &pErr)
}
