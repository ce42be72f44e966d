// Package dns contains pure functions for custom-domain DNS planning.
// This is part of the Functional Core - all functions are pure with no I/O.
package dns

import (
	"errors"
	"regexp"
	"strings"

	"github.com/siteship/siteship/internal/core/domain"
)

// =============================================================================
// Errors
// =============================================================================

var (
	ErrInvalidHostname = errors.New("invalid hostname format")
	ErrHostnameTooLong = errors.New("hostname must be under 253 characters")
)

// =============================================================================
// Validation
// =============================================================================

var hostnameRegex = regexp.MustCompile(`^([a-zA-Z0-9]([a-zA-Z0-9\-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}$`)

// ValidateHostname validates a hostname for use as a custom domain.
func ValidateHostname(hostname string) error {
	hostname = strings.TrimSpace(strings.ToLower(hostname))
	if hostname == "" {
		return ErrInvalidHostname
	}
	if len(hostname) > 253 {
		return ErrHostnameTooLong
	}
	if !hostnameRegex.MatchString(hostname) {
		return ErrInvalidHostname
	}
	return nil
}

// Normalize lowercases and trims a hostname.
func Normalize(hostname string) string {
	return strings.TrimSpace(strings.ToLower(hostname))
}

// =============================================================================
// Classification
// =============================================================================

// IsApex reports whether a hostname is an apex domain (exactly two labels,
// e.g. "example.com"). Apex domains need CNAME flattening on the DNS
// provider side; the classification is informational for setup display and
// never changes the record name, which is always the full hostname.
func IsApex(hostname string) bool {
	return len(strings.Split(Normalize(hostname), ".")) == 2
}

// ZoneName returns the registrable zone a hostname belongs to: the last two
// labels ("www.example.com" -> "example.com").
func ZoneName(hostname string) string {
	labels := strings.Split(Normalize(hostname), ".")
	if len(labels) <= 2 {
		return Normalize(hostname)
	}
	return strings.Join(labels[len(labels)-2:], ".")
}

// =============================================================================
// Required Record
// =============================================================================

// RequiredRecord describes the CNAME a customer must create when automatic
// DNS configuration is not possible (zone not managed by this account).
type RequiredRecord struct {
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Proxied bool   `json:"proxied"`
}

// RequiredRecordFor returns the CNAME record pointing a custom domain at the
// platform's canonical subdomain. The record name is always the full
// hostname, for apex and subdomain alike.
func RequiredRecordFor(hostname, platformSubdomain string) RequiredRecord {
	return RequiredRecord{
		Type:    "CNAME",
		Name:    Normalize(hostname),
		Content: platformSubdomain,
		Proxied: true,
	}
}

// =============================================================================
// Platform Status Mapping
// =============================================================================

// Per-domain statuses reported by the hosting platform.
const (
	PlatformDomainActive  = "active"
	PlatformDomainPending = "pending"
)

// MapPlatformDomainStatus maps a platform per-domain status onto the local
// domain status. Unknown statuses (and a platform that has no record of the
// domain at all) leave the prior status unchanged - the domain may still be
// provisioning or may have silently failed, and neither warrants flipping
// local state.
func MapPlatformDomainStatus(prior domain.DomainStatus, platformStatus string) (domain.DomainStatus, bool) {
	var next domain.DomainStatus
	switch platformStatus {
	case PlatformDomainActive:
		next = domain.DomainStatusActive
	case PlatformDomainPending:
		next = domain.DomainStatusDNSPending
	default:
		return prior, false
	}
	return next, next != prior
}
