// Package platform implements the hosting platform client.
// This is part of the Imperative Shell - handles I/O with the remote
// managed hosting API (projects, deployments, custom domains, DNS).
package platform

import (
	"context"
	"time"
)

// =============================================================================
// Result Types
// =============================================================================

// Result types are defined per operation at this boundary; raw platform
// shapes never propagate past it.

// Project is a hosting project on the remote platform.
type Project struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Subdomain string `json:"subdomain"`
}

// Deployment is one build-and-publish attempt on the remote platform.
type Deployment struct {
	ID          string    `json:"id"`
	URL         string    `json:"url,omitempty"`
	StageStatus string    `json:"stage_status"`
	StageName   string    `json:"stage_name,omitempty"`
	Environment string    `json:"environment"`
	CreatedAt   time.Time `json:"created_at"`
}

// DomainRecord is a platform-side attachment of a hostname to a project,
// independent of DNS.
type DomainRecord struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// DNSRecord is a record in a DNS zone managed by the platform account.
type DNSRecord struct {
	ID      string `json:"id,omitempty"`
	Type    string `json:"type"`
	Name    string `json:"name"`
	Content string `json:"content"`
	Proxied bool   `json:"proxied"`
	TTL     int    `json:"ttl,omitempty"`
}

// =============================================================================
// Client Interface
// =============================================================================

// Client defines the operations the orchestrators need from the hosting
// platform. Any call may fail with a *Error; callers distinguish only
// ErrDomainAlreadyExists from everything else.
type Client interface {
	// CreateProject creates a hosting project. repoURL may be empty for
	// direct-upload projects.
	CreateProject(ctx context.Context, name, repoURL, branch string) (*Project, error)

	// DeleteProject removes a hosting project and its deployments.
	DeleteProject(ctx context.Context, name string) error

	// TriggerDeploy starts a new deployment of the given branch.
	TriggerDeploy(ctx context.Context, name, branch string) (*Deployment, error)

	// GetDeployStatus fetches the current state of a deployment.
	GetDeployStatus(ctx context.Context, name, deployID string) (*Deployment, error)

	// AddCustomDomain attaches a hostname to a project. Returns an error
	// wrapping ErrDomainAlreadyExists if the attachment already exists.
	AddCustomDomain(ctx context.Context, projectName, domain string) (*DomainRecord, error)

	// ListCustomDomains lists hostnames attached to a project.
	ListCustomDomains(ctx context.Context, projectName string) ([]DomainRecord, error)

	// ListDNSRecords lists records in the zone for the given record name,
	// optionally filtered by type.
	ListDNSRecords(ctx context.Context, zone, name, recordType string) ([]DNSRecord, error)

	// CreateDNSRecord creates a record in the zone. Fails if the zone is
	// not managed by this platform account.
	CreateDNSRecord(ctx context.Context, zone string, record DNSRecord) (*DNSRecord, error)
}
