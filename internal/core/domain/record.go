package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Record Errors
// =============================================================================

var (
	ErrAlreadyInitialized = errors.New("hosting project already initialized for this customer")
	ErrNotInitialized     = errors.New("hosting project has not been initialized")
)

// =============================================================================
// Deployment Status
// =============================================================================

// DeploymentStatus is the locally tracked lifecycle state of a customer site.
type DeploymentStatus string

const (
	DeployStatusNotDeployed DeploymentStatus = "not_deployed"
	DeployStatusDeploying   DeploymentStatus = "deploying"
	DeployStatusDeployed    DeploymentStatus = "deployed"
	DeployStatusFailed      DeploymentStatus = "failed"
)

// InFlight reports whether a deployment is awaiting resolution via
// reconciliation. Callers derive their polling behaviour from this alone;
// there is no separate "is polling" flag.
func (s DeploymentStatus) InFlight() bool {
	return s == DeployStatusDeploying
}

// =============================================================================
// Domain Status
// =============================================================================

// DomainStatus is the locally tracked state of a customer's custom domain.
type DomainStatus string

const (
	DomainStatusNone          DomainStatus = "none"
	DomainStatusDNSPending    DomainStatus = "dns_pending"
	DomainStatusDNSConfigured DomainStatus = "dns_configured"
	DomainStatusActive        DomainStatus = "active"
	DomainStatusError         DomainStatus = "error"
)

// =============================================================================
// Deployment Record
// =============================================================================

// DeploymentRecord is the per-customer source of truth for hosting state.
// At most one record exists per customer; it is created lazily on the first
// successful initialize and holds the last-known view of the remote platform.
//
// Invariants:
//   - DeploymentStatus != not_deployed implies PlatformProjectID is set.
//   - DomainStatus != none implies CustomDomain is set.
//   - LastDeploymentError is non-empty only while DeploymentStatus == failed.
type DeploymentRecord struct {
	ID                  string           `json:"id"`
	CustomerID          string           `json:"customer_id"`
	PlatformProjectID   string           `json:"platform_project_id,omitempty"`
	PlatformProjectName string           `json:"platform_project_name,omitempty"`
	ProductionURL       string           `json:"production_url,omitempty"`
	SourceRepoURL       string           `json:"source_repo_url,omitempty"`
	SourceBranch        string           `json:"source_branch"`
	CustomDomain        string           `json:"custom_domain,omitempty"`
	DeploymentStatus    DeploymentStatus `json:"deployment_status"`
	DomainStatus        DomainStatus     `json:"domain_status"`
	LastDeploymentID    string           `json:"last_deployment_id,omitempty"`
	LastDeploymentAt    *time.Time       `json:"last_deployment_at,omitempty"`
	LastDeploymentError string           `json:"last_deployment_error,omitempty"`
	CreatedAt           time.Time        `json:"created_at"`
	UpdatedAt           time.Time        `json:"updated_at"`
}

// NewDeploymentRecord creates a fresh record for a customer. Platform
// identifiers are applied separately, atomically with the first persist.
func NewDeploymentRecord(customerID string) *DeploymentRecord {
	now := time.Now().UTC()
	return &DeploymentRecord{
		ID:               uuid.New().String(),
		CustomerID:       customerID,
		SourceBranch:     DefaultBranch,
		DeploymentStatus: DeployStatusNotDeployed,
		DomainStatus:     DomainStatusNone,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}

// DefaultBranch is the branch deployed when none is specified.
const DefaultBranch = "main"

// ApplyProject records the platform project created for this customer.
// Project existence is not a live deploy, so the deployment status stays
// not_deployed until a trigger.
func (r *DeploymentRecord) ApplyProject(projectID, projectName, productionURL string) error {
	if r.PlatformProjectID != "" {
		return ErrAlreadyInitialized
	}
	r.PlatformProjectID = projectID
	r.PlatformProjectName = projectName
	r.ProductionURL = productionURL
	r.DeploymentStatus = DeployStatusNotDeployed
	r.DomainStatus = DomainStatusNone
	r.UpdatedAt = time.Now().UTC()
	return nil
}

// ApplyDeployment records a successfully triggered remote deployment.
func (r *DeploymentRecord) ApplyDeployment(deploymentID, productionURL string, at time.Time) {
	r.LastDeploymentID = deploymentID
	r.LastDeploymentAt = &at
	if productionURL != "" {
		r.ProductionURL = productionURL
	}
	r.DeploymentStatus = DeployStatusDeploying
	r.LastDeploymentError = ""
	r.UpdatedAt = time.Now().UTC()
}

// MarkDeployFailed records a failed deployment with a user-displayable message.
func (r *DeploymentRecord) MarkDeployFailed(message string) {
	r.DeploymentStatus = DeployStatusFailed
	r.LastDeploymentError = message
	r.UpdatedAt = time.Now().UTC()
}

// SetDeploymentStatus updates the deployment status, maintaining the
// last-error invariant: the error message survives only in the failed state.
func (r *DeploymentRecord) SetDeploymentStatus(status DeploymentStatus, failureMessage string) {
	r.DeploymentStatus = status
	if status == DeployStatusFailed {
		r.LastDeploymentError = failureMessage
	} else {
		r.LastDeploymentError = ""
	}
	r.UpdatedAt = time.Now().UTC()
}

// SetCustomDomain attaches a custom domain in the dns_pending state.
func (r *DeploymentRecord) SetCustomDomain(hostname string) {
	r.CustomDomain = hostname
	r.DomainStatus = DomainStatusDNSPending
	r.UpdatedAt = time.Now().UTC()
}

// SetDomainStatus updates the custom-domain status.
func (r *DeploymentRecord) SetDomainStatus(status DomainStatus) {
	r.DomainStatus = status
	r.UpdatedAt = time.Now().UTC()
}

// Validate checks the record invariants. The store and orchestrators call
// this before persisting; a violation indicates a programming error.
func (r *DeploymentRecord) Validate() error {
	if r.DeploymentStatus != DeployStatusNotDeployed && r.PlatformProjectID == "" {
		return ErrNotInitialized
	}
	if r.DomainStatus != DomainStatusNone && r.CustomDomain == "" {
		return errors.New("domain status set without a custom domain")
	}
	if r.LastDeploymentError != "" && r.DeploymentStatus != DeployStatusFailed {
		return errors.New("deployment error retained outside the failed state")
	}
	return nil
}
