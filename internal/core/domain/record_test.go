package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Record Creation
// =============================================================================

func TestNewDeploymentRecord_Defaults(t *testing.T) {
	r := NewDeploymentRecord("customer-123")

	assert.NotEmpty(t, r.ID)
	assert.Equal(t, "customer-123", r.CustomerID)
	assert.Equal(t, DefaultBranch, r.SourceBranch)
	assert.Equal(t, DeployStatusNotDeployed, r.DeploymentStatus)
	assert.Equal(t, DomainStatusNone, r.DomainStatus)
	assert.Empty(t, r.PlatformProjectID)
	require.NoError(t, r.Validate())
}

// =============================================================================
// Project Application
// =============================================================================

func TestApplyProject_Success(t *testing.T) {
	r := NewDeploymentRecord("customer-123")

	err := r.ApplyProject("proj_123", "acme-site", "https://acme-site.pages.dev")
	require.NoError(t, err)

	assert.Equal(t, "proj_123", r.PlatformProjectID)
	assert.Equal(t, "acme-site", r.PlatformProjectName)
	assert.Equal(t, "https://acme-site.pages.dev", r.ProductionURL)
	// Project existence is not a live deploy.
	assert.Equal(t, DeployStatusNotDeployed, r.DeploymentStatus)
	require.NoError(t, r.Validate())
}

func TestApplyProject_AlreadyInitialized(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	require.NoError(t, r.ApplyProject("proj_123", "acme-site", ""))

	err := r.ApplyProject("proj_456", "other-site", "")
	assert.ErrorIs(t, err, ErrAlreadyInitialized)
	assert.Equal(t, "proj_123", r.PlatformProjectID)
}

// =============================================================================
// Deployment Transitions
// =============================================================================

func TestApplyDeployment_SetsDeployingAndClearsError(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	require.NoError(t, r.ApplyProject("proj_123", "acme-site", ""))
	r.MarkDeployFailed("previous failure")

	now := time.Now().UTC()
	r.ApplyDeployment("dep_456", "https://acme-site.pages.dev", now)

	assert.Equal(t, DeployStatusDeploying, r.DeploymentStatus)
	assert.Equal(t, "dep_456", r.LastDeploymentID)
	require.NotNil(t, r.LastDeploymentAt)
	assert.Equal(t, now, *r.LastDeploymentAt)
	assert.Empty(t, r.LastDeploymentError)
	require.NoError(t, r.Validate())
}

func TestApplyDeployment_KeepsProductionURLWhenEmpty(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	require.NoError(t, r.ApplyProject("proj_123", "acme-site", "https://acme-site.pages.dev"))

	r.ApplyDeployment("dep_456", "", time.Now().UTC())

	assert.Equal(t, "https://acme-site.pages.dev", r.ProductionURL)
}

func TestMarkDeployFailed(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	require.NoError(t, r.ApplyProject("proj_123", "acme-site", ""))

	r.MarkDeployFailed("platform unavailable")

	assert.Equal(t, DeployStatusFailed, r.DeploymentStatus)
	assert.Equal(t, "platform unavailable", r.LastDeploymentError)
	require.NoError(t, r.Validate())
}

func TestSetDeploymentStatus_ClearsErrorOutsideFailed(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	require.NoError(t, r.ApplyProject("proj_123", "acme-site", ""))
	r.MarkDeployFailed("boom")

	r.SetDeploymentStatus(DeployStatusDeployed, "")

	assert.Equal(t, DeployStatusDeployed, r.DeploymentStatus)
	assert.Empty(t, r.LastDeploymentError)
	require.NoError(t, r.Validate())
}

func TestSetDeploymentStatus_RetainsErrorWhenFailed(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	require.NoError(t, r.ApplyProject("proj_123", "acme-site", ""))

	r.SetDeploymentStatus(DeployStatusFailed, "failure: build")

	assert.Equal(t, "failure: build", r.LastDeploymentError)
	require.NoError(t, r.Validate())
}

// =============================================================================
// Domain Transitions
// =============================================================================

func TestSetCustomDomain(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	require.NoError(t, r.ApplyProject("proj_123", "acme-site", ""))

	r.SetCustomDomain("www.example.com")

	assert.Equal(t, "www.example.com", r.CustomDomain)
	assert.Equal(t, DomainStatusDNSPending, r.DomainStatus)
	require.NoError(t, r.Validate())
}

// =============================================================================
// InFlight
// =============================================================================

func TestDeploymentStatus_InFlight(t *testing.T) {
	assert.True(t, DeployStatusDeploying.InFlight())
	assert.False(t, DeployStatusNotDeployed.InFlight())
	assert.False(t, DeployStatusDeployed.InFlight())
	assert.False(t, DeployStatusFailed.InFlight())
}

// =============================================================================
// Invariants
// =============================================================================

func TestValidate_DeployedWithoutProject(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	r.DeploymentStatus = DeployStatusDeployed

	assert.ErrorIs(t, r.Validate(), ErrNotInitialized)
}

func TestValidate_DomainStatusWithoutDomain(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	r.DomainStatus = DomainStatusDNSPending

	assert.Error(t, r.Validate())
}

func TestValidate_ErrorOutsideFailed(t *testing.T) {
	r := NewDeploymentRecord("customer-123")
	require.NoError(t, r.ApplyProject("proj_123", "acme-site", ""))
	r.DeploymentStatus = DeployStatusDeployed
	r.LastDeploymentError = "stale"

	assert.Error(t, r.Validate())
}
