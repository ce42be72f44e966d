package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/siteship/siteship/internal/core/domain"
	"github.com/siteship/siteship/internal/shell/platform"
	"github.com/siteship/siteship/internal/shell/store"
)

// =============================================================================
// Mock Platform Client
// =============================================================================

// mockPlatform implements platform.Client with overridable functions and
// call counters. Unset functions return happy-path stubs.
type mockPlatform struct {
	createProjectFn   func(ctx context.Context, name, repoURL, branch string) (*platform.Project, error)
	deleteProjectFn   func(ctx context.Context, name string) error
	triggerDeployFn   func(ctx context.Context, name, branch string) (*platform.Deployment, error)
	getDeployStatusFn func(ctx context.Context, name, deployID string) (*platform.Deployment, error)
	addDomainFn       func(ctx context.Context, projectName, domain string) (*platform.DomainRecord, error)
	listDomainsFn     func(ctx context.Context, projectName string) ([]platform.DomainRecord, error)
	listDNSFn         func(ctx context.Context, zone, name, recordType string) ([]platform.DNSRecord, error)
	createDNSFn       func(ctx context.Context, zone string, record platform.DNSRecord) (*platform.DNSRecord, error)

	createProjectCalls int
	deleteProjectCalls int
	triggerCalls       int
	getStatusCalls     int
	addDomainCalls     int
	listDomainsCalls   int
	listDNSCalls       int
	createDNSCalls     int
}

func (m *mockPlatform) CreateProject(ctx context.Context, name, repoURL, branch string) (*platform.Project, error) {
	m.createProjectCalls++
	if m.createProjectFn != nil {
		return m.createProjectFn(ctx, name, repoURL, branch)
	}
	return &platform.Project{ID: "proj_123", Name: name, Subdomain: name + ".pages.dev"}, nil
}

func (m *mockPlatform) DeleteProject(ctx context.Context, name string) error {
	m.deleteProjectCalls++
	if m.deleteProjectFn != nil {
		return m.deleteProjectFn(ctx, name)
	}
	return nil
}

func (m *mockPlatform) TriggerDeploy(ctx context.Context, name, branch string) (*platform.Deployment, error) {
	m.triggerCalls++
	if m.triggerDeployFn != nil {
		return m.triggerDeployFn(ctx, name, branch)
	}
	return &platform.Deployment{
		ID:          "dep_456",
		URL:         "https://" + name + ".pages.dev",
		StageStatus: "active",
		StageName:   "queued",
		Environment: "production",
		CreatedAt:   time.Now().UTC(),
	}, nil
}

func (m *mockPlatform) GetDeployStatus(ctx context.Context, name, deployID string) (*platform.Deployment, error) {
	m.getStatusCalls++
	if m.getDeployStatusFn != nil {
		return m.getDeployStatusFn(ctx, name, deployID)
	}
	return &platform.Deployment{ID: deployID, StageStatus: "active", StageName: "build"}, nil
}

func (m *mockPlatform) AddCustomDomain(ctx context.Context, projectName, domain string) (*platform.DomainRecord, error) {
	m.addDomainCalls++
	if m.addDomainFn != nil {
		return m.addDomainFn(ctx, projectName, domain)
	}
	return &platform.DomainRecord{ID: "dom_1", Name: domain, Status: "pending"}, nil
}

func (m *mockPlatform) ListCustomDomains(ctx context.Context, projectName string) ([]platform.DomainRecord, error) {
	m.listDomainsCalls++
	if m.listDomainsFn != nil {
		return m.listDomainsFn(ctx, projectName)
	}
	return []platform.DomainRecord{}, nil
}

func (m *mockPlatform) ListDNSRecords(ctx context.Context, zone, name, recordType string) ([]platform.DNSRecord, error) {
	m.listDNSCalls++
	if m.listDNSFn != nil {
		return m.listDNSFn(ctx, zone, name, recordType)
	}
	return []platform.DNSRecord{}, nil
}

func (m *mockPlatform) CreateDNSRecord(ctx context.Context, zone string, record platform.DNSRecord) (*platform.DNSRecord, error) {
	m.createDNSCalls++
	if m.createDNSFn != nil {
		return m.createDNSFn(ctx, zone, record)
	}
	created := record
	created.ID = "rec_1"
	return &created, nil
}

// =============================================================================
// Test Helpers
// =============================================================================

const testSuffix = "pages.dev"

func setupTestStore(t *testing.T) store.Store {
	t.Helper()
	s, err := store.NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func setupDeployments(t *testing.T, p platform.Client) (*DeploymentService, store.Store) {
	t.Helper()
	s := setupTestStore(t)
	return NewDeploymentService(s, p, testSuffix, nil), s
}

func setupDomains(t *testing.T, p platform.Client) (*DomainService, store.Store) {
	t.Helper()
	s := setupTestStore(t)
	return NewDomainService(s, p, testSuffix, nil), s
}

// createInitializedRecord seeds a record that has a platform project.
func createInitializedRecord(t *testing.T, s store.Store, customerID string) *domain.DeploymentRecord {
	t.Helper()
	record := domain.NewDeploymentRecord(customerID)
	require.NoError(t, record.ApplyProject("proj_123", "acme-site", "https://acme-site.pages.dev"))
	require.NoError(t, s.CreateDeploymentRecord(context.Background(), record))
	return record
}

// requireInvariants asserts the persisted record still satisfies the
// record invariants after an orchestrator call.
func requireInvariants(t *testing.T, s store.Store, customerID string) {
	t.Helper()
	record, err := s.GetDeploymentRecord(context.Background(), customerID)
	require.NoError(t, err)
	require.NoError(t, record.Validate())
}
