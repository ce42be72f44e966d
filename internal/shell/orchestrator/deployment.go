package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	coredeploy "github.com/siteship/siteship/internal/core/deploy"
	"github.com/siteship/siteship/internal/core/domain"
	"github.com/siteship/siteship/internal/shell/platform"
	"github.com/siteship/siteship/internal/shell/store"
)

// =============================================================================
// Deployment Service
// =============================================================================

// DeploymentService orchestrates the deployment lifecycle of a customer
// site: initialize the hosting project, trigger deploys, and reconcile
// in-flight deploys against the platform's authoritative view.
type DeploymentService struct {
	store          store.Store
	platform       platform.Client
	platformSuffix string
	logger         *slog.Logger
}

// NewDeploymentService creates a new deployment orchestrator.
func NewDeploymentService(s store.Store, p platform.Client, platformSuffix string, logger *slog.Logger) *DeploymentService {
	if logger == nil {
		logger = slog.Default()
	}

	return &DeploymentService{
		store:          s,
		platform:       p,
		platformSuffix: platformSuffix,
		logger:         logger.With("component", "deployment_orchestrator"),
	}
}

// =============================================================================
// Initialize
// =============================================================================

// InitializeInput holds the parameters for creating a hosting project.
// ProjectName wins when both it and SiteName are given; a bare SiteName is
// slugified into the project name.
type InitializeInput struct {
	ProjectName string `json:"project_name,omitempty"`
	SiteName    string `json:"site_name,omitempty"`
	RepoURL     string `json:"repo_url,omitempty"`
	Branch      string `json:"branch,omitempty"`
}

// Initialize creates the hosting project for a customer and persists the
// platform identifiers. On platform failure the local record is left
// unchanged, so initialize is safely retryable; a successful prior
// initialize is rejected as a conflict.
func (s *DeploymentService) Initialize(ctx context.Context, customerID string, input InitializeInput) (*domain.DeploymentRecord, error) {
	projectName := strings.TrimSpace(input.ProjectName)
	if projectName == "" {
		projectName = domain.DeriveProjectName(input.SiteName)
	}
	if err := domain.ValidateProjectName(projectName); err != nil {
		return nil, err
	}

	branch := input.Branch
	if branch == "" {
		branch = domain.DefaultBranch
	}

	existing, err := s.store.GetDeploymentRecord(ctx, customerID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}
	if existing != nil && existing.PlatformProjectID != "" {
		return nil, fmt.Errorf("customer %s: %w", customerID, domain.ErrAlreadyInitialized)
	}

	project, err := s.platform.CreateProject(ctx, projectName, input.RepoURL, branch)
	if err != nil {
		return nil, err
	}

	productionURL := domain.ProductionURL(projectName, s.platformSuffix)
	if project.Subdomain != "" {
		productionURL = "https://" + project.Subdomain
	}

	record := existing
	if record == nil {
		record = domain.NewDeploymentRecord(customerID)
	}
	record.SourceRepoURL = input.RepoURL
	record.SourceBranch = branch
	if err := record.ApplyProject(project.ID, project.Name, productionURL); err != nil {
		return nil, err
	}

	// Platform identifiers are persisted atomically with record creation.
	if existing == nil {
		err = s.store.CreateDeploymentRecord(ctx, record)
	} else {
		err = s.store.UpdateDeploymentRecord(ctx, record)
	}
	if err != nil {
		// The remote project now exists without a local record. The next
		// initialize retry converges via the platform's name uniqueness.
		s.logger.Error("project created but record persist failed",
			"customer", customerID, "project", project.Name, "error", err)
		return nil, err
	}

	s.logger.Info("hosting project initialized",
		"customer", customerID, "project", project.Name, "url", productionURL)

	return record, nil
}

// =============================================================================
// Trigger
// =============================================================================

// Trigger starts a new deployment. At most one deployment is in flight per
// customer; the deploying state is taken optimistically before the remote
// call so a crash leaves a recoverable in-progress record.
func (s *DeploymentService) Trigger(ctx context.Context, customerID string) (*domain.DeploymentRecord, error) {
	record, err := s.store.GetDeploymentRecord(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if record.PlatformProjectID == "" {
		return nil, fmt.Errorf("customer %s: %w", customerID, domain.ErrNotInitialized)
	}

	record, err = s.store.MarkDeploying(ctx, customerID)
	if err != nil {
		return nil, err
	}

	deployment, err := s.platform.TriggerDeploy(ctx, record.PlatformProjectName, record.SourceBranch)
	if err != nil {
		record.MarkDeployFailed(err.Error())
		if updateErr := s.store.UpdateDeploymentRecord(ctx, record); updateErr != nil {
			s.logger.Error("failed to persist deploy failure",
				"customer", customerID, "error", updateErr)
		}
		return nil, err
	}

	record.ApplyDeployment(deployment.ID, deployment.URL, time.Now().UTC())
	if err := s.store.UpdateDeploymentRecord(ctx, record); err != nil {
		// The remote deploy is running without a local deployment ID; the
		// inconsistency window closes on the next reconcile.
		s.logger.Error("deploy triggered but record persist failed",
			"customer", customerID, "deployment", deployment.ID, "error", err)
		return nil, err
	}

	s.logger.Info("deployment triggered",
		"customer", customerID, "project", record.PlatformProjectName, "deployment", deployment.ID)

	return record, nil
}

// =============================================================================
// Reconcile
// =============================================================================

// ReconcileResult carries the outcome of one reconciliation pass.
type ReconcileResult struct {
	Record     *domain.DeploymentRecord
	Deployment *platform.Deployment // nil when there is nothing to reconcile
	Changed    bool
}

// Reconcile queries the platform for the last deployment and maps its stage
// status onto the local deployment status. It is a no-op when no deployment
// has been triggered. A failed platform query leaves the local status
// untouched and is returned alongside the record, so callers can tell
// "still deploying" from "status unknown".
func (s *DeploymentService) Reconcile(ctx context.Context, customerID string) (*ReconcileResult, error) {
	record, err := s.store.GetDeploymentRecord(ctx, customerID)
	if err != nil {
		return nil, err
	}
	if record.LastDeploymentID == "" {
		return &ReconcileResult{Record: record}, nil
	}

	deployment, err := s.platform.GetDeployStatus(ctx, record.PlatformProjectName, record.LastDeploymentID)
	if err != nil {
		return &ReconcileResult{Record: record}, err
	}

	next, changed := coredeploy.MapStageStatus(record.DeploymentStatus, deployment.StageStatus)
	if changed {
		var failureMessage string
		if next == domain.DeployStatusFailed {
			failureMessage = coredeploy.FailureMessage(deployment.StageStatus, deployment.StageName)
		}
		record.SetDeploymentStatus(next, failureMessage)
		if deployment.URL != "" {
			record.ProductionURL = deployment.URL
		}

		if err := s.store.UpdateDeploymentRecord(ctx, record); err != nil {
			return &ReconcileResult{Record: record, Deployment: deployment}, err
		}

		s.logger.Info("deployment status reconciled",
			"customer", customerID, "deployment", deployment.ID, "status", next)
	}

	return &ReconcileResult{Record: record, Deployment: deployment, Changed: changed}, nil
}

// =============================================================================
// Status
// =============================================================================

// Status is the caller-facing deployment view.
type Status struct {
	HasActiveDeployment bool                     `json:"has_active_deployment"`
	Deployment          *platform.Deployment     `json:"deployment,omitempty"`
	LocalStatus         domain.DeploymentStatus  `json:"local_status,omitempty"`
	Record              *domain.DeploymentRecord `json:"record,omitempty"`
}

// GetStatus reconciles and returns the combined platform and local view.
// Status derivation lives entirely in Reconcile; this never re-implements
// the stage-status mapping.
func (s *DeploymentService) GetStatus(ctx context.Context, customerID string) (*Status, error) {
	result, err := s.Reconcile(ctx, customerID)
	if err != nil {
		if result == nil {
			return nil, err
		}
		// Local state is still meaningful when the platform query fails.
		return &Status{
			HasActiveDeployment: result.Record.LastDeploymentID != "",
			LocalStatus:         result.Record.DeploymentStatus,
			Record:              result.Record,
		}, err
	}

	return &Status{
		HasActiveDeployment: result.Record.LastDeploymentID != "",
		Deployment:          result.Deployment,
		LocalStatus:         result.Record.DeploymentStatus,
		Record:              result.Record,
	}, nil
}

// =============================================================================
// Delete
// =============================================================================

// Delete removes the customer's deployment record, optionally cascading the
// remote project deletion. A remote-side failure never rolls back the local
// deletion; it is logged and the local record is removed regardless.
func (s *DeploymentService) Delete(ctx context.Context, customerID string, alsoDeletePlatformProject bool) error {
	record, err := s.store.GetDeploymentRecord(ctx, customerID)
	if err != nil {
		return err
	}

	if alsoDeletePlatformProject && record.PlatformProjectName != "" {
		if err := s.platform.DeleteProject(ctx, record.PlatformProjectName); err != nil {
			s.logger.Warn("platform project deletion failed, deleting local record anyway",
				"customer", customerID, "project", record.PlatformProjectName, "error", err)
		}
	}

	return s.store.DeleteDeploymentRecord(ctx, customerID)
}
