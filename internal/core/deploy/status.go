// Package deploy contains pure functions for mapping remote deployment state
// onto the locally tracked deployment status. This is part of the Functional
// Core - all functions are pure with no I/O.
package deploy

import (
	"fmt"

	"github.com/siteship/siteship/internal/core/domain"
)

// =============================================================================
// Stage Status
// =============================================================================

// Stage statuses reported by the hosting platform for a deployment.
const (
	StageSuccess  = "success"
	StageFailure  = "failure"
	StageCanceled = "canceled"
	StageActive   = "active"
)

// =============================================================================
// Status Mapping
// =============================================================================

// MapStageStatus maps a platform stage status onto the local deployment
// status. Unrecognised stage statuses leave the prior status unchanged; the
// platform introduces intermediate stages without notice and an unknown value
// must never flip a deployment to failed or deployed.
func MapStageStatus(prior domain.DeploymentStatus, stageStatus string) (domain.DeploymentStatus, bool) {
	var next domain.DeploymentStatus
	switch stageStatus {
	case StageSuccess:
		next = domain.DeployStatusDeployed
	case StageFailure, StageCanceled:
		next = domain.DeployStatusFailed
	case StageActive:
		next = domain.DeployStatusDeploying
	default:
		return prior, false
	}
	return next, next != prior
}

// FailureMessage formats the user-displayable error recorded when a
// deployment resolves to failed during reconciliation.
func FailureMessage(stageStatus, stageName string) string {
	return fmt.Sprintf("%s: %s", stageStatus, stageName)
}
