package orchestrator

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/siteship/siteship/internal/core/domain"
	"github.com/siteship/siteship/internal/shell/platform"
)

// =============================================================================
// Reconciliation Poller
// =============================================================================

// DefaultPollInterval is how often an in-flight deployment is reconciled.
const DefaultPollInterval = 5 * time.Second

// Poller drives repeated reconciliation while a deployment is in flight.
// It is caller-driven, not a background job: Await blocks for one customer
// until their deployment leaves the deploying state or the context ends.
// Domain reconciliation is never polled - DNS propagation operates on
// minutes-to-hours timescales and is reconciled on demand only.
type Poller struct {
	deployments *DeploymentService
	interval    time.Duration
	logger      *slog.Logger
}

// NewPoller creates a new reconciliation poller.
func NewPoller(deployments *DeploymentService, interval time.Duration, logger *slog.Logger) *Poller {
	if interval == 0 {
		interval = DefaultPollInterval
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &Poller{
		deployments: deployments,
		interval:    interval,
		logger:      logger.With("component", "reconciliation_poller"),
	}
}

// Await reconciles on a fixed interval until the deployment status leaves
// deploying. Every tick is an idempotent read with a conditional write, so
// redundant polling is safe. A failed platform query means "status unknown",
// not "stopped deploying"; polling continues through it.
func (p *Poller) Await(ctx context.Context, customerID string) (*domain.DeploymentRecord, error) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		result, err := p.deployments.Reconcile(ctx, customerID)
		switch {
		case err == nil:
			if !result.Record.DeploymentStatus.InFlight() {
				return result.Record, nil
			}
		case isTransient(err):
			p.logger.Warn("deployment status unknown, retrying",
				"customer", customerID, "error", err)
		default:
			return nil, err
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

// isTransient reports whether a reconcile error should keep the poll loop
// alive. Platform query failures are transient; local store failures and
// missing records are not.
func isTransient(err error) bool {
	var pErr *platform.Error
	return errors.As(err, &pErr)
}
