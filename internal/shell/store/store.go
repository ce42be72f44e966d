package store

import (
	"context"

	"github.com/siteship/siteship/internal/core/domain"
)

// =============================================================================
// Store Interface
// =============================================================================

// Store defines the persistence interface for deployment records. The
// persisted record is the sole source of truth and serialization point for
// the orchestrators.
type Store interface {
	// Deployment record operations (one record per customer)
	CreateDeploymentRecord(ctx context.Context, record *domain.DeploymentRecord) error
	GetDeploymentRecord(ctx context.Context, customerID string) (*domain.DeploymentRecord, error)
	UpdateDeploymentRecord(ctx context.Context, record *domain.DeploymentRecord) error
	DeleteDeploymentRecord(ctx context.Context, customerID string) error
	ListDeploymentRecords(ctx context.Context, opts ListOptions) ([]domain.DeploymentRecord, error)

	// MarkDeploying flips the record to deploying and clears the last
	// deployment error, but only if no deployment is currently in flight.
	// The guard is a single conditional UPDATE so concurrent triggers for
	// the same customer cannot both pass; the loser gets ErrDeployInFlight.
	MarkDeploying(ctx context.Context, customerID string) (*domain.DeploymentRecord, error)

	// Lifecycle
	Close() error
}

// =============================================================================
// Options
// =============================================================================

// ListOptions defines pagination options.
type ListOptions struct {
	Limit  int
	Offset int
}

// DefaultListOptions returns default list options.
func DefaultListOptions() ListOptions {
	return ListOptions{
		Limit:  100,
		Offset: 0,
	}
}

// Normalize ensures list options have valid values.
func (o ListOptions) Normalize() ListOptions {
	if o.Limit <= 0 {
		o.Limit = 100
	}
	if o.Limit > 1000 {
		o.Limit = 1000
	}
	if o.Offset < 0 {
		o.Offset = 0
	}
	return o
}
