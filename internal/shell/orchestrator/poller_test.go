package orchestrator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/siteship/siteship/internal/core/domain"
	"github.com/siteship/siteship/internal/shell/platform"
)

func TestPollerAwaitResolvesWhenDeployCompletes(t *testing.T) {
	calls := 0
	mock := &mockPlatform{
		getDeployStatusFn: func(ctx context.Context, name, deployID string) (*platform.Deployment, error) {
			calls++
			if calls < 3 {
				return &platform.Deployment{ID: deployID, StageStatus: "active", StageName: "build"}, nil
			}
			return &platform.Deployment{ID: deployID, StageStatus: "success", StageName: "deploy"}, nil
		},
	}
	svc, s := setupDeployments(t, mock)
	createInitializedRecord(t, s, "cust_1")
	_, err := svc.Trigger(context.Background(), "cust_1")
	require.NoError(t, err)

	poller := NewPoller(svc, 5*time.Millisecond, nil)
	record, err := poller.Await(context.Background(), "cust_1")
	require.NoError(t, err)

	assert.Equal(t, domain.DeployStatusDeployed, record.DeploymentStatus)
	assert.GreaterOrEqual(t, calls, 3)
}

func TestPollerAwaitResolvesFailure(t *testing.T) {
	mock := &mockPlatform{
		getDeployStatusFn: func(ctx context.Context, name, deployID string) (*platform.Deployment, error) {
			return &platform.Deployment{ID: deployID, StageStatus: "failure", StageName: "build"}, nil
		},
	}
	svc, s := setupDeployments(t, mock)
	createInitializedRecord(t, s, "cust_1")
	_, err := svc.Trigger(context.Background(), "cust_1")
	require.NoError(t, err)

	poller := NewPoller(svc, 5*time.Millisecond, nil)
	record, err := poller.Await(context.Background(), "cust_1")
	require.NoError(t, err, "a failed deploy is a resolved deploy")
	assert.Equal(t, domain.DeployStatusFailed, record.DeploymentStatus)
	assert.Equal(t, "failure: build", record.LastDeploymentError)
}

func TestPollerAwaitSurvivesTransientPlatformErrors(t *testing.T) {
	calls := 0
	mock := &mockPlatform{
		getDeployStatusFn: func(ctx context.Context, name, deployID string) (*platform.Deployment, error) {
			calls++
			if calls == 1 {
				return nil, &platform.Error{Op: "get deployment", StatusCode: 503, Message: "unavailable"}
			}
			return &platform.Deployment{ID: deployID, StageStatus: "success", StageName: "deploy"}, nil
		},
	}
	svc, s := setupDeployments(t, mock)
	createInitializedRecord(t, s, "cust_1")
	_, err := svc.Trigger(context.Background(), "cust_1")
	require.NoError(t, err)

	poller := NewPoller(svc, 5*time.Millisecond, nil)
	record, err := poller.Await(context.Background(), "cust_1")
	require.NoError(t, err, "a platform blip does not abort the poll")
	assert.Equal(t, domain.DeployStatusDeployed, record.DeploymentStatus)
}

func TestPollerAwaitStopsOnContextCancel(t *testing.T) {
	mock := &mockPlatform{} // default: deploy stays active forever
	svc, s := setupDeployments(t, mock)
	createInitializedRecord(t, s, "cust_1")
	_, err := svc.Trigger(context.Background(), "cust_1")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	poller := NewPoller(svc, 5*time.Millisecond, nil)
	_, err = poller.Await(ctx, "cust_1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPollerAwaitFailsFastOnMissingRecord(t *testing.T) {
	svc, _ := setupDeployments(t, &mockPlatform{})

	poller := NewPoller(svc, 5*time.Millisecond, nil)
	_, err := poller.Await(context.Background(), "missing")
	assert.True(t, IsNotFound(err), "a store miss is not transient")
}

func TestPollerAwaitReturnsImmediatelyWhenNotInFlight(t *testing.T) {
	mock := &mockPlatform{}
	svc, s := setupDeployments(t, mock)
	createInitializedRecord(t, s, "cust_1")

	poller := NewPoller(svc, time.Hour, nil)
	record, err := poller.Await(context.Background(), "cust_1")
	require.NoError(t, err)
	assert.Equal(t, domain.DeployStatusNotDeployed, record.DeploymentStatus)
}

func TestNewPollerDefaults(t *testing.T) {
	poller := NewPoller(nil, 0, nil)
	assert.Equal(t, DefaultPollInterval, poller.interval)
}
