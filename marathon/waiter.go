package marathon

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/certra/Certra/internal"
	"github.com/certra/Certra/utils"
	"github.com/samber/lo"
)

// ErrDeploymentTimeout means the tracked deployment was still in flight when
// the wait ceiling elapsed. The rollout may still complete later out-of-band,
// this system does not reconcile that.
var ErrDeploymentTimeout = errors.New("timed out waiting for deployment to complete")

// WaitState is the waiter's observable state.
type WaitState int

const (
	WaitPending WaitState = iota
	WaitComplete
	WaitTimedOut
)

type deploymentLister interface {
	Deployments(ctx context.Context) ([]Deployment, error)
}

// DeploymentWaiter polls the platform's in-flight deployment list until a
// tracked deployment id disappears from it, or a wait ceiling elapses.
type DeploymentWaiter struct {
	Lister   deploymentLister
	Interval time.Duration
	Ceiling  time.Duration
	Clock    utils.Clock

	state WaitState
}

func NewDeploymentWaiter(lister deploymentLister, clock utils.Clock) *DeploymentWaiter {
	return &DeploymentWaiter{
		Lister:   lister,
		Interval: time.Duration(Env_DeployPollSeconds) * time.Second,
		Ceiling:  time.Duration(Env_DeployTimeoutSeconds) * time.Second,
		Clock:    clock,
	}
}

// State reports where the last Wait call ended up.
func (w *DeploymentWaiter) State() WaitState {
	return w.state
}

// Wait blocks until the deployment id leaves the in-flight list. Absence from
// the list is the only completion signal the platform offers.
func (w *DeploymentWaiter) Wait(ctx context.Context, deploymentID string) error {
	w.state = WaitPending
	var waited time.Duration

	for {
		w.Clock.Sleep(w.Interval)
		waited += w.Interval
		logger.Info().Str("deploymentID", deploymentID).Msg("Waiting for deployment to complete")

		deployments, err := w.Lister.Deployments(ctx)
		if err != nil {
			return fmt.Errorf("error in Deployments: %w", err)
		}

		if !lo.ContainsBy(deployments, func(d Deployment) bool { return d.ID == deploymentID }) {
			w.state = WaitComplete
			return nil
		}

		if waited > w.Ceiling {
			w.state = WaitTimedOut
			internal.Metric_DeploymentTimeouts.Inc()
			return fmt.Errorf("%w (deployment %s after %s)", ErrDeploymentTimeout, deploymentID, waited)
		}
	}
}
