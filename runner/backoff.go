package runner

import (
	"context"
	"time"

	"github.com/certra/Certra/internal"
	"github.com/cenkalti/backoff/v4"
)

// waitBudget stops the schedule once the total time slept between attempts
// would exceed Budget. Only waits count, time spent inside an attempt (such as
// a deployment poll running to its ceiling) does not shrink the budget.
type waitBudget struct {
	backoff.BackOff
	Budget time.Duration
	waited time.Duration
}

func (w *waitBudget) NextBackOff() time.Duration {
	next := w.BackOff.NextBackOff()
	if next == backoff.Stop || w.waited+next > w.Budget {
		return backoff.Stop
	}
	w.waited += next
	return next
}

func (w *waitBudget) Reset() {
	w.waited = 0
	w.BackOff.Reset()
}

// RunWithBackoff wraps one pipeline execution with capped exponential backoff
// so transient failures do not surface as fatal. The whole sequence is retried
// from scratch, there is no partial checkpointing within an attempt. Once the
// cumulative wait would exceed the budget, the last error is returned as-is.
func (r *Runner) RunWithBackoff(ctx context.Context) error {
	budget := time.Duration(Env_BackoffBudgetSec) * time.Second
	e := backoff.NewExponentialBackOff()
	e.InitialInterval = time.Duration(Env_BackoffInitialSec) * time.Second
	e.RandomizationFactor = 0
	e.Multiplier = 2
	e.MaxInterval = budget
	e.MaxElapsedTime = 0 // waitBudget enforces the budget, not wall time
	if r.BackoffClock != nil {
		e.Clock = r.BackoffClock
	}
	b := &waitBudget{BackOff: e, Budget: budget}
	b.Reset()

	operation := func() error {
		return r.RunOnce(ctx)
	}
	notify := func(err error, next time.Duration) {
		internal.Metric_PipelineRetries.Inc()
		logger.Error().Err(err).Dur("backoff", next).Msg("pipeline run failed, backing off")
	}

	return backoff.RetryNotifyWithTimer(operation, backoff.WithContext(b, ctx), notify, r.BackoffTimer)
}

// RunForever executes the pipeline on a fixed interval, forever. Any error is
// fatal, the external supervisor is expected to restart the process.
func (r *Runner) RunForever(ctx context.Context) error {
	for {
		if err := r.RunOnce(ctx); err != nil {
			return err
		}
		logger.Info().Dur("interval", r.RunInterval).Msg("run complete, sleeping")
		r.Clock.Sleep(r.RunInterval)
	}
}

// RunForeverWithBackoff is RunForever with each cycle wrapped in the backoff
// scheduler. Errors are fatal only once a cycle exhausts its backoff budget.
func (r *Runner) RunForeverWithBackoff(ctx context.Context) error {
	for {
		if err := r.RunWithBackoff(ctx); err != nil {
			return err
		}
		logger.Info().Dur("interval", r.RunInterval).Msg("run complete, sleeping")
		r.Clock.Sleep(r.RunInterval)
	}
}
