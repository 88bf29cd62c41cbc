package runner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeTimer fires immediately and advances the shared clock by the requested
// wait, so backoff budgets elapse without real sleeping.
type fakeTimer struct {
	clock *fakeClock
	waits []time.Duration
	ch    chan time.Time
}

func (t *fakeTimer) Start(d time.Duration) {
	t.waits = append(t.waits, d)
	t.clock.now = t.clock.now.Add(d)
	t.ch = make(chan time.Time, 1)
	t.ch <- t.clock.now
}

func (t *fakeTimer) C() <-chan time.Time { return t.ch }
func (t *fakeTimer) Stop()               {}

type (
	obtainerFunc  func(ctx context.Context, domains string) (string, error)
	locatorFunc   func(primaryDomain string) string
	publisherFunc func(ctx context.Context, lbAppID string, certPEM []byte) error
)

func (f obtainerFunc) Obtain(ctx context.Context, domains string) (string, error) {
	return f(ctx, domains)
}
func (f locatorFunc) CertPath(primaryDomain string) string { return f(primaryDomain) }
func (f publisherFunc) PublishCert(ctx context.Context, lbAppID string, certPEM []byte) error {
	return f(ctx, lbAppID, certPEM)
}

func newBackoffRunner(t *testing.T, resolve resolverFunc) (*Runner, *fakeTimer) {
	t.Helper()
	pemPath := filepath.Join(t.TempDir(), "x.example.com.pem")
	require.NoError(t, os.WriteFile(pemPath, []byte("pem"), 0o644))

	clock := &fakeClock{now: time.Unix(0, 0)}
	timer := &fakeTimer{clock: clock}
	return &Runner{
		Resolver: resolve,
		Issuer: obtainerFunc(func(ctx context.Context, domains string) (string, error) {
			return "x.example.com", nil
		}),
		Store: locatorFunc(func(primaryDomain string) string { return pemPath }),
		Publisher: publisherFunc(func(ctx context.Context, lbAppID string, certPEM []byte) error {
			return nil
		}),
		Clock:        clock,
		BackoffClock: clock,
		BackoffTimer: timer,
	}, timer
}

func TestRunWithBackoffRecoversFromTransientFailures(t *testing.T) {
	calls := 0
	r, timer := newBackoffRunner(t, func(ctx context.Context) (string, error) {
		calls++
		if calls <= 2 {
			return "", errors.New("temporarily unavailable")
		}
		return "x.example.com", nil
	})

	require.NoError(t, r.RunWithBackoff(context.Background()))
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{30 * time.Second, 60 * time.Second}, timer.waits)
}

func TestRunWithBackoffSequenceAndBudget(t *testing.T) {
	pipelineErr := errors.New("platform unreachable")
	attempts := 0
	r, timer := newBackoffRunner(t, func(ctx context.Context) (string, error) {
		attempts++
		return "", pipelineErr
	})

	err := r.RunWithBackoff(context.Background())
	require.ErrorIs(t, err, pipelineErr)

	// 30s doubling per failure, and the wrapper gives up once the cumulative
	// wait would exceed the 3600s budget (30+60+...+960 = 1890, +1920 > 3600).
	assert.Equal(t, []time.Duration{
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		480 * time.Second,
		960 * time.Second,
	}, timer.waits)
	assert.Equal(t, 7, attempts)
}

func TestRunWithBackoffBudgetCountsOnlyWaits(t *testing.T) {
	pipelineErr := errors.New("platform unreachable")
	attempts := 0
	var timer *fakeTimer
	r, timer := newBackoffRunner(t, func(ctx context.Context) (string, error) {
		attempts++
		// Each attempt spends its full deployment-wait ceiling before failing.
		// That wall time must not count against the backoff budget.
		timer.clock.now = timer.clock.now.Add(300 * time.Second)
		return "", pipelineErr
	})

	err := r.RunWithBackoff(context.Background())
	require.ErrorIs(t, err, pipelineErr)

	assert.Equal(t, []time.Duration{
		30 * time.Second,
		60 * time.Second,
		120 * time.Second,
		240 * time.Second,
		480 * time.Second,
		960 * time.Second,
	}, timer.waits)
	assert.Equal(t, 7, attempts)
}
