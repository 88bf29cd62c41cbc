package runner

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/certra/Certra/cert"
	"github.com/certra/Certra/gologger"
	"github.com/certra/Certra/internal"
	"github.com/certra/Certra/marathon"
	"github.com/certra/Certra/tracing"
	"github.com/certra/Certra/utils"
	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var logger = gologger.NewLogger()

type (
	domainResolver interface {
		Resolve(ctx context.Context) (string, error)
	}
	certObtainer interface {
		Obtain(ctx context.Context, domains string) (string, error)
	}
	certLocator interface {
		CertPath(primaryDomain string) string
	}
	certPublisher interface {
		PublishCert(ctx context.Context, lbAppID string, certPEM []byte) error
	}
)

// Runner drives the pipeline: resolve domains, issue or renew the certificate,
// then publish it to the load balancer. Steps run strictly in sequence, one
// pipeline execution at a time.
type Runner struct {
	Resolver  domainResolver
	Issuer    certObtainer
	Store     certLocator
	Publisher certPublisher
	LBAppID   string

	RunInterval time.Duration
	Clock       utils.Clock

	// Test seams for the backoff wrapper, nil in production.
	BackoffTimer backoff.Timer
	BackoffClock backoff.Clock
}

func NewRunner(resolver *cert.Resolver, issuer *cert.Issuer, store *cert.Store, client *marathon.Client) *Runner {
	return &Runner{
		Resolver:    resolver,
		Issuer:      issuer,
		Store:       store,
		Publisher:   client,
		LBAppID:     marathon.Env_LBID,
		RunInterval: time.Duration(Env_RunIntervalSec) * time.Second,
		Clock:       utils.NewClock(),
	}
}

// RunOnce executes one full pipeline run.
func (r *Runner) RunOnce(ctx context.Context) error {
	runLogger := logger.With().Str("runID", utils.GenKSortedID("run_")).Logger()
	ctx = runLogger.WithContext(ctx)

	ctx, span := tracing.CertraTracer.Start(ctx, "pipelineRun")
	defer span.End()

	internal.Metric_PipelineRuns.Inc()
	if err := r.runPipeline(ctx); err != nil {
		internal.Metric_PipelineFailures.Inc()
		span.RecordError(err)
		return err
	}
	return nil
}

func (r *Runner) runPipeline(ctx context.Context) error {
	log := zerolog.Ctx(ctx)

	domains, err := r.Resolver.Resolve(ctx)
	if err != nil {
		return fmt.Errorf("error in Resolve: %w", err)
	}
	trace.SpanFromContext(ctx).SetAttributes(attribute.String("domains", domains))

	log.Info().Str("domains", domains).Msg("Requesting certificates")
	primaryDomain, err := r.Issuer.Obtain(ctx, domains)
	if err != nil {
		return fmt.Errorf("error in Obtain: %w", err)
	}

	certPath := r.Store.CertPath(primaryDomain)
	certPEM, err := os.ReadFile(certPath)
	if err != nil {
		return fmt.Errorf("error reading certificate %s: %w", certPath, err)
	}

	log.Info().Msg("Uploading certificates")
	if err := r.Publisher.PublishCert(ctx, r.LBAppID, certPEM); err != nil {
		return fmt.Errorf("error in PublishCert: %w", err)
	}
	return nil
}
