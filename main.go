package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/certra/Certra/cert"
	"github.com/certra/Certra/gologger"
	"github.com/certra/Certra/internal"
	"github.com/certra/Certra/marathon"
	"github.com/certra/Certra/runner"
	"github.com/certra/Certra/tracing"
	"golang.org/x/sync/errgroup"
)

var (
	logger = gologger.NewLogger()
)

func main() {
	logger.Info().Msg("starting Certra")
	ctx := context.Background()

	if err := tracing.Init(ctx); err != nil {
		logger.Error().Err(err).Msg("error initializing tracing, continuing without it")
	}

	client := marathon.NewClient()
	store := cert.NewStore()
	r := runner.NewRunner(cert.NewResolver(client), cert.NewIssuer(store), store, client)

	g := errgroup.Group{}
	g.Go(func() error {
		err := internal.StartMetricsServer()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			// Metrics are best-effort, the pipeline decides the exit status.
			logger.Error().Err(err).Msg("error running internal server")
		}
		return nil
	})
	g.Go(func() error {
		defer shutdown(ctx)

		switch mode() {
		case "service":
			return r.RunForever(ctx)
		case "service_with_backoff":
			return r.RunForeverWithBackoff(ctx)
		default:
			return r.RunOnce(ctx)
		}
	})

	if err := g.Wait(); err != nil {
		logger.Fatal().Err(err).Msg("pipeline failed")
	}
}

func shutdown(ctx context.Context) {
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	_ = internal.Shutdown(shutdownCtx)
	_ = tracing.Shutdown(shutdownCtx)
}

func mode() string {
	if len(os.Args) > 1 {
		return os.Args[1]
	}
	return ""
}
