package tracing

import (
	"context"
	"fmt"
	"os"

	"github.com/certra/Certra/gologger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

var (
	// CertraTracer is a no-op until Init installs a provider.
	CertraTracer = otel.Tracer("certra")

	logger   = gologger.NewLogger()
	provider *sdktrace.TracerProvider
)

// Init installs a tracer provider when tracing is configured: OTLP over gRPC
// when OTEL_EXPORTER_OTLP_ENDPOINT is set, stdout spans when TRACE_STDOUT=1,
// otherwise spans stay no-ops.
func Init(ctx context.Context) error {
	var exporter sdktrace.SpanExporter
	var err error

	switch {
	case os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT") != "":
		exporter, err = otlptracegrpc.New(ctx)
		if err != nil {
			return fmt.Errorf("error in otlptracegrpc.New: %w", err)
		}
	case os.Getenv("TRACE_STDOUT") == "1":
		exporter, err = stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("error in stdouttrace.New: %w", err)
		}
	default:
		logger.Debug().Msg("tracing not configured, spans disabled")
		return nil
	}

	provider = sdktrace.NewTracerProvider(sdktrace.WithBatcher(exporter))
	otel.SetTracerProvider(provider)
	CertraTracer = otel.Tracer("certra")
	return nil
}

// Shutdown flushes any pending spans.
func Shutdown(ctx context.Context) error {
	if provider == nil {
		return nil
	}
	return provider.Shutdown(ctx)
}
