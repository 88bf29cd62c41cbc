package internal

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/certra/Certra/gologger"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/context"
)

var (
	httpServer *http.Server
	logger     = gologger.NewLogger()

	ErrNoServer = errors.New("no server")
)

func StartMetricsServer() error {
	logger.Debug().Msgf("Starting internal http server on port %s", Env_InternalPort)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%s", Env_InternalPort),
		Handler: mux,
	}
	return httpServer.ListenAndServe()
}

func Shutdown(ctx context.Context) error {
	if httpServer != nil {
		logger.Debug().Msg("Shutting down internal server")
		return httpServer.Shutdown(ctx)
	}
	return ErrNoServer
}
