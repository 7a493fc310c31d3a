package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"runtime"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"photocull/internal/logging"
	"photocull/internal/metrics"
	"photocull/internal/middleware"
	"photocull/internal/startup"
)

// sessionStats is what the health endpoint reports on.
type sessionStats interface {
	metrics.StatsProvider
	Session() string
}

// healthResponse is the /healthz body.
type healthResponse struct {
	Status       string `json:"status"`
	Version      string `json:"version"`
	Session      string `json:"session"`
	Kept         int    `json:"kept"`
	Deleted      int    `json:"deleted"`
	NumGoroutine int    `json:"numGoroutine"`
}

func newMetricsRouter(stats sessionStats) *mux.Router {
	r := mux.NewRouter()
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet).Name("metrics")
	r.HandleFunc("/healthz", healthHandler(stats)).Methods(http.MethodGet, http.MethodHead).Name("health")
	return r
}

func healthHandler(stats sessionStats) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s := stats.GetStats()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		if r.Method == http.MethodHead {
			return
		}
		resp := healthResponse{
			Status:       "healthy",
			Version:      startup.Version,
			Session:      stats.Session(),
			Kept:         s.Kept,
			Deleted:      s.Deleted,
			NumGoroutine: runtime.NumGoroutine(),
		}
		if err := json.NewEncoder(w).Encode(resp); err != nil {
			logging.Error("failed to encode JSON response: %v", err)
		}
	}
}

// startMetricsServer serves /metrics and /healthz in the background.
func startMetricsServer(port string, stats sessionStats) *http.Server {
	router := newMetricsRouter(stats)
	startup.LogMetricsServer(router, port)

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           middleware.Logger(middleware.DefaultLoggingConfig())(router),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()
	return srv
}

func shutdownMetricsServer(srv *http.Server) {
	startup.LogShutdownStep("Stopping metrics server")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logging.Warn("Metrics server shutdown: %v", err)
		return
	}
	startup.LogShutdownStepComplete("Metrics server stopped")
}
