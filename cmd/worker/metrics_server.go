package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"news-notifier/internal/resilience/circuitbreaker"
)

// BreakerSource exposes named circuit breakers for /health/breakers.
type BreakerSource interface {
	Breakers() map[string]*circuitbreaker.CircuitBreaker
}

type HealthResponse struct {
	Status string `json:"status"`
}

type BreakerHealthResponse struct {
	Healthy  bool            `json:"healthy"`
	Breakers []BreakerStatus `json:"breakers"`
}

type BreakerStatus struct {
	Name  string `json:"name"`
	State string `json:"state"`
	Open  bool   `json:"open"`
}

// newMetricsHandler serves:
//   - GET /metrics: Prometheus scrape endpoint
//   - GET /health: liveness
//   - GET /health/breakers: circuit breaker states, 503 when any is open
func newMetricsHandler(sources ...BreakerSource) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", healthHandler)
	mux.HandleFunc("/health/breakers", breakerHealthHandler(sources))
	return mux
}

// runMetricsServer serves the metrics handler on port until ctx is cancelled.
func runMetricsServer(ctx context.Context, logger *slog.Logger, port int, handler http.Handler) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
	case err := <-errChan:
		return fmt.Errorf("metrics server: %w", err)
	}

	logger.Info("metrics server shutdown initiated")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", slog.Any("error", err))
		return err
	}
	logger.Info("metrics server stopped")
	return nil
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(HealthResponse{Status: "healthy"})
}

func breakerHealthHandler(sources []BreakerSource) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		breakers := make([]BreakerStatus, 0)
		healthy := true
		for _, src := range sources {
			if src == nil {
				continue
			}
			for name, cb := range src.Breakers() {
				open := cb.IsOpen()
				breakers = append(breakers, BreakerStatus{
					Name:  name,
					State: cb.State().String(),
					Open:  open,
				})
				if open {
					healthy = false
				}
			}
		}
		sort.Slice(breakers, func(i, j int) bool { return breakers[i].Name < breakers[j].Name })

		statusCode := http.StatusOK
		if !healthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(BreakerHealthResponse{
			Healthy:  healthy,
			Breakers: breakers,
		})
	}
}
