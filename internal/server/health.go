package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/vanshika/downline/internal/service"
)

const healthProbeTimeout = 2 * time.Second

// HealthService defines behaviour for readiness probes.
type HealthService interface {
	Probe(ctx context.Context) error
}

// StoreHealthService pings the member/deal store. Stores without a Ping
// method are reported healthy.
type StoreHealthService struct {
	Store service.Store
}

func (s StoreHealthService) Probe(ctx context.Context) error {
	p, ok := s.Store.(service.Pinger)
	if !ok || p == nil {
		return nil
	}
	return p.Ping(ctx)
}

type healthResponse struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

func healthHandler(logger *slog.Logger, health HealthService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if health == nil {
			respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), healthProbeTimeout)
		defer cancel()

		if err := health.Probe(ctx); err != nil {
			logger.Error("health probe failed", "error", err)
			respondJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "degraded", Error: err.Error()})
			return
		}
		respondJSON(w, http.StatusOK, healthResponse{Status: "ok"})
	}
}
