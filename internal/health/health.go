// Package health exposes liveness and readiness checks.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// Pinger reports whether a dependency is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// checkTimeout bounds a single readiness check.
const checkTimeout = 2 * time.Second

// RegisterRoutes mounts /healthz (liveness) and /readyz (store reachable).
func RegisterRoutes(r chi.Router, store Pinger, logger *slog.Logger) {
	r.Get("/healthz", liveness)
	r.Get("/readyz", readiness(store, logger))
}

func liveness(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

func readiness(store Pinger, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if store == nil {
			http.Error(w, "store not configured", http.StatusServiceUnavailable)
			return
		}

		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()

		if err := store.Ping(ctx); err != nil {
			logger.Error("readiness check failed", slog.String("error", err.Error()))
			http.Error(w, "store unreachable", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	}
}
