// Package health aggregates dependency health checks into one endpoint.
// Checks are named so operators can see which backend is failing.
package health

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/invoiceflow/invoiceflow/pkg/respond"
)

// Check probes one dependency. It must respect context cancellation.
type Check func(ctx context.Context) error

const checkTimeout = 5 * time.Second

type module struct {
	checks map[string]Check
}

// Router builds the health endpoint over the given named checks.
func Router(checks map[string]Check) chi.Router {
	m := &module{checks: checks}

	r := chi.NewRouter()
	r.Get("/", m.health)
	return r
}

func (m *module) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(m.checks))
	for name, check := range m.checks {
		if err := check(ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	respond.JSON(w, status, map[string]any{
		"status": map[int]string{
			http.StatusOK:                 "healthy",
			http.StatusServiceUnavailable: "degraded",
		}[status],
		"checks": results,
	})
}
