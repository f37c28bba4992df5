package tenant

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Middleware resolves the tenant for every inbound request, running the
// configured strategies in priority order (subdomain, then header, then
// path) and binding the winning tenant to the request context. Requests on
// bypass paths proceed with no tenant context; all other requests that
// resolve no tenant are rejected before reaching any handler.
func Middleware(provider Provider, opts ...Option) func(http.Handler) http.Handler {
	cfg := &config{
		apiPrefix:    "/api",
		headerName:   "X-Tenant-ID",
		cache:        NewInMemoryCache(),
		cacheTTL:     5 * time.Minute,
		errorHandler: DefaultErrorHandler,
		logger:       slog.Default(),
	}
	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.resolvers) == 0 {
		cfg.resolvers = []Resolver{
			NewSubdomainResolver(cfg.baseDomain),
			NewHeaderResolver(cfg.headerName),
			NewPathResolver(cfg.apiPrefix, cfg.reservedSegments),
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			for _, skip := range cfg.bypassPaths {
				if strings.HasPrefix(r.URL.Path, skip) {
					next.ServeHTTP(w, r)
					return
				}
			}

			match, err := resolve(cfg.resolvers, r)
			if err != nil {
				cfg.errorHandler(w, r, err)
				return
			}
			if match.Identifier == "" {
				cfg.errorHandler(w, r, ErrTenantNotResolved)
				return
			}

			t, err := lookup(cfg, provider, r, match)
			if err != nil {
				cfg.logger.DebugContext(r.Context(), "tenant resolution failed",
					"strategy", string(match.Strategy),
					"identifier", match.Identifier,
					"error", err,
				)
				cfg.errorHandler(w, r, err)
				return
			}

			// The active filter applies uniformly to every strategy, cached
			// entries included.
			if !t.Active {
				cfg.errorHandler(w, r, ErrInactiveTenant)
				return
			}

			if match.Strategy == StrategyPath {
				r.URL.Path = StripPathSegment(r.URL.Path, cfg.apiPrefix, match.Identifier)
			}

			ctx := WithTenant(r.Context(), t)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// resolve runs the strategies in order; the first match wins.
func resolve(resolvers []Resolver, r *http.Request) (Match, error) {
	for _, resolver := range resolvers {
		match, err := resolver(r)
		if err != nil {
			return Match{}, err
		}
		if match.Identifier != "" {
			return match, nil
		}
	}
	return Match{}, nil
}

func lookup(cfg *config, provider Provider, r *http.Request, match Match) (*Tenant, error) {
	key := string(match.Strategy) + ":" + match.Identifier
	if cached, ok := cfg.cache.Get(r.Context(), key); ok {
		return cached, nil
	}

	var (
		t   *Tenant
		err error
	)
	if match.Strategy == StrategySubdomain {
		t, err = provider.FindByDomain(r.Context(), match.Identifier)
	} else {
		t, err = provider.FindByName(r.Context(), match.Identifier)
	}
	if err != nil {
		return nil, err
	}

	cfg.cache.Set(r.Context(), key, t, cfg.cacheTTL)
	return t, nil
}

// DefaultErrorHandler writes the structured JSON rejection for resolution
// failures. Unresolved and invalid requests are client errors; nothing here
// escapes to a generic error handler.
func DefaultErrorHandler(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, ErrTenantNotResolved):
		writeError(w, http.StatusBadRequest, "no tenant could be resolved for this request")
	case errors.Is(err, ErrTenantNotFound):
		writeError(w, http.StatusNotFound, "tenant not found")
	case errors.Is(err, ErrInactiveTenant):
		writeError(w, http.StatusForbidden, "tenant is inactive")
	case errors.Is(err, ErrInvalidIdentifier):
		writeError(w, http.StatusBadRequest, "invalid tenant identifier")
	default:
		writeError(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(`{"error":` + `"` + msg + `"}`))
}
