package tenant

import (
	"log/slog"
	"net/http"
	"time"
)

// ErrorHandler handles errors during tenant resolution.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, err error)

type config struct {
	apiPrefix        string
	baseDomain       string
	headerName       string
	reservedSegments []string
	resolvers        []Resolver
	bypassPaths      []string
	cache            Cache
	cacheTTL         time.Duration
	errorHandler     ErrorHandler
	logger           *slog.Logger
}

// Option configures the middleware.
type Option func(*config)

// WithAPIPrefix sets the routing prefix the path strategy keys on.
// Default is "/api".
func WithAPIPrefix(prefix string) Option {
	return func(c *config) {
		c.apiPrefix = prefix
	}
}

// WithBaseDomain sets the application's base domain so the subdomain
// strategy can strip it before extracting the tenant label.
func WithBaseDomain(domain string) Option {
	return func(c *config) {
		c.baseDomain = domain
	}
}

// WithHeaderName overrides the tenant-identifier header. Default "X-Tenant-ID".
func WithHeaderName(name string) Option {
	return func(c *config) {
		if name != "" {
			c.headerName = name
		}
	}
}

// WithReservedSegments overrides the path segments the path strategy never
// treats as tenant names.
func WithReservedSegments(segments []string) Option {
	return func(c *config) {
		c.reservedSegments = segments
	}
}

// WithResolvers replaces the default strategy chain entirely. Order is
// precedence order.
func WithResolvers(resolvers ...Resolver) Option {
	return func(c *config) {
		c.resolvers = resolvers
	}
}

// WithBypassPaths sets path prefixes that skip resolution entirely:
// auth endpoints, public assets, health checks, the tenant listing itself.
func WithBypassPaths(paths ...string) Option {
	return func(c *config) {
		c.bypassPaths = paths
	}
}

// WithCache sets a custom cache implementation.
func WithCache(cache Cache) Option {
	return func(c *config) {
		if cache != nil {
			c.cache = cache
		}
	}
}

// WithCacheTTL bounds how long a directory lookup is reused. Deactivating a
// tenant takes at most this long to start rejecting traffic.
func WithCacheTTL(ttl time.Duration) Option {
	return func(c *config) {
		if ttl > 0 {
			c.cacheTTL = ttl
		}
	}
}

// WithErrorHandler sets a custom error handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(c *config) {
		if handler != nil {
			c.errorHandler = handler
		}
	}
}

// WithLogger sets a custom logger for the middleware.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		if logger != nil {
			c.logger = logger
		}
	}
}
