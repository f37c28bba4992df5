package tenant

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// contextKey prevents collisions with other packages using context values.
type contextKey struct{}

// WithTenant binds a tenant to the context. Everything executed with the
// returned context, however deeply nested, observes this tenant; a nested
// WithTenant shadows the outer tenant for its own subtree only. Because the
// binding lives in the context value chain rather than any shared variable,
// concurrent requests can never observe each other's tenant.
func WithTenant(ctx context.Context, t *Tenant) context.Context {
	return context.WithValue(ctx, contextKey{}, t)
}

// FromContext returns the tenant bound to the context, if any.
func FromContext(ctx context.Context) (*Tenant, bool) {
	t, ok := ctx.Value(contextKey{}).(*Tenant)
	return t, ok && t != nil
}

// IDFromContext provides fast access to the tenant ID.
func IDFromContext(ctx context.Context) (uuid.UUID, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return uuid.UUID{}, false
	}
	return t.ID, true
}

// SchemaFromContext returns the schema name every data-access call in this
// request must target. Callers that can proceed without a tenant should use
// FromContext instead; data access must treat ok==false as fatal.
func SchemaFromContext(ctx context.Context) (string, bool) {
	t, ok := FromContext(ctx)
	if !ok {
		return "", false
	}
	return t.Schema, true
}

// MustFromContext panics if no tenant is bound. Use only in handlers that
// sit behind the resolution middleware.
func MustFromContext(ctx context.Context) *Tenant {
	t, ok := FromContext(ctx)
	if !ok {
		panic("tenant: no tenant in context")
	}
	return t
}

// LoggerExtractor enriches log records with the current tenant ID.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id, ok := IDFromContext(ctx); ok {
			return slog.String("tenant_id", id.String()), true
		}
		return slog.Attr{}, false
	}
}
