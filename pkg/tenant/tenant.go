package tenant

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Tenant is the request-scoped view of a tenant: enough to address its
// schema and to display it, nothing more.
type Tenant struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Schema    string    `json:"schemaName"`
	Domain    string    `json:"domain,omitempty"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Provider loads tenants from the global directory during request
// resolution. Both lookups must only return active tenants; inactive
// tenants never resolve incoming traffic regardless of strategy.
type Provider interface {
	// FindByName retrieves a tenant by its unique display name.
	// Returns ErrTenantNotFound if no active tenant matches.
	FindByName(ctx context.Context, name string) (*Tenant, error)

	// FindByDomain retrieves a tenant by its subdomain or custom domain.
	// Returns ErrTenantNotFound if no active tenant matches.
	FindByDomain(ctx context.Context, domain string) (*Tenant, error)
}
