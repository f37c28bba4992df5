package directory

import (
	"context"

	"github.com/invoiceflow/invoiceflow/pkg/tenant"
)

// resolver adapts the directory to the resolution middleware's Provider
// interface. Unlike the admin read methods, both lookups here filter to
// active tenants: an inactive tenant must never resolve incoming traffic,
// whichever strategy found it.
type resolver struct {
	db Querier
}

// Resolver returns the tenant.Provider used by the resolution middleware.
func (d *Directory) Resolver() tenant.Provider {
	return &resolver{db: d.db}
}

func (r *resolver) FindByName(ctx context.Context, name string) (*tenant.Tenant, error) {
	return findOne(ctx, r.db, "name = $1 AND status = 'active'", name)
}

func (r *resolver) FindByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	return findOne(ctx, r.db, "domain = $1 AND status = 'active'", domain)
}

var _ tenant.Provider = (*resolver)(nil)
