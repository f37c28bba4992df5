// Package tenant implements the request-scoped tenant context and the
// HTTP resolution middleware in front of it.
//
// A request's tenant is determined by three strategies in priority order:
// subdomain of the Host, the X-Tenant-ID header, then the first path
// segment after the API prefix (excluding reserved resource names). The
// winning tenant is loaded from the directory, checked for active status,
// and bound to the request context with WithTenant. Every schema-qualified
// data-access call downstream reads it back with FromContext; two
// concurrently in-flight requests always observe their own binding because
// the tenant travels on each request's own context chain.
//
// Requests on configured bypass paths (auth, public, health, tenant
// administration) proceed with no tenant bound. Any other request that
// resolves no tenant is rejected with a structured client error before it
// reaches a handler.
package tenant
