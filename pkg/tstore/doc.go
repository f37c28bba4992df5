// Package tstore is the schema-qualified data-access base underneath every
// tenant-scoped entity (users, invoices, invoice items, tenant settings).
//
// A Store is configured once with a logical table name and primary key; at
// call time it resolves the tenant bound to the request context and
// qualifies every statement with that tenant's schema. Calls with no tenant
// in context fail immediately with tenant.ErrNoTenantContext and never
// touch the database. Field names cross the boundary in camelCase and are
// mapped to snake_case columns both ways.
//
// Entity packages compose a Store rather than inheriting from it: an entity
// is a Store configuration plus its own specialized query functions built
// on RawQuery and transactions.
package tstore
