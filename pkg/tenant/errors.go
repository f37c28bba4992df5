package tenant

import "errors"

var (
	// ErrTenantNotFound is returned when a tenant cannot be found in the
	// directory.
	ErrTenantNotFound = errors.New("tenant not found")

	// ErrTenantNotResolved is returned when a request matches none of the
	// resolution strategies and is not on the bypass list.
	ErrTenantNotResolved = errors.New("no tenant could be resolved for request")

	// ErrInvalidIdentifier is returned when a candidate identifier fails
	// format validation.
	ErrInvalidIdentifier = errors.New("invalid tenant identifier")

	// ErrNoTenantContext is returned by schema-qualified data access when no
	// tenant is bound to the context. It is always fatal to the operation;
	// nothing ever falls back to a shared schema.
	ErrNoTenantContext = errors.New("no tenant in context")

	// ErrInactiveTenant is returned when a resolved tenant is deactivated.
	ErrInactiveTenant = errors.New("tenant is inactive")
)
