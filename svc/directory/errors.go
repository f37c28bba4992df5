package directory

import "errors"

var (
	// ErrDuplicateName means a tenant with the same display name exists.
	ErrDuplicateName = errors.New("tenant name already registered")

	// ErrDuplicateSchema means another tenant name normalizes to the same
	// schema name.
	ErrDuplicateSchema = errors.New("tenant schema name already registered")

	// ErrDuplicateDomain means the requested domain is already taken.
	ErrDuplicateDomain = errors.New("tenant domain already registered")

	// ErrMissingFields means name or schema name was empty at registration.
	ErrMissingFields = errors.New("tenant name and schema name are required")

	// ErrNothingToUpdate means an update carried no mutable fields.
	ErrNothingToUpdate = errors.New("no updatable fields provided")

	// ErrInvalidSortField means List received an unknown sort field.
	ErrInvalidSortField = errors.New("invalid sort field")
)
