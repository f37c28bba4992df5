package provisioner

import "errors"

var (
	// ErrTenantAlreadyExists means the name, or the schema name it derives
	// to, is already registered. Provisioning performed no writes.
	ErrTenantAlreadyExists = errors.New("tenant already exists")

	// ErrInvalidTenantName means the name normalizes to an empty slug and
	// cannot name a schema.
	ErrInvalidTenantName = errors.New("tenant name yields no valid schema name")

	// ErrSchemaCreationFailed means schema or table creation failed and the
	// whole provisioning transaction was rolled back.
	ErrSchemaCreationFailed = errors.New("tenant schema creation failed")
)
