package directory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/invoiceflow/invoiceflow/pkg/logger"
	"github.com/invoiceflow/invoiceflow/pkg/pg"
	"github.com/invoiceflow/invoiceflow/pkg/tenant"
)

// Table is the fully-qualified tenant registry table. It is the only
// cross-tenant-visible table this service touches and is never
// schema-qualified per tenant.
const Table = "public.tenants"

const tenantColumns = "id, name, schema_name, domain, status, created_at, updated_at"

// Querier is the pgx query surface shared by *pgxpool.Pool and pgx.Tx.
// Registry writes that must join a provisioning transaction go through the
// package-level functions taking a Querier.
type Querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Directory reads and writes the global tenant registry.
type Directory struct {
	db  Querier
	log *slog.Logger
}

// New creates a Directory on the shared pool.
func New(db Querier, log *slog.Logger) *Directory {
	if log == nil {
		log = slog.Default()
	}
	return &Directory{db: db, log: log}
}

// FindByName returns the tenant with the given unique name regardless of
// status. The resolution path goes through Resolver instead, which filters
// to active tenants.
func (d *Directory) FindByName(ctx context.Context, name string) (*tenant.Tenant, error) {
	return findOne(ctx, d.db, "name = $1", name)
}

// FindByDomain returns the tenant with the given domain regardless of status.
func (d *Directory) FindByDomain(ctx context.Context, domain string) (*tenant.Tenant, error) {
	return findOne(ctx, d.db, "domain = $1", domain)
}

// FindByID returns the tenant with the given id.
func (d *Directory) FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error) {
	return findOne(ctx, d.db, "id = $1", id)
}

// CreateParams are the fields settable at registration time. Status is
// always active for new tenants.
type CreateParams struct {
	Name   string
	Schema string
	Domain string
}

// Create registers a tenant. Collisions surface as ErrDuplicateName,
// ErrDuplicateSchema or ErrDuplicateDomain depending on the violated
// constraint.
func (d *Directory) Create(ctx context.Context, params CreateParams) (*tenant.Tenant, error) {
	t, err := Create(ctx, d.db, params)
	if err != nil {
		d.log.ErrorContext(ctx, "tenant registration failed",
			logger.Component("directory"),
			slog.String("name", params.Name),
			logger.Error(err),
		)
		return nil, err
	}
	return t, nil
}

// Create registers a tenant using the given querier, so the provisioner can
// run the insert inside its provisioning transaction.
func Create(ctx context.Context, q Querier, params CreateParams) (*tenant.Tenant, error) {
	if params.Name == "" || params.Schema == "" {
		return nil, ErrMissingFields
	}

	var domain *string
	if params.Domain != "" {
		domain = &params.Domain
	}

	sql := fmt.Sprintf(`INSERT INTO %s (name, schema_name, domain, status)
		VALUES ($1, $2, $3, 'active')
		RETURNING %s`, Table, tenantColumns)

	t, err := scanTenant(q.QueryRow(ctx, sql, params.Name, params.Schema, domain))
	if err != nil {
		return nil, classifyWriteError(err)
	}
	return t, nil
}

// UpdateParams carry the only mutable registry fields. The tenant name is
// immutable once a schema has been derived from it.
type UpdateParams struct {
	Domain *string
	Active *bool
}

// Update patches domain and/or status. Returns tenant.ErrTenantNotFound if
// the id matches no row.
func (d *Directory) Update(ctx context.Context, id uuid.UUID, params UpdateParams) (*tenant.Tenant, error) {
	assignments := []string{"updated_at = now()"}
	args := []any{}

	if params.Domain != nil {
		args = append(args, nullable(*params.Domain))
		assignments = append(assignments, fmt.Sprintf("domain = $%d", len(args)))
	}
	if params.Active != nil {
		status := "inactive"
		if *params.Active {
			status = "active"
		}
		args = append(args, status)
		assignments = append(assignments, fmt.Sprintf("status = $%d", len(args)))
	}
	if len(args) == 0 {
		return nil, ErrNothingToUpdate
	}

	args = append(args, id)
	sql := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d RETURNING %s",
		Table, strings.Join(assignments, ", "), len(args), tenantColumns)

	t, err := scanTenant(d.db.QueryRow(ctx, sql, args...))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, classifyWriteError(err)
	}
	return t, nil
}

// ListOptions shape a List call.
type ListOptions struct {
	SortBy string // one of name, created_at, updated_at; default name
	Desc   bool
}

// List returns all registered tenants, active and inactive.
func (d *Directory) List(ctx context.Context, opts ListOptions) ([]tenant.Tenant, error) {
	col := "name"
	switch opts.SortBy {
	case "", "name":
	case "createdAt", "created_at":
		col = "created_at"
	case "updatedAt", "updated_at":
		col = "updated_at"
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidSortField, opts.SortBy)
	}
	dir := "ASC"
	if opts.Desc {
		dir = "DESC"
	}

	sql := fmt.Sprintf("SELECT %s FROM %s ORDER BY %s %s", tenantColumns, Table, col, dir)
	rows, err := d.db.Query(ctx, sql)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []tenant.Tenant{}
	for rows.Next() {
		t, err := scanTenant(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *t)
	}
	return out, rows.Err()
}

// Exists reports whether any tenant already uses the given name or schema.
// Runs on the provided querier so the provisioner can check inside its
// transaction.
func Exists(ctx context.Context, q Querier, name, schema string) (bool, error) {
	var n int
	sql := fmt.Sprintf("SELECT count(*) FROM %s WHERE name = $1 OR schema_name = $2", Table)
	if err := q.QueryRow(ctx, sql, name, schema).Scan(&n); err != nil {
		return false, err
	}
	return n > 0, nil
}

func findOne(ctx context.Context, q Querier, predicate string, arg any) (*tenant.Tenant, error) {
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s", tenantColumns, Table, predicate)
	t, err := scanTenant(q.QueryRow(ctx, sql, arg))
	if err != nil {
		if pg.IsNotFoundError(err) {
			return nil, tenant.ErrTenantNotFound
		}
		return nil, err
	}
	return t, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTenant(row rowScanner) (*tenant.Tenant, error) {
	var (
		t      tenant.Tenant
		domain *string
		status string
	)
	err := row.Scan(&t.ID, &t.Name, &t.Schema, &domain, &status, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if domain != nil {
		t.Domain = *domain
	}
	t.Active = status == "active"
	return &t, nil
}

func classifyWriteError(err error) error {
	if pg.IsDuplicateKeyError(err) {
		switch constraint := pg.ConstraintName(err); {
		case strings.Contains(constraint, "schema"):
			return errors.Join(ErrDuplicateSchema, err)
		case strings.Contains(constraint, "domain"):
			return errors.Join(ErrDuplicateDomain, err)
		default:
			return errors.Join(ErrDuplicateName, err)
		}
	}
	return err
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
