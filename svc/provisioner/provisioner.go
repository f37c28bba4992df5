package provisioner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoiceflow/invoiceflow/pkg/logger"
	"github.com/invoiceflow/invoiceflow/pkg/slug"
	"github.com/invoiceflow/invoiceflow/pkg/tenant"
	"github.com/invoiceflow/invoiceflow/svc/directory"
)

// schemaPrefix guarantees derived names are valid identifiers even for
// tenant names starting with a digit, and keeps tenant schemas visually
// distinct from public in psql.
const schemaPrefix = "tenant_"

// maxSlugLength keeps the full schema name under PostgreSQL's 63-byte
// identifier limit with the prefix applied.
const maxSlugLength = 48

// DeriveSchemaName maps a tenant display name to its schema name. The
// derivation is deterministic and idempotent: "Acme Corp" always yields
// "tenant_acme_corp". Distinct names that normalize to the same slug are
// rejected at provisioning time as collisions.
func DeriveSchemaName(name string) (string, error) {
	s := slug.Make(name, slug.Separator("_"), slug.MaxLength(maxSlugLength))
	if s == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidTenantName, name)
	}
	return schemaPrefix + s, nil
}

// Provisioner creates isolated tenant schemas and registers them in the
// global directory as one atomic unit.
type Provisioner struct {
	pool *pgxpool.Pool
	log  *slog.Logger
}

func New(pool *pgxpool.Pool, log *slog.Logger) *Provisioner {
	if log == nil {
		log = slog.Default()
	}
	return &Provisioner{pool: pool, log: log}
}

// Provision creates the tenant: directory row, schema, and the four
// tenant-scoped tables with their constraints, all in one transaction.
// Either everything commits or nothing does; a failed provisioning leaves
// no orphaned directory row and no orphaned schema.
func (p *Provisioner) Provision(ctx context.Context, name, domain string) (*tenant.Tenant, error) {
	schemaName, err := DeriveSchemaName(name)
	if err != nil {
		return nil, err
	}

	tx, err := p.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	// Rollback is a no-op after a successful commit, and the deferred call
	// covers every error path including panics.
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			p.log.ErrorContext(ctx, "provisioning rollback failed",
				logger.Component("provisioner"),
				logger.Schema(schemaName),
				logger.Error(err),
			)
		}
	}()

	exists, err := directory.Exists(ctx, tx, name, schemaName)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: %q", ErrTenantAlreadyExists, name)
	}

	t, err := directory.Create(ctx, tx, directory.CreateParams{
		Name:   name,
		Schema: schemaName,
		Domain: domain,
	})
	if err != nil {
		// A concurrent provisioning of the same name can slip between the
		// existence check and the insert; the unique constraints win.
		if errors.Is(err, directory.ErrDuplicateName) || errors.Is(err, directory.ErrDuplicateSchema) {
			return nil, fmt.Errorf("%w: %q", ErrTenantAlreadyExists, name)
		}
		return nil, err
	}

	if err := createSchema(ctx, tx, schemaName); err != nil {
		p.log.ErrorContext(ctx, "schema creation failed, rolling back",
			logger.Component("provisioner"),
			logger.Schema(schemaName),
			logger.Error(err),
		)
		return nil, errors.Join(ErrSchemaCreationFailed, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Join(ErrSchemaCreationFailed, err)
	}

	p.log.InfoContext(ctx, "tenant provisioned",
		logger.Component("provisioner"),
		logger.TenantID(t.ID),
		logger.Schema(schemaName),
	)
	return t, nil
}

func createSchema(ctx context.Context, tx pgx.Tx, schemaName string) error {
	ident := pgx.Identifier{schemaName}.Sanitize()

	if _, err := tx.Exec(ctx, "CREATE SCHEMA IF NOT EXISTS "+ident); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}

	for _, table := range TableNames() {
		ddl := strings.ReplaceAll(tenantTableDDL[table], "{schema}", ident)
		if _, err := tx.Exec(ctx, ddl); err != nil {
			return fmt.Errorf("create table %s: %w", table, err)
		}
	}

	return nil
}
