package tstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/invoiceflow/invoiceflow/pkg/logger"
	"github.com/invoiceflow/invoiceflow/pkg/tenant"
)

// DB is the query surface shared by *pgxpool.Pool and pgx.Tx, so a Store
// can run standalone or join a caller's transaction via WithTx.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TablePlaceholder is the token RawQuery substitutes with the qualified
// table name. Only this internally computed identifier is ever spliced into
// SQL text; all data values travel as bound parameters.
const TablePlaceholder = "{table}"

// Store is the tenant-scoped data-access base shared by every per-tenant
// entity. It carries no tenant state of its own: the schema half of every
// table reference comes from the tenant bound to the call's context, so a
// single Store instance serves all tenants concurrently.
type Store struct {
	db    DB
	table string
	pk    string
	log   *slog.Logger
}

// Option configures a Store.
type Option func(*Store)

// WithPrimaryKey overrides the primary key column. Default "id".
func WithPrimaryKey(column string) Option {
	return func(s *Store) {
		if column != "" {
			s.pk = column
		}
	}
}

// WithLogger sets the logger used to report failed operations.
func WithLogger(log *slog.Logger) Option {
	return func(s *Store) {
		if log != nil {
			s.log = log
		}
	}
}

// New creates a Store for one logical table.
func New(db DB, table string, opts ...Option) *Store {
	s := &Store{
		db:    db,
		table: table,
		pk:    "id",
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// WithTx returns a copy of the Store bound to the given transaction (or any
// other DB). Used by multi-statement operations that must be atomic.
func (s *Store) WithTx(db DB) *Store {
	clone := *s
	clone.db = db
	return &clone
}

// Table returns the logical (unqualified) table name.
func (s *Store) Table() string {
	return s.table
}

// QualifiedTable computes the schema-qualified table name for the tenant
// bound to ctx. It fails with tenant.ErrNoTenantContext when no tenant is
// bound; there is deliberately no fallback to a shared schema.
func (s *Store) QualifiedTable(ctx context.Context) (string, error) {
	schema, ok := tenant.SchemaFromContext(ctx)
	if !ok {
		return "", fmt.Errorf("%w: table %s", tenant.ErrNoTenantContext, s.table)
	}
	return pgx.Identifier{schema, s.table}.Sanitize(), nil
}

// FindByID returns the record with the given primary key, or ErrNotFound.
func (s *Store) FindByID(ctx context.Context, id any) (Record, error) {
	qt, err := s.QualifiedTable(ctx)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("SELECT * FROM %s WHERE %s = $1", qt, sanitizeColumn(s.pk))
	rows, err := s.db.Query(ctx, sql, id)
	if err != nil {
		return nil, s.fail(ctx, "findById", qt, err)
	}

	recs, err := scanRecords(rows)
	if err != nil {
		return nil, s.fail(ctx, "findById", qt, err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// FindOptions shape a Find call. Offset applies only when Limit is set.
type FindOptions struct {
	SortBy   string
	SortDesc bool
	Limit    int
	Offset   int
}

// Find returns records matching all filters exactly (AND-conjunction over
// equality; richer predicates go through RawQuery). Filter keys use the
// external camelCase convention.
func (s *Store) Find(ctx context.Context, filters Record, opts FindOptions) ([]Record, error) {
	qt, err := s.QualifiedTable(ctx)
	if err != nil {
		return nil, err
	}

	where, args, err := buildWhere(filters, 1)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT * FROM %s%s", qt, where)

	if opts.SortBy != "" {
		col, err := toColumn(opts.SortBy)
		if err != nil {
			return nil, err
		}
		dir := "ASC"
		if opts.SortDesc {
			dir = "DESC"
		}
		fmt.Fprintf(&b, " ORDER BY %s %s", col, dir)
	}
	if opts.Limit > 0 {
		fmt.Fprintf(&b, " LIMIT %d", opts.Limit)
		if opts.Offset > 0 {
			fmt.Fprintf(&b, " OFFSET %d", opts.Offset)
		}
	}

	rows, err := s.db.Query(ctx, b.String(), args...)
	if err != nil {
		return nil, s.fail(ctx, "find", qt, err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, s.fail(ctx, "find", qt, err)
	}
	return recs, nil
}

// Count returns the number of records matching the filters.
func (s *Store) Count(ctx context.Context, filters Record) (int64, error) {
	qt, err := s.QualifiedTable(ctx)
	if err != nil {
		return 0, err
	}

	where, args, err := buildWhere(filters, 1)
	if err != nil {
		return 0, err
	}

	var n int64
	sql := fmt.Sprintf("SELECT count(*) FROM %s%s", qt, where)
	if err := s.db.QueryRow(ctx, sql, args...).Scan(&n); err != nil {
		return 0, s.fail(ctx, "count", qt, err)
	}
	return n, nil
}

// Create inserts one record and returns it including server-generated
// columns (primary key, timestamp defaults).
func (s *Store) Create(ctx context.Context, data Record) (Record, error) {
	qt, err := s.QualifiedTable(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	cols, placeholders, args, err := buildInsert(data)
	if err != nil {
		return nil, err
	}

	sql := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
		qt, strings.Join(cols, ", "), strings.Join(placeholders, ", "))
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, s.fail(ctx, "create", qt, err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, s.fail(ctx, "create", qt, err)
	}
	if len(recs) == 0 {
		return nil, s.fail(ctx, "create", qt, errors.New("insert returned no row"))
	}
	return recs[0], nil
}

// Update sets only the given fields on the record matching the primary key
// and returns the updated record, or ErrNotFound if no row matched.
func (s *Store) Update(ctx context.Context, id any, data Record) (Record, error) {
	qt, err := s.QualifiedTable(ctx)
	if err != nil {
		return nil, err
	}
	if len(data) == 0 {
		return nil, ErrEmptyData
	}

	assignments, args, err := buildSet(data, 1)
	if err != nil {
		return nil, err
	}
	args = append(args, id)

	sql := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d RETURNING *",
		qt, strings.Join(assignments, ", "), sanitizeColumn(s.pk), len(args))
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, s.fail(ctx, "update", qt, err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, s.fail(ctx, "update", qt, err)
	}
	if len(recs) == 0 {
		return nil, ErrNotFound
	}
	return recs[0], nil
}

// Delete removes the record matching the primary key and reports whether a
// row was actually removed.
func (s *Store) Delete(ctx context.Context, id any) (bool, error) {
	qt, err := s.QualifiedTable(ctx)
	if err != nil {
		return false, err
	}

	sql := fmt.Sprintf("DELETE FROM %s WHERE %s = $1", qt, sanitizeColumn(s.pk))
	tag, err := s.db.Exec(ctx, sql, id)
	if err != nil {
		return false, s.fail(ctx, "delete", qt, err)
	}
	return tag.RowsAffected() > 0, nil
}

// RawQuery runs a parameterized query after substituting TablePlaceholder
// with the qualified table name, for access patterns the generic CRUD
// cannot express (joins, window counts, upserts). The substituted value is
// always the internally computed, sanitized identifier, never user input.
func (s *Store) RawQuery(ctx context.Context, template string, args ...any) ([]Record, error) {
	qt, err := s.QualifiedTable(ctx)
	if err != nil {
		return nil, err
	}

	sql := strings.ReplaceAll(template, TablePlaceholder, qt)
	rows, err := s.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, s.fail(ctx, "rawQuery", qt, err)
	}
	recs, err := scanRecords(rows)
	if err != nil {
		return nil, s.fail(ctx, "rawQuery", qt, err)
	}
	return recs, nil
}

// RawExec is RawQuery for statements that return no rows.
func (s *Store) RawExec(ctx context.Context, template string, args ...any) (int64, error) {
	qt, err := s.QualifiedTable(ctx)
	if err != nil {
		return 0, err
	}

	sql := strings.ReplaceAll(template, TablePlaceholder, qt)
	tag, err := s.db.Exec(ctx, sql, args...)
	if err != nil {
		return 0, s.fail(ctx, "rawExec", qt, err)
	}
	return tag.RowsAffected(), nil
}

// fail logs the failed operation with its qualified table and returns the
// error unchanged for the caller to classify.
func (s *Store) fail(ctx context.Context, op, qualifiedTable string, err error) error {
	s.log.ErrorContext(ctx, "data access failed",
		logger.Operation(op),
		logger.Table(qualifiedTable),
		logger.Error(err),
	)
	return err
}

// buildWhere renders an AND-conjunction of equality predicates starting at
// placeholder $start. An empty filter set adds no WHERE clause.
func buildWhere(filters Record, start int) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}

	fields := make([]string, 0, len(filters))
	for f := range filters {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	preds := make([]string, 0, len(fields))
	args := make([]any, 0, len(fields))
	for i, f := range fields {
		col, err := toColumn(f)
		if err != nil {
			return "", nil, err
		}
		preds = append(preds, fmt.Sprintf("%s = $%d", col, start+i))
		args = append(args, filters[f])
	}

	return " WHERE " + strings.Join(preds, " AND "), args, nil
}

func buildInsert(data Record) (cols, placeholders []string, args []any, err error) {
	fields := make([]string, 0, len(data))
	for f := range data {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for i, f := range fields {
		col, err := toColumn(f)
		if err != nil {
			return nil, nil, nil, err
		}
		cols = append(cols, col)
		placeholders = append(placeholders, fmt.Sprintf("$%d", i+1))
		args = append(args, data[f])
	}
	return cols, placeholders, args, nil
}

func buildSet(data Record, start int) (assignments []string, args []any, err error) {
	fields := make([]string, 0, len(data))
	for f := range data {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	for i, f := range fields {
		col, err := toColumn(f)
		if err != nil {
			return nil, nil, err
		}
		assignments = append(assignments, fmt.Sprintf("%s = $%d", col, start+i))
		args = append(args, data[f])
	}
	return assignments, args, nil
}
