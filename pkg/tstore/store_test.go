package tstore_test

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceflow/invoiceflow/pkg/tenant"
	"github.com/invoiceflow/invoiceflow/pkg/tstore"
)

type dbCall struct {
	sql  string
	args []any
}

// fakeDB captures every statement and serves canned rows, so tests can
// assert the exact SQL a Store emits without a database.
type fakeDB struct {
	queries []dbCall
	execs   []dbCall

	cols    []string
	rows    [][]any
	execTag pgconn.CommandTag
	scanInt int64
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.execs = append(f.execs, dbCall{sql: sql, args: args})
	return f.execTag, nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, dbCall{sql: sql, args: args})
	return &fakeRows{cols: f.cols, rows: f.rows}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, dbCall{sql: sql, args: args})
	return fakeRow{value: f.scanInt}
}

type fakeRows struct {
	cols []string
	rows [][]any
	idx  int
}

func (r *fakeRows) Close()                        {}
func (r *fakeRows) Err() error                    { return nil }
func (r *fakeRows) CommandTag() pgconn.CommandTag { return pgconn.CommandTag{} }
func (r *fakeRows) FieldDescriptions() []pgconn.FieldDescription {
	fds := make([]pgconn.FieldDescription, len(r.cols))
	for i, c := range r.cols {
		fds[i].Name = c
	}
	return fds
}
func (r *fakeRows) Next() bool {
	r.idx++
	return r.idx <= len(r.rows)
}
func (r *fakeRows) Scan(dest ...any) error { return errors.New("scan not supported") }
func (r *fakeRows) Values() ([]any, error) { return r.rows[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

type fakeRow struct {
	value int64
}

func (r fakeRow) Scan(dest ...any) error {
	if p, ok := dest[0].(*int64); ok {
		*p = r.value
	}
	return nil
}

func tenantCtx(schema string) context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{
		Name:   "acme",
		Schema: schema,
		Active: true,
	})
}

func TestStoreRequiresTenantContext(t *testing.T) {
	t.Parallel()

	db := &fakeDB{}
	store := tstore.New(db, "invoices")
	ctx := context.Background()

	_, err := store.FindByID(ctx, "42")
	assert.ErrorIs(t, err, tenant.ErrNoTenantContext)

	_, err = store.Find(ctx, nil, tstore.FindOptions{})
	assert.ErrorIs(t, err, tenant.ErrNoTenantContext)

	_, err = store.Count(ctx, nil)
	assert.ErrorIs(t, err, tenant.ErrNoTenantContext)

	_, err = store.Create(ctx, tstore.Record{"vendor": "x"})
	assert.ErrorIs(t, err, tenant.ErrNoTenantContext)

	_, err = store.Update(ctx, "42", tstore.Record{"vendor": "x"})
	assert.ErrorIs(t, err, tenant.ErrNoTenantContext)

	_, err = store.Delete(ctx, "42")
	assert.ErrorIs(t, err, tenant.ErrNoTenantContext)

	_, err = store.RawQuery(ctx, "SELECT * FROM {table}")
	assert.ErrorIs(t, err, tenant.ErrNoTenantContext)

	// Nothing may reach the database without a tenant.
	assert.Empty(t, db.queries)
	assert.Empty(t, db.execs)
}

func TestStoreFindByID(t *testing.T) {
	t.Parallel()

	db := &fakeDB{
		cols: []string{"id", "vendor", "gst_filing_status"},
		rows: [][]any{{"42", "Initech", "filed"}},
	}
	store := tstore.New(db, "invoices")

	rec, err := store.FindByID(tenantCtx("tenant_acme"), "42")
	require.NoError(t, err)

	require.Len(t, db.queries, 1)
	assert.Equal(t, `SELECT * FROM "tenant_acme"."invoices" WHERE id = $1`, db.queries[0].sql)
	assert.Equal(t, []any{"42"}, db.queries[0].args)

	// Columns come back in the external camelCase convention.
	assert.Equal(t, tstore.Record{
		"id":              "42",
		"vendor":          "Initech",
		"gstFilingStatus": "filed",
	}, rec)
}

func TestStoreFindByIDNotFound(t *testing.T) {
	t.Parallel()

	db := &fakeDB{cols: []string{"id"}}
	store := tstore.New(db, "invoices")

	_, err := store.FindByID(tenantCtx("tenant_acme"), "missing")
	assert.ErrorIs(t, err, tstore.ErrNotFound)
}

func TestStoreFind(t *testing.T) {
	t.Parallel()

	t.Run("filters and options", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{cols: []string{"id"}}
		store := tstore.New(db, "invoices")

		_, err := store.Find(tenantCtx("tenant_acme"),
			tstore.Record{"status": "Pending", "category": "sales"},
			tstore.FindOptions{SortBy: "createdAt", SortDesc: true, Limit: 10, Offset: 20},
		)
		require.NoError(t, err)

		require.Len(t, db.queries, 1)
		assert.Equal(t,
			`SELECT * FROM "tenant_acme"."invoices" WHERE category = $1 AND status = $2 ORDER BY created_at DESC LIMIT 10 OFFSET 20`,
			db.queries[0].sql)
		assert.Equal(t, []any{"sales", "Pending"}, db.queries[0].args)
	})

	t.Run("no filters", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{cols: []string{"id"}}
		store := tstore.New(db, "users")

		_, err := store.Find(tenantCtx("tenant_acme"), nil, tstore.FindOptions{})
		require.NoError(t, err)
		assert.Equal(t, `SELECT * FROM "tenant_acme"."users"`, db.queries[0].sql)
	})

	t.Run("rejects invalid filter field", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{}
		store := tstore.New(db, "invoices")

		_, err := store.Find(tenantCtx("tenant_acme"),
			tstore.Record{"vendor; DROP TABLE": "x"}, tstore.FindOptions{})
		assert.ErrorIs(t, err, tstore.ErrInvalidFieldName)
		assert.Empty(t, db.queries)
	})

	t.Run("rejects invalid sort field", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{}
		store := tstore.New(db, "invoices")

		_, err := store.Find(tenantCtx("tenant_acme"), nil,
			tstore.FindOptions{SortBy: "created_at; --"})
		assert.ErrorIs(t, err, tstore.ErrInvalidFieldName)
		assert.Empty(t, db.queries)
	})
}

func TestStoreCount(t *testing.T) {
	t.Parallel()

	db := &fakeDB{scanInt: 7}
	store := tstore.New(db, "invoices")

	n, err := store.Count(tenantCtx("tenant_acme"), tstore.Record{"status": "Pending"})
	require.NoError(t, err)
	assert.Equal(t, int64(7), n)
	assert.Equal(t, `SELECT count(*) FROM "tenant_acme"."invoices" WHERE status = $1`, db.queries[0].sql)
}

func TestStoreCreate(t *testing.T) {
	t.Parallel()

	t.Run("builds deterministic insert", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{
			cols: []string{"id", "vendor", "amount"},
			rows: [][]any{{"1", "Initech", 99.5}},
		}
		store := tstore.New(db, "invoices")

		rec, err := store.Create(tenantCtx("tenant_acme"), tstore.Record{
			"vendor": "Initech",
			"amount": 99.5,
		})
		require.NoError(t, err)

		assert.Equal(t,
			`INSERT INTO "tenant_acme"."invoices" (amount, vendor) VALUES ($1, $2) RETURNING *`,
			db.queries[0].sql)
		assert.Equal(t, []any{99.5, "Initech"}, db.queries[0].args)
		assert.Equal(t, "1", rec["id"])
	})

	t.Run("rejects empty data", func(t *testing.T) {
		t.Parallel()

		store := tstore.New(&fakeDB{}, "invoices")
		_, err := store.Create(tenantCtx("tenant_acme"), tstore.Record{})
		assert.ErrorIs(t, err, tstore.ErrEmptyData)
	})
}

func TestStoreUpdate(t *testing.T) {
	t.Parallel()

	t.Run("partial update returns row", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{
			cols: []string{"id", "status"},
			rows: [][]any{{"42", "Processed"}},
		}
		store := tstore.New(db, "invoices")

		rec, err := store.Update(tenantCtx("tenant_acme"), "42", tstore.Record{"status": "Processed"})
		require.NoError(t, err)

		assert.Equal(t,
			`UPDATE "tenant_acme"."invoices" SET status = $1 WHERE id = $2 RETURNING *`,
			db.queries[0].sql)
		assert.Equal(t, []any{"Processed", "42"}, db.queries[0].args)
		assert.Equal(t, "Processed", rec["status"])
	})

	t.Run("no matching row", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{cols: []string{"id"}}
		store := tstore.New(db, "invoices")

		_, err := store.Update(tenantCtx("tenant_acme"), "missing", tstore.Record{"status": "x"})
		assert.ErrorIs(t, err, tstore.ErrNotFound)
	})
}

func TestStoreDelete(t *testing.T) {
	t.Parallel()

	t.Run("deleted", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 1")}
		store := tstore.New(db, "invoices")

		ok, err := store.Delete(tenantCtx("tenant_acme"), "42")
		require.NoError(t, err)
		assert.True(t, ok)
		assert.Equal(t, `DELETE FROM "tenant_acme"."invoices" WHERE id = $1`, db.execs[0].sql)
	})

	t.Run("nothing deleted", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{execTag: pgconn.NewCommandTag("DELETE 0")}
		store := tstore.New(db, "invoices")

		ok, err := store.Delete(tenantCtx("tenant_acme"), "42")
		require.NoError(t, err)
		assert.False(t, ok)
	})
}

func TestStoreRaw(t *testing.T) {
	t.Parallel()

	db := &fakeDB{cols: []string{"id"}}
	store := tstore.New(db, "invoice_items")
	ctx := tenantCtx("tenant_acme")

	_, err := store.RawQuery(ctx, "SELECT * FROM {table} WHERE invoice_id = $1", "42")
	require.NoError(t, err)
	assert.Equal(t, `SELECT * FROM "tenant_acme"."invoice_items" WHERE invoice_id = $1`, db.queries[0].sql)
	assert.Equal(t, []any{"42"}, db.queries[0].args)

	db.execTag = pgconn.NewCommandTag("DELETE 3")
	n, err := store.RawExec(ctx, "DELETE FROM {table} WHERE invoice_id = $1", "42")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.Equal(t, `DELETE FROM "tenant_acme"."invoice_items" WHERE invoice_id = $1`, db.execs[0].sql)
}

func TestStoreSchemaIsolation(t *testing.T) {
	t.Parallel()

	db := &fakeDB{cols: []string{"id"}}
	store := tstore.New(db, "invoices")

	_, err := store.Find(tenantCtx("tenant_acme"), nil, tstore.FindOptions{})
	require.NoError(t, err)
	_, err = store.Find(tenantCtx("tenant_globex"), nil, tstore.FindOptions{})
	require.NoError(t, err)

	// Same store value, different schema per call: isolation comes from the
	// context, not store state.
	assert.Equal(t, `SELECT * FROM "tenant_acme"."invoices"`, db.queries[0].sql)
	assert.Equal(t, `SELECT * FROM "tenant_globex"."invoices"`, db.queries[1].sql)
}

func TestStoreWithTx(t *testing.T) {
	t.Parallel()

	pool := &fakeDB{cols: []string{"id"}}
	tx := &fakeDB{cols: []string{"id"}, rows: [][]any{{"1"}}}
	store := tstore.New(pool, "invoices")

	_, err := store.WithTx(tx).Create(tenantCtx("tenant_acme"), tstore.Record{"vendor": "x"})
	require.NoError(t, err)

	assert.Empty(t, pool.queries)
	require.Len(t, tx.queries, 1)
}
