package invoice

import (
	"context"
	"log/slog"
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

type fakeResult struct {
	cols []string
	rows [][]any
}

// fakeDB serves queued results in order, one per Query call, so a test can
// script the page query and the follow-up count separately.
type fakeDB struct {
	queries []dbCall
	results []fakeResult
}

func (f *fakeDB) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}

func (f *fakeDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	f.queries = append(f.queries, dbCall{sql: sql, args: args})
	var res fakeResult
	if len(f.results) > 0 {
		res = f.results[0]
		f.results = f.results[1:]
	}
	return &fakeRows{cols: res.cols, rows: res.rows}, nil
}

func (f *fakeDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	f.queries = append(f.queries, dbCall{sql: sql, args: args})
	return nil
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
func (r *fakeRows) Scan(dest ...any) error { return nil }
func (r *fakeRows) Values() ([]any, error) { return r.rows[r.idx-1], nil }
func (r *fakeRows) RawValues() [][]byte    { return nil }
func (r *fakeRows) Conn() *pgx.Conn        { return nil }

func filterService(db *fakeDB) *Service {
	log := slog.Default()
	return &Service{
		invoices: tstore.New(db, "invoices", tstore.WithLogger(log)),
		items:    tstore.New(db, "invoice_items", tstore.WithLogger(log)),
		log:      log,
	}
}

func tenantCtx() context.Context {
	return tenant.WithTenant(context.Background(), &tenant.Tenant{
		Name:   "acme",
		Schema: "tenant_acme",
		Active: true,
	})
}

func TestFindWithFilters(t *testing.T) {
	t.Parallel()

	t.Run("total rides along as window count", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{results: []fakeResult{{
			cols: []string{"id", "vendor", "total_count"},
			rows: [][]any{
				{"1", "Initech", int64(42)},
				{"2", "Hooli", int64(42)},
			},
		}}}
		svc := filterService(db)

		page, err := svc.FindWithFilters(tenantCtx(), Filters{Status: "Pending", Limit: 2})
		require.NoError(t, err)

		require.Len(t, db.queries, 1)
		assert.Equal(t,
			`SELECT *, count(*) OVER() AS total_count FROM "tenant_acme"."invoices" WHERE status = $1 ORDER BY date DESC, created_at DESC LIMIT 2 OFFSET 0`,
			db.queries[0].sql)

		assert.EqualValues(t, 42, page.Total)
		assert.Equal(t, 21, page.TotalPages)
		require.Len(t, page.Invoices, 2)
		assert.NotContains(t, page.Invoices[0], "totalCount")
	})

	t.Run("page past the end still reports the real total", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{results: []fakeResult{
			{}, // page 5 of a 30-row result: no rows, no window count
			{cols: []string{"total_count"}, rows: [][]any{{int64(30)}}},
		}}
		svc := filterService(db)

		page, err := svc.FindWithFilters(tenantCtx(), Filters{Status: "Pending", Page: 5, Limit: 10})
		require.NoError(t, err)

		require.Len(t, db.queries, 2)
		assert.Equal(t,
			`SELECT count(*) AS total_count FROM "tenant_acme"."invoices" WHERE status = $1`,
			db.queries[1].sql)
		assert.Equal(t, db.queries[0].args, db.queries[1].args)

		assert.Empty(t, page.Invoices)
		assert.EqualValues(t, 30, page.Total)
		assert.Equal(t, 3, page.TotalPages)
		assert.Equal(t, 5, page.Page)
	})

	t.Run("empty first page skips the recount", func(t *testing.T) {
		t.Parallel()

		db := &fakeDB{results: []fakeResult{{}}}
		svc := filterService(db)

		page, err := svc.FindWithFilters(tenantCtx(), Filters{})
		require.NoError(t, err)

		assert.Len(t, db.queries, 1)
		assert.Zero(t, page.Total)
		assert.Zero(t, page.TotalPages)
	})
}
