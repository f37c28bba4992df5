package main

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceflow/invoiceflow/pkg/tenant"
)

type stubDirectory struct {
	tenant  *tenant.Tenant
	lookups int
}

func (d *stubDirectory) FindByName(_ context.Context, name string) (*tenant.Tenant, error) {
	d.lookups++
	if d.tenant != nil && name == d.tenant.Name {
		return d.tenant, nil
	}
	return nil, tenant.ErrTenantNotFound
}

func (d *stubDirectory) FindByDomain(_ context.Context, domain string) (*tenant.Tenant, error) {
	d.lookups++
	if d.tenant != nil && domain == d.tenant.Domain {
		return d.tenant, nil
	}
	return nil, tenant.ErrTenantNotFound
}

// seen records what actually reached a mounted handler.
type seen struct {
	called bool
	path   string
	schema string
	id     string
}

func ok() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func testRouter(dir *stubDirectory) (chi.Router, *seen) {
	s := &seen{}

	invoices := chi.NewRouter()
	record := func(w http.ResponseWriter, r *http.Request) {
		s.called = true
		s.path = r.URL.Path
		s.id = chi.URLParam(r, "id")
		if t, okT := tenant.FromContext(r.Context()); okT {
			s.schema = t.Schema
		}
		w.WriteHeader(http.StatusOK)
	}
	invoices.Get("/", record)
	invoices.Get("/{id}", record)

	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	opts := []tenant.Option{
		tenant.WithCache(tenant.NewNoOpCache()),
		tenant.WithBypassPaths("/api/auth", "/api/public", "/health", "/api/tenants", "/api/admin", "/api/system"),
		tenant.WithLogger(log),
	}

	r := routes(log, dir, opts, handlers{
		health:         ok(),
		tenants:        ok(),
		systemSettings: ok(),
		adminAccounts:  ok(),
		adminBilling:   ok(),
		invoices:       invoices,
		users:          ok(),
		settings:       ok(),
	})
	return r, s
}

func acme() *tenant.Tenant {
	return &tenant.Tenant{Name: "acme", Schema: "tenant_acme", Domain: "acme.example.com", Active: true}
}

// The path strategy must resolve before the mux matches a route:
// /api/acme/invoices/42 carries the tenant in the path and only becomes a
// routable pattern after the middleware strips the segment.
func TestRoutesPathStrategyReachesMountedHandler(t *testing.T) {
	t.Parallel()

	dir := &stubDirectory{tenant: acme()}
	r, s := testRouter(dir)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/acme/invoices/42", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, s.called)
	assert.Equal(t, "/api/invoices/42", s.path)
	assert.Equal(t, "42", s.id)
	assert.Equal(t, "tenant_acme", s.schema)
}

func TestRoutesHeaderStrategyReachesMountedHandler(t *testing.T) {
	t.Parallel()

	dir := &stubDirectory{tenant: acme()}
	r, s := testRouter(dir)

	req := httptest.NewRequest(http.MethodGet, "/api/invoices", nil)
	req.Header.Set("X-Tenant-ID", "acme")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "/api/invoices", s.path)
	assert.Equal(t, "tenant_acme", s.schema)
}

func TestRoutesBypassSkipsResolution(t *testing.T) {
	t.Parallel()

	dir := &stubDirectory{}
	r, _ := testRouter(dir)

	for _, path := range []string{"/health", "/api/tenants", "/api/admin/accounts", "/api/system/settings"} {
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
		assert.Equal(t, http.StatusOK, rec.Code, "path %s", path)
	}
	assert.Zero(t, dir.lookups)
}

func TestRoutesUnresolvedRejected(t *testing.T) {
	t.Parallel()

	dir := &stubDirectory{tenant: acme()}
	r, s := testRouter(dir)

	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/invoices", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.False(t, s.called)
}
