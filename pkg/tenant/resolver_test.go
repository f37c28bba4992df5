package tenant_test

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceflow/invoiceflow/pkg/tenant"
)

func TestSubdomainResolver(t *testing.T) {
	t.Parallel()

	t.Run("resolves first label", func(t *testing.T) {
		t.Parallel()

		resolve := tenant.NewSubdomainResolver("")
		req := httptest.NewRequest("GET", "/api/invoices", nil)
		req.Host = "acme.app.example.com"

		match, err := resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", match.Identifier)
		assert.Equal(t, tenant.StrategySubdomain, match.Strategy)
	})

	t.Run("ignores port", func(t *testing.T) {
		t.Parallel()

		resolve := tenant.NewSubdomainResolver("")
		req := httptest.NewRequest("GET", "/", nil)
		req.Host = "acme.app.example.com:8443"

		match, err := resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", match.Identifier)
	})

	t.Run("not applicable", func(t *testing.T) {
		t.Parallel()

		for _, host := range []string{
			"example.com",
			"localhost",
			"localhost:3000",
			"127.0.0.1",
			"127.0.0.1:8080",
			"www.app.example.com",
		} {
			resolve := tenant.NewSubdomainResolver("")
			req := httptest.NewRequest("GET", "/", nil)
			req.Host = host

			match, err := resolve(req)
			require.NoError(t, err, host)
			assert.Empty(t, match.Identifier, host)
		}
	})

	t.Run("invalid label", func(t *testing.T) {
		t.Parallel()

		resolve := tenant.NewSubdomainResolver("")
		req := httptest.NewRequest("GET", "/", nil)
		req.Host = "-bad.app.example.com"

		_, err := resolve(req)
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})
}

func TestHeaderResolver(t *testing.T) {
	t.Parallel()

	t.Run("resolves header value", func(t *testing.T) {
		t.Parallel()

		resolve := tenant.NewHeaderResolver("")
		req := httptest.NewRequest("GET", "/api/invoices", nil)
		req.Header.Set("X-Tenant-ID", "  acme  ")

		match, err := resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "acme", match.Identifier)
		assert.Equal(t, tenant.StrategyHeader, match.Strategy)
	})

	t.Run("custom header name", func(t *testing.T) {
		t.Parallel()

		resolve := tenant.NewHeaderResolver("X-Org")
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Org", "globex")

		match, err := resolve(req)
		require.NoError(t, err)
		assert.Equal(t, "globex", match.Identifier)
	})

	t.Run("missing header not applicable", func(t *testing.T) {
		t.Parallel()

		resolve := tenant.NewHeaderResolver("")
		match, err := resolve(httptest.NewRequest("GET", "/", nil))
		require.NoError(t, err)
		assert.Empty(t, match.Identifier)
	})

	t.Run("invalid value", func(t *testing.T) {
		t.Parallel()

		resolve := tenant.NewHeaderResolver("")
		req := httptest.NewRequest("GET", "/", nil)
		req.Header.Set("X-Tenant-ID", "acme; DROP TABLE tenants")

		_, err := resolve(req)
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})
}

func TestPathResolver(t *testing.T) {
	t.Parallel()

	resolve := tenant.NewPathResolver("/api", nil)

	t.Run("resolves segment after prefix", func(t *testing.T) {
		t.Parallel()

		match, err := resolve(httptest.NewRequest("GET", "/api/acme/invoices/42", nil))
		require.NoError(t, err)
		assert.Equal(t, "acme", match.Identifier)
		assert.Equal(t, tenant.StrategyPath, match.Strategy)
	})

	t.Run("reserved segments never resolve", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{
			"/api/users/7",
			"/api/invoices",
			"/api/auth/login",
			"/api/tenants",
			"/api/settings/theme",
			"/api/health",
		} {
			match, err := resolve(httptest.NewRequest("GET", path, nil))
			require.NoError(t, err, path)
			assert.Empty(t, match.Identifier, path)
		}
	})

	t.Run("outside prefix not applicable", func(t *testing.T) {
		t.Parallel()

		for _, path := range []string{"/", "/health", "/api", "/other/acme"} {
			match, err := resolve(httptest.NewRequest("GET", path, nil))
			require.NoError(t, err, path)
			assert.Empty(t, match.Identifier, path)
		}
	})

	t.Run("invalid segment", func(t *testing.T) {
		t.Parallel()

		_, err := resolve(httptest.NewRequest("GET", "/api/_bad/invoices", nil))
		assert.ErrorIs(t, err, tenant.ErrInvalidIdentifier)
	})
}

func TestStripPathSegment(t *testing.T) {
	t.Parallel()

	cases := []struct {
		path string
		want string
	}{
		{"/api/acme/invoices/42", "/api/invoices/42"},
		{"/api/acme/users", "/api/users"},
		{"/api/acme", "/api"},
		{"/api/other/invoices", "/api/other/invoices"},
		{"/health", "/health"},
	}
	for _, tc := range cases {
		got := tenant.StripPathSegment(tc.path, "/api", "acme")
		assert.Equal(t, tc.want, got, tc.path)
	}
}
