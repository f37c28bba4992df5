package tenant_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/invoiceflow/invoiceflow/pkg/tenant"
)

func TestContext(t *testing.T) {
	t.Parallel()

	acme := &tenant.Tenant{
		ID:     uuid.New(),
		Name:   "acme",
		Schema: "tenant_acme",
		Active: true,
	}

	t.Run("round trip", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithTenant(context.Background(), acme)

		got, ok := tenant.FromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, acme, got)

		id, ok := tenant.IDFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, acme.ID, id)

		schema, ok := tenant.SchemaFromContext(ctx)
		require.True(t, ok)
		assert.Equal(t, "tenant_acme", schema)
	})

	t.Run("empty context", func(t *testing.T) {
		t.Parallel()

		_, ok := tenant.FromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.IDFromContext(context.Background())
		assert.False(t, ok)

		_, ok = tenant.SchemaFromContext(context.Background())
		assert.False(t, ok)
	})

	t.Run("nil tenant is not a binding", func(t *testing.T) {
		t.Parallel()

		ctx := tenant.WithTenant(context.Background(), nil)
		_, ok := tenant.FromContext(ctx)
		assert.False(t, ok)
	})

	t.Run("nested binding shadows outer", func(t *testing.T) {
		t.Parallel()

		inner := &tenant.Tenant{ID: uuid.New(), Name: "globex", Schema: "tenant_globex"}

		outerCtx := tenant.WithTenant(context.Background(), acme)
		innerCtx := tenant.WithTenant(outerCtx, inner)

		got, ok := tenant.FromContext(innerCtx)
		require.True(t, ok)
		assert.Equal(t, "tenant_globex", got.Schema)

		// The outer context is untouched by the nested binding.
		got, ok = tenant.FromContext(outerCtx)
		require.True(t, ok)
		assert.Equal(t, "tenant_acme", got.Schema)
	})

	t.Run("must panics without tenant", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			tenant.MustFromContext(context.Background())
		})
		assert.NotPanics(t, func() {
			tenant.MustFromContext(tenant.WithTenant(context.Background(), acme))
		})
	})

	t.Run("concurrent contexts stay isolated", func(t *testing.T) {
		t.Parallel()

		const n = 50
		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()

				own := &tenant.Tenant{ID: uuid.New(), Schema: "tenant_" + uuid.NewString()[:8]}
				ctx := tenant.WithTenant(context.Background(), own)

				got, ok := tenant.FromContext(ctx)
				assert.True(t, ok)
				assert.Equal(t, own.ID, got.ID)
			}()
		}
		wg.Wait()
	})
}

func TestLoggerExtractor(t *testing.T) {
	t.Parallel()

	extract := tenant.LoggerExtractor()

	_, ok := extract(context.Background())
	assert.False(t, ok)

	id := uuid.New()
	ctx := tenant.WithTenant(context.Background(), &tenant.Tenant{ID: id})
	attr, ok := extract(ctx)
	require.True(t, ok)
	assert.Equal(t, "tenant_id", attr.Key)
	assert.Equal(t, id.String(), attr.Value.String())
}
