// Package tenants exposes the tenant lifecycle API: provisioning,
// listing, inspection and activation changes. These routes operate on the
// global registry and are mounted outside the tenant-resolution middleware.
package tenants

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/invoiceflow/invoiceflow/pkg/respond"
	"github.com/invoiceflow/invoiceflow/pkg/tenant"
	"github.com/invoiceflow/invoiceflow/svc/directory"
	"github.com/invoiceflow/invoiceflow/svc/provisioner"
)

// Provisioner creates a tenant schema and its registry row atomically.
type Provisioner interface {
	Provision(ctx context.Context, name, domain string) (*tenant.Tenant, error)
}

// Registry is the read/update surface of the tenant directory.
type Registry interface {
	FindByID(ctx context.Context, id uuid.UUID) (*tenant.Tenant, error)
	List(ctx context.Context, opts directory.ListOptions) ([]tenant.Tenant, error)
	Update(ctx context.Context, id uuid.UUID, params directory.UpdateParams) (*tenant.Tenant, error)
}

type module struct {
	provisioner Provisioner
	registry    Registry
	log         *slog.Logger
}

// Router builds the tenant management routes.
func Router(p Provisioner, r Registry, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	m := &module{provisioner: p, registry: r, log: log}

	router := chi.NewRouter()
	router.Post("/", m.create)
	router.Get("/", m.list)
	router.Get("/{id}", m.get)
	router.Patch("/{id}", m.update)
	return router
}

type createRequest struct {
	Name   string `json:"name"`
	Domain string `json:"domain"`
}

func (m *module) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	t, err := m.provisioner.Provision(r.Context(), req.Name, req.Domain)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, t)
}

func (m *module) list(w http.ResponseWriter, r *http.Request) {
	opts := directory.ListOptions{
		SortBy: r.URL.Query().Get("sortBy"),
		Desc:   r.URL.Query().Get("order") == "desc",
	}
	tenants, err := m.registry.List(r.Context(), opts)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, tenants)
}

func (m *module) get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_id", "tenant id must be a UUID")
		return
	}
	t, err := m.registry.FindByID(r.Context(), id)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

type updateRequest struct {
	Domain *string `json:"domain"`
	Active *bool   `json:"active"`
}

func (m *module) update(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_id", "tenant id must be a UUID")
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}

	t, err := m.registry.Update(r.Context(), id, directory.UpdateParams{
		Domain: req.Domain,
		Active: req.Active,
	})
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, t)
}

func (m *module) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, provisioner.ErrTenantAlreadyExists):
		respond.Error(w, http.StatusConflict, "tenant_exists", "a tenant with this name already exists")
	case errors.Is(err, provisioner.ErrInvalidTenantName):
		respond.Error(w, http.StatusBadRequest, "invalid_name", "tenant name yields no valid schema identifier")
	case errors.Is(err, directory.ErrDuplicateDomain):
		respond.Error(w, http.StatusConflict, "domain_taken", "domain is already assigned to another tenant")
	case errors.Is(err, directory.ErrNothingToUpdate):
		respond.Error(w, http.StatusBadRequest, "empty_update", "no updatable fields in request")
	case errors.Is(err, directory.ErrInvalidSortField):
		respond.Error(w, http.StatusBadRequest, "invalid_sort", "unsupported sort field")
	case errors.Is(err, tenant.ErrTenantNotFound):
		respond.Error(w, http.StatusNotFound, "tenant_not_found", "tenant not found")
	default:
		m.log.ErrorContext(r.Context(), "tenant request failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
