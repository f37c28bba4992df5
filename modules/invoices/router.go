// Package invoices exposes the tenant-scoped invoice API. Every route
// requires a resolved tenant on the request context; data access is routed
// to that tenant's schema by the store layer.
package invoices

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/invoiceflow/invoiceflow/pkg/respond"
	"github.com/invoiceflow/invoiceflow/pkg/tenant"
	"github.com/invoiceflow/invoiceflow/pkg/tstore"
	"github.com/invoiceflow/invoiceflow/svc/invoice"
)

// Service is the invoice operations surface the router needs.
type Service interface {
	CreateWithItems(ctx context.Context, data tstore.Record, items []tstore.Record) (tstore.Record, error)
	UpdateWithItems(ctx context.Context, id any, data tstore.Record, items []tstore.Record) (tstore.Record, error)
	FindByIDWithItems(ctx context.Context, id any) (tstore.Record, error)
	FindWithFilters(ctx context.Context, f invoice.Filters) (*invoice.Page, error)
	Delete(ctx context.Context, id any) (bool, error)
}

type module struct {
	svc Service
	log *slog.Logger
}

// Router builds the invoice routes.
func Router(svc Service, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	m := &module{svc: svc, log: log}

	r := chi.NewRouter()
	r.Get("/", m.list)
	r.Post("/", m.create)
	r.Get("/{id}", m.get)
	r.Put("/{id}", m.update)
	r.Delete("/{id}", m.remove)
	return r
}

func (m *module) list(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	limit, _ := strconv.Atoi(q.Get("limit"))

	filters := invoice.Filters{
		Category:        q.Get("category"),
		Status:          q.Get("status"),
		UserID:          q.Get("userId"),
		Organization:    q.Get("organization"),
		GSTFilingStatus: q.Get("gstFilingStatus"),
		DateFrom:        q.Get("dateFrom"),
		DateTo:          q.Get("dateTo"),
		Search:          q.Get("search"),
		Page:            page,
		Limit:           limit,
	}

	result, err := m.svc.FindWithFilters(r.Context(), filters)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSONMeta(w, http.StatusOK, result.Invoices, map[string]any{
		"total":      result.Total,
		"page":       result.Page,
		"limit":      result.Limit,
		"totalPages": result.TotalPages,
	})
}

func (m *module) create(w http.ResponseWriter, r *http.Request) {
	data, items, ok := decodePayload(w, r)
	if !ok {
		return
	}
	rec, err := m.svc.CreateWithItems(r.Context(), data, items)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, rec)
}

func (m *module) get(w http.ResponseWriter, r *http.Request) {
	rec, err := m.svc.FindByIDWithItems(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

func (m *module) update(w http.ResponseWriter, r *http.Request) {
	data, items, ok := decodePayload(w, r)
	if !ok {
		return
	}
	rec, err := m.svc.UpdateWithItems(r.Context(), chi.URLParam(r, "id"), data, items)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

func (m *module) remove(w http.ResponseWriter, r *http.Request) {
	deleted, err := m.svc.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	if !deleted {
		respond.Error(w, http.StatusNotFound, "invoice_not_found", "invoice not found")
		return
	}
	respond.NoContent(w)
}

// decodePayload splits the request body into invoice fields and the items
// list. A payload without an items key leaves items nil, which update
// handlers treat as "patch invoice only".
func decodePayload(w http.ResponseWriter, r *http.Request) (tstore.Record, []tstore.Record, bool) {
	var body tstore.Record
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return nil, nil, false
	}

	var items []tstore.Record
	if raw, present := body["items"]; present {
		list, ok := raw.([]any)
		if !ok {
			respond.Error(w, http.StatusBadRequest, "invalid_items", "items must be an array")
			return nil, nil, false
		}
		items = make([]tstore.Record, 0, len(list))
		for _, entry := range list {
			fields, ok := entry.(map[string]any)
			if !ok {
				respond.Error(w, http.StatusBadRequest, "invalid_items", "each item must be an object")
				return nil, nil, false
			}
			items = append(items, tstore.Record(fields))
		}
		delete(body, "items")
	}
	return body, items, true
}

func (m *module) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, tstore.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "invoice_not_found", "invoice not found")
	case errors.Is(err, tstore.ErrEmptyData):
		respond.Error(w, http.StatusBadRequest, "empty_body", "no fields to write")
	case errors.Is(err, tstore.ErrInvalidFieldName):
		respond.Error(w, http.StatusBadRequest, "invalid_field", "field name is not a valid column")
	case errors.Is(err, tenant.ErrNoTenantContext):
		m.log.ErrorContext(r.Context(), "tenant context missing on invoice route", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal", "internal server error")
	default:
		m.log.ErrorContext(r.Context(), "invoice request failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
