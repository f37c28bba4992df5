// Package billing exposes plan management and per-tenant subscriptions.
// These routes sit on the admin surface alongside tenant management.
package billing

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/invoiceflow/invoiceflow/pkg/respond"
	"github.com/invoiceflow/invoiceflow/svc/billing"
)

// Service is the billing surface the router needs.
type Service interface {
	CreatePlan(ctx context.Context, code, name, description string, priceCents int64, interval string) (billing.Plan, error)
	ListPlans(ctx context.Context) ([]billing.Plan, error)
	Subscribe(ctx context.Context, tenantID uuid.UUID, planCode string) (billing.Subscription, error)
	ForTenant(ctx context.Context, tenantID uuid.UUID) (billing.Subscription, error)
	Cancel(ctx context.Context, tenantID uuid.UUID) (billing.Subscription, error)
}

type module struct {
	svc Service
	log *slog.Logger
}

// Router builds the billing routes.
func Router(svc Service, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	m := &module{svc: svc, log: log}

	r := chi.NewRouter()
	r.Get("/plans", m.listPlans)
	r.Post("/plans", m.createPlan)
	r.Route("/tenants/{tenantID}/subscription", func(sub chi.Router) {
		sub.Get("/", m.getSubscription)
		sub.Put("/", m.subscribe)
		sub.Delete("/", m.cancel)
	})
	return r
}

type createPlanRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	Description string `json:"description"`
	PriceCents  int64  `json:"priceCents"`
	Interval    string `json:"interval"`
}

func (m *module) createPlan(w http.ResponseWriter, r *http.Request) {
	var req createPlanRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	plan, err := m.svc.CreatePlan(r.Context(), req.Code, req.Name, req.Description, req.PriceCents, req.Interval)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, plan)
}

func (m *module) listPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := m.svc.ListPlans(r.Context())
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, plans)
}

type subscribeRequest struct {
	PlanCode string `json:"planCode"`
}

func (m *module) subscribe(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := m.tenantID(w, r)
	if !ok {
		return
	}
	var req subscribeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	sub, err := m.svc.Subscribe(r.Context(), tenantID, req.PlanCode)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, sub)
}

func (m *module) getSubscription(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := m.tenantID(w, r)
	if !ok {
		return
	}
	sub, err := m.svc.ForTenant(r.Context(), tenantID)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, sub)
}

func (m *module) cancel(w http.ResponseWriter, r *http.Request) {
	tenantID, ok := m.tenantID(w, r)
	if !ok {
		return
	}
	sub, err := m.svc.Cancel(r.Context(), tenantID)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, sub)
}

func (m *module) tenantID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "tenantID"))
	if err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_id", "tenant id must be a UUID")
		return uuid.Nil, false
	}
	return id, true
}

func (m *module) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, billing.ErrPlanNotFound):
		respond.Error(w, http.StatusNotFound, "plan_not_found", "plan not found")
	case errors.Is(err, billing.ErrDuplicatePlanCode):
		respond.Error(w, http.StatusConflict, "plan_exists", "plan code already exists")
	case errors.Is(err, billing.ErrNoSubscription):
		respond.Error(w, http.StatusNotFound, "no_subscription", "tenant has no subscription")
	default:
		m.log.ErrorContext(r.Context(), "billing request failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
