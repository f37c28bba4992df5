// Package settings exposes the tenant configuration API backed by each
// tenant's tenant_config table.
package settings

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invoiceflow/invoiceflow/pkg/respond"
	"github.com/invoiceflow/invoiceflow/pkg/tstore"
	"github.com/invoiceflow/invoiceflow/svc/settings"
)

// Service is the tenant settings surface the router needs.
type Service interface {
	GetSetting(ctx context.Context, key string) (tstore.Record, error)
	SetSetting(ctx context.Context, key, value string, description *string) (tstore.Record, error)
}

type module struct {
	svc Service
	log *slog.Logger
}

// Router builds the tenant settings routes.
func Router(svc Service, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	m := &module{svc: svc, log: log}

	r := chi.NewRouter()
	r.Get("/{key}", m.get)
	r.Put("/{key}", m.set)
	return r
}

func (m *module) get(w http.ResponseWriter, r *http.Request) {
	rec, err := m.svc.GetSetting(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

type setRequest struct {
	Value       string  `json:"value"`
	Description *string `json:"description"`
}

func (m *module) set(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	rec, err := m.svc.SetSetting(r.Context(), chi.URLParam(r, "key"), req.Value, req.Description)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

func (m *module) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, settings.ErrSettingNotFound):
		respond.Error(w, http.StatusNotFound, "setting_not_found", "setting not found")
	default:
		m.log.ErrorContext(r.Context(), "settings request failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

// SystemService is the platform-wide settings surface, backed by the public
// schema rather than a tenant schema.
type SystemService interface {
	GetSetting(ctx context.Context, key string) (string, error)
	SetSetting(ctx context.Context, key, value string, description *string) error
}

type systemModule struct {
	svc SystemService
	log *slog.Logger
}

// SystemRouter builds the system settings routes. Mounted on the admin
// surface, outside tenant resolution.
func SystemRouter(svc SystemService, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	m := &systemModule{svc: svc, log: log}

	r := chi.NewRouter()
	r.Get("/{key}", m.get)
	r.Put("/{key}", m.set)
	return r
}

func (m *systemModule) get(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	value, err := m.svc.GetSetting(r.Context(), key)
	if err != nil {
		if errors.Is(err, settings.ErrSettingNotFound) {
			respond.Error(w, http.StatusNotFound, "setting_not_found", "setting not found")
			return
		}
		m.log.ErrorContext(r.Context(), "system settings read failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"key": key, "value": value})
}

func (m *systemModule) set(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	key := chi.URLParam(r, "key")
	if err := m.svc.SetSetting(r.Context(), key, req.Value, req.Description); err != nil {
		m.log.ErrorContext(r.Context(), "system settings write failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal", "internal server error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]string{"key": key, "value": req.Value})
}
