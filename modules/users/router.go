// Package users exposes the tenant-scoped user API, including password
// verification for login flows. Password hashes never appear in responses.
package users

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invoiceflow/invoiceflow/pkg/pg"
	"github.com/invoiceflow/invoiceflow/pkg/respond"
	"github.com/invoiceflow/invoiceflow/pkg/tstore"
	"github.com/invoiceflow/invoiceflow/svc/user"
)

// Service is the user operations surface the router needs.
type Service interface {
	Create(ctx context.Context, data tstore.Record) (tstore.Record, error)
	FindByID(ctx context.Context, id any) (tstore.Record, error)
	List(ctx context.Context) ([]tstore.Record, error)
	Update(ctx context.Context, id any, data tstore.Record) (tstore.Record, error)
	MatchPassword(ctx context.Context, email, candidate string) (tstore.Record, error)
}

type module struct {
	svc Service
	log *slog.Logger
}

// Router builds the user routes.
func Router(svc Service, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	m := &module{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/", m.create)
	r.Get("/", m.list)
	r.Get("/{id}", m.get)
	r.Patch("/{id}", m.update)
	r.Post("/login", m.login)
	return r
}

func (m *module) create(w http.ResponseWriter, r *http.Request) {
	var data tstore.Record
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	rec, err := m.svc.Create(r.Context(), data)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, rec)
}

func (m *module) list(w http.ResponseWriter, r *http.Request) {
	recs, err := m.svc.List(r.Context())
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, recs)
}

func (m *module) get(w http.ResponseWriter, r *http.Request) {
	rec, err := m.svc.FindByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

func (m *module) update(w http.ResponseWriter, r *http.Request) {
	var data tstore.Record
	if err := json.NewDecoder(r.Body).Decode(&data); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	rec, err := m.svc.Update(r.Context(), chi.URLParam(r, "id"), data)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (m *module) login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	rec, err := m.svc.MatchPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, rec)
}

func (m *module) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, user.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, user.ErrMissingCredentials):
		respond.Error(w, http.StatusBadRequest, "missing_credentials", "email and password are required")
	case errors.Is(err, tstore.ErrNotFound):
		respond.Error(w, http.StatusNotFound, "user_not_found", "user not found")
	case errors.Is(err, tstore.ErrEmptyData):
		respond.Error(w, http.StatusBadRequest, "empty_body", "no fields to write")
	case errors.Is(err, tstore.ErrInvalidFieldName):
		respond.Error(w, http.StatusBadRequest, "invalid_field", "field name is not a valid column")
	case pg.IsDuplicateKeyError(err):
		respond.Error(w, http.StatusConflict, "email_taken", "a user with this email already exists")
	default:
		m.log.ErrorContext(r.Context(), "user request failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
