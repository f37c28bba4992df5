// Package admins exposes platform operator accounts. Mounted on the admin
// surface, outside tenant resolution.
package admins

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/invoiceflow/invoiceflow/pkg/respond"
	"github.com/invoiceflow/invoiceflow/svc/admin"
)

// Service is the admin account surface the router needs.
type Service interface {
	Create(ctx context.Context, name, email, password, role string) (admin.AdminUser, error)
	List(ctx context.Context) ([]admin.AdminUser, error)
	MatchPassword(ctx context.Context, email, candidate string) (admin.AdminUser, error)
}

type module struct {
	svc Service
	log *slog.Logger
}

// Router builds the admin account routes.
func Router(svc Service, log *slog.Logger) chi.Router {
	if log == nil {
		log = slog.Default()
	}
	m := &module{svc: svc, log: log}

	r := chi.NewRouter()
	r.Post("/", m.create)
	r.Get("/", m.list)
	r.Post("/login", m.login)
	return r
}

type createRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

func (m *module) create(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid_body", "request body must be valid JSON")
		return
	}
	account, err := m.svc.Create(r.Context(), req.Name, req.Email, req.Password, req.Role)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusCreated, account)
}

func (m *module) list(w http.ResponseWriter, r *http.Request) {
	accounts, err := m.svc.List(r.Context())
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, accounts)
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
	account, err := m.svc.MatchPassword(r.Context(), req.Email, req.Password)
	if err != nil {
		m.writeError(w, r, err)
		return
	}
	respond.JSON(w, http.StatusOK, account)
}

func (m *module) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, admin.ErrEmailTaken):
		respond.Error(w, http.StatusConflict, "email_taken", "admin email already registered")
	case errors.Is(err, admin.ErrInvalidCredentials):
		respond.Error(w, http.StatusUnauthorized, "invalid_credentials", "invalid email or password")
	case errors.Is(err, admin.ErrAdminNotFound):
		respond.Error(w, http.StatusNotFound, "admin_not_found", "admin user not found")
	default:
		m.log.ErrorContext(r.Context(), "admin request failed", slog.Any("error", err))
		respond.Error(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}
