package user

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/invoiceflow/invoiceflow/pkg/tstore"
)

var (
	// ErrMissingCredentials means Create was called without email or password.
	ErrMissingCredentials = errors.New("email and password are required")

	// ErrInvalidCredentials means MatchPassword found no user or the
	// candidate did not match. Deliberately one error for both cases.
	ErrInvalidCredentials = errors.New("invalid email or password")
)

// sensitiveFields never leave this package in returned records.
var sensitiveFields = []string{"passwordHash", "resetToken", "resetTokenExpiresAt"}

// Service manages the users inside one tenant's schema. Which schema is
// decided per call by the tenant bound to the context.
type Service struct {
	users *tstore.Store
}

func NewService(db tstore.DB, log *slog.Logger) *Service {
	return &Service{
		users: tstore.New(db, "users", tstore.WithLogger(log)),
	}
}

// Create inserts a user, hashing the plaintext password before persistence.
// The returned record never includes the hash.
func (s *Service) Create(ctx context.Context, data tstore.Record) (tstore.Record, error) {
	email, _ := data["email"].(string)
	password, _ := data["password"].(string)
	if email == "" || password == "" {
		return nil, ErrMissingCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	delete(data, "password")
	data["passwordHash"] = string(hash)

	rec, err := s.users.Create(ctx, data)
	if err != nil {
		return nil, err
	}
	return sanitize(rec), nil
}

// FindByID returns the user without sensitive fields, or tstore.ErrNotFound.
func (s *Service) FindByID(ctx context.Context, id any) (tstore.Record, error) {
	rec, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return sanitize(rec), nil
}

// List returns the tenant's users sorted by name.
func (s *Service) List(ctx context.Context) ([]tstore.Record, error) {
	recs, err := s.users.Find(ctx, nil, tstore.FindOptions{SortBy: "name"})
	if err != nil {
		return nil, err
	}
	for i, rec := range recs {
		recs[i] = sanitize(rec)
	}
	return recs, nil
}

// Update patches the given fields; a "password" field is rehashed, the hash
// itself is not settable from outside.
func (s *Service) Update(ctx context.Context, id any, data tstore.Record) (tstore.Record, error) {
	delete(data, "passwordHash")
	if password, ok := data["password"].(string); ok && password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		data["passwordHash"] = string(hash)
	}
	delete(data, "password")

	rec, err := s.users.Update(ctx, id, data)
	if err != nil {
		return nil, err
	}
	return sanitize(rec), nil
}

// MatchPassword compares a candidate password against the stored hash and
// returns the user on success. The hash never leaves the database row.
func (s *Service) MatchPassword(ctx context.Context, email, candidate string) (tstore.Record, error) {
	recs, err := s.users.Find(ctx, tstore.Record{"email": email}, tstore.FindOptions{Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, ErrInvalidCredentials
	}

	rec := recs[0]
	hash, _ := rec["passwordHash"].(string)
	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) != nil {
		return nil, ErrInvalidCredentials
	}
	return sanitize(rec), nil
}

func sanitize(rec tstore.Record) tstore.Record {
	for _, f := range sensitiveFields {
		delete(rec, f)
	}
	return rec
}
