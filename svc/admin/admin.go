// Package admin manages platform operators stored in public.admin_users.
// Admin accounts exist outside any tenant schema and never flow through
// the tenant-scoped store.
package admin

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/invoiceflow/invoiceflow/pkg/pg"
	"github.com/invoiceflow/invoiceflow/pkg/tstore"
)

var (
	// ErrEmailTaken is returned when an admin with the email already exists.
	ErrEmailTaken = errors.New("admin email already registered")

	// ErrInvalidCredentials covers both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrAdminNotFound is returned by lookups that match no row.
	ErrAdminNotFound = errors.New("admin user not found")
)

// AdminUser is a platform operator. The password hash is internal to this
// package and never appears on the struct.
type AdminUser struct {
	ID        uuid.UUID `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

const table = "public.admin_users"

const adminColumns = "id, name, email, role, created_at, updated_at"

type Service struct {
	db tstore.DB
}

func NewService(db tstore.DB) *Service {
	return &Service{db: db}
}

// Create registers an admin with a bcrypt-hashed password.
func (s *Service) Create(ctx context.Context, name, email, password, role string) (AdminUser, error) {
	if name == "" || email == "" || password == "" {
		return AdminUser{}, errors.New("name, email and password are required")
	}
	if role == "" {
		role = "admin"
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return AdminUser{}, fmt.Errorf("hash password: %w", err)
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO `+table+` (name, email, password_hash, role)
		 VALUES ($1, $2, $3, $4)
		 RETURNING `+adminColumns,
		name, email, string(hash), role)

	admin, err := scanAdmin(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return AdminUser{}, ErrEmailTaken
		}
		return AdminUser{}, err
	}
	return admin, nil
}

// FindByID returns the admin or ErrAdminNotFound.
func (s *Service) FindByID(ctx context.Context, id uuid.UUID) (AdminUser, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+adminColumns+" FROM "+table+" WHERE id = $1", id)
	admin, err := scanAdmin(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return AdminUser{}, ErrAdminNotFound
		}
		return AdminUser{}, err
	}
	return admin, nil
}

// MatchPassword verifies the candidate password and returns the admin on
// success. Unknown email and wrong password are indistinguishable.
func (s *Service) MatchPassword(ctx context.Context, email, candidate string) (AdminUser, error) {
	var (
		admin AdminUser
		hash  string
	)
	err := s.db.QueryRow(ctx,
		`SELECT id, name, email, role, created_at, updated_at, password_hash
		 FROM `+table+` WHERE email = $1`, email).
		Scan(&admin.ID, &admin.Name, &admin.Email, &admin.Role,
			&admin.CreatedAt, &admin.UpdatedAt, &hash)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return AdminUser{}, ErrInvalidCredentials
		}
		return AdminUser{}, err
	}

	if bcrypt.CompareHashAndPassword([]byte(hash), []byte(candidate)) != nil {
		return AdminUser{}, ErrInvalidCredentials
	}
	return admin, nil
}

// List returns all admins ordered by creation time.
func (s *Service) List(ctx context.Context) ([]AdminUser, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+adminColumns+" FROM "+table+" ORDER BY created_at")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var admins []AdminUser
	for rows.Next() {
		admin, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, admin)
	}
	return admins, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAdmin(row rowScanner) (AdminUser, error) {
	var a AdminUser
	err := row.Scan(&a.ID, &a.Name, &a.Email, &a.Role, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}
