// Package billing tracks subscription plans and per-tenant subscriptions.
// Both live on the public schema: a subscription belongs to a tenant as a
// whole, not to rows inside its schema.
package billing

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/invoiceflow/invoiceflow/pkg/pg"
	"github.com/invoiceflow/invoiceflow/pkg/tstore"
)

var (
	// ErrPlanNotFound is returned when no plan matches the id or code.
	ErrPlanNotFound = errors.New("plan not found")

	// ErrNoSubscription is returned when a tenant has no subscription row.
	ErrNoSubscription = errors.New("tenant has no subscription")

	// ErrDuplicatePlanCode is returned when a plan code is already in use.
	ErrDuplicatePlanCode = errors.New("plan code already exists")
)

// Plan is a purchasable tier. Prices are integer cents; Interval is either
// "month" or "year".
type Plan struct {
	ID          uuid.UUID `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	PriceCents  int64     `json:"priceCents"`
	Interval    string    `json:"interval"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Subscription ties a tenant to a plan. One row per tenant; changing plan
// updates the row in place.
type Subscription struct {
	ID               uuid.UUID `json:"id"`
	TenantID         uuid.UUID `json:"tenantId"`
	PlanID           uuid.UUID `json:"planId"`
	Status           string    `json:"status"`
	CurrentPeriodEnd time.Time `json:"currentPeriodEnd"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

const planColumns = "id, code, name, description, price_cents, interval, created_at"
const subColumns = "id, tenant_id, plan_id, status, current_period_end, created_at, updated_at"

type Service struct {
	db tstore.DB
}

func NewService(db tstore.DB) *Service {
	return &Service{db: db}
}

// CreatePlan registers a new plan under a unique code.
func (s *Service) CreatePlan(ctx context.Context, code, name, description string, priceCents int64, interval string) (Plan, error) {
	if interval != "month" && interval != "year" {
		return Plan{}, errors.New("interval must be month or year")
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO public.plans (code, name, description, price_cents, interval)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+planColumns,
		code, name, description, priceCents, interval)

	plan, err := scanPlan(row)
	if err != nil {
		if pg.IsDuplicateKeyError(err) {
			return Plan{}, ErrDuplicatePlanCode
		}
		return Plan{}, err
	}
	return plan, nil
}

// FindPlanByCode returns the plan or ErrPlanNotFound.
func (s *Service) FindPlanByCode(ctx context.Context, code string) (Plan, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+planColumns+" FROM public.plans WHERE code = $1", code)
	plan, err := scanPlan(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Plan{}, ErrPlanNotFound
		}
		return Plan{}, err
	}
	return plan, nil
}

// ListPlans returns all plans, cheapest first.
func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	rows, err := s.db.Query(ctx,
		"SELECT "+planColumns+" FROM public.plans ORDER BY price_cents")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var plans []Plan
	for rows.Next() {
		plan, err := scanPlan(rows)
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, rows.Err()
}

// Subscribe puts the tenant on the plan, replacing any existing
// subscription. The period end restarts from now based on the plan interval.
func (s *Service) Subscribe(ctx context.Context, tenantID uuid.UUID, planCode string) (Subscription, error) {
	plan, err := s.FindPlanByCode(ctx, planCode)
	if err != nil {
		return Subscription{}, err
	}

	periodEnd := time.Now().AddDate(0, 1, 0)
	if plan.Interval == "year" {
		periodEnd = time.Now().AddDate(1, 0, 0)
	}

	row := s.db.QueryRow(ctx,
		`INSERT INTO public.subscriptions (tenant_id, plan_id, status, current_period_end)
		 VALUES ($1, $2, 'active', $3)
		 ON CONFLICT (tenant_id) DO UPDATE
		 SET plan_id = EXCLUDED.plan_id,
		     status = 'active',
		     current_period_end = EXCLUDED.current_period_end,
		     updated_at = now()
		 RETURNING `+subColumns,
		tenantID, plan.ID, periodEnd)

	return scanSubscription(row)
}

// ForTenant returns the tenant's subscription or ErrNoSubscription.
func (s *Service) ForTenant(ctx context.Context, tenantID uuid.UUID) (Subscription, error) {
	row := s.db.QueryRow(ctx,
		"SELECT "+subColumns+" FROM public.subscriptions WHERE tenant_id = $1", tenantID)
	sub, err := scanSubscription(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Subscription{}, ErrNoSubscription
		}
		return Subscription{}, err
	}
	return sub, nil
}

// Cancel marks the subscription canceled; access runs until the period end.
func (s *Service) Cancel(ctx context.Context, tenantID uuid.UUID) (Subscription, error) {
	row := s.db.QueryRow(ctx,
		`UPDATE public.subscriptions
		 SET status = 'canceled', updated_at = now()
		 WHERE tenant_id = $1
		 RETURNING `+subColumns, tenantID)
	sub, err := scanSubscription(row)
	if err != nil {
		if pg.IsNotFoundError(err) {
			return Subscription{}, ErrNoSubscription
		}
		return Subscription{}, err
	}
	return sub, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPlan(row rowScanner) (Plan, error) {
	var p Plan
	err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Description, &p.PriceCents, &p.Interval, &p.CreatedAt)
	return p, err
}

func scanSubscription(row rowScanner) (Subscription, error) {
	var sub Subscription
	err := row.Scan(&sub.ID, &sub.TenantID, &sub.PlanID, &sub.Status,
		&sub.CurrentPeriodEnd, &sub.CreatedAt, &sub.UpdatedAt)
	return sub, err
}
