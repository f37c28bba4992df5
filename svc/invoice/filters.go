package invoice

import (
	"context"
	"fmt"
	"strings"

	"github.com/invoiceflow/invoiceflow/pkg/tstore"
)

// Filters is the richer query surface invoices need beyond exact-match
// CRUD. Zero values mean "not filtered".
type Filters struct {
	Category        string // sales | expense
	Status          string // Processed | Pending | Failed
	UserID          string
	Organization    string
	GSTFilingStatus string
	DateFrom        string // inclusive, ISO date
	DateTo          string // inclusive, ISO date
	Search          string // case-insensitive substring on vendor or gst_id

	Page  int // 1-based; defaults to 1
	Limit int // defaults to 20, capped at 100
}

// Page is one page of filtered invoices with the total computed in the
// same query pass as the rows.
type Page struct {
	Invoices   []tstore.Record `json:"invoices"`
	Total      int64           `json:"total"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	TotalPages int             `json:"totalPages"`
}

const defaultPageSize = 20
const maxPageSize = 100

// FindWithFilters returns a page of invoices matching the filters, newest
// invoice date first. The total count rides along as a window aggregate so
// pagination costs a single round trip.
func (s *Service) FindWithFilters(ctx context.Context, f Filters) (*Page, error) {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit <= 0 {
		f.Limit = defaultPageSize
	}
	if f.Limit > maxPageSize {
		f.Limit = maxPageSize
	}

	where, args := buildFilterWhere(f)

	query := fmt.Sprintf(
		"SELECT *, count(*) OVER() AS total_count FROM %s%s ORDER BY date DESC, created_at DESC LIMIT %d OFFSET %d",
		tstore.TablePlaceholder, where, f.Limit, (f.Page-1)*f.Limit,
	)

	recs, err := s.invoices.RawQuery(ctx, query, args...)
	if err != nil {
		return nil, err
	}

	page := &Page{
		Invoices: recs,
		Page:     f.Page,
		Limit:    f.Limit,
	}
	for _, rec := range recs {
		if total, ok := toInt64(rec["totalCount"]); ok {
			page.Total = total
		}
		delete(rec, "totalCount")
	}

	// A page past the last row returns nothing, and the window count goes
	// with it. Re-count without the window so the totals stay truthful.
	if len(recs) == 0 && f.Page > 1 {
		total, err := s.countFiltered(ctx, where, args)
		if err != nil {
			return nil, err
		}
		page.Total = total
	}
	page.TotalPages = int((page.Total + int64(f.Limit) - 1) / int64(f.Limit))

	return page, nil
}

func (s *Service) countFiltered(ctx context.Context, where string, args []any) (int64, error) {
	recs, err := s.invoices.RawQuery(ctx,
		"SELECT count(*) AS total_count FROM "+tstore.TablePlaceholder+where, args...)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 {
		return 0, nil
	}
	total, _ := toInt64(recs[0]["totalCount"])
	return total, nil
}

// buildFilterWhere renders the WHERE clause for FindWithFilters. Values are
// always bound parameters; only fixed column names enter the SQL text.
func buildFilterWhere(f Filters) (string, []any) {
	preds := []string{}
	args := []any{}

	add := func(expr string, value any) {
		args = append(args, value)
		preds = append(preds, fmt.Sprintf(expr, len(args)))
	}

	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.UserID != "" {
		add("user_id = $%d", f.UserID)
	}
	if f.Organization != "" {
		add("organization = $%d", f.Organization)
	}
	if f.GSTFilingStatus != "" {
		add("gst_filing_status = $%d", f.GSTFilingStatus)
	}
	if f.DateFrom != "" {
		add("date >= $%d", f.DateFrom)
	}
	if f.DateTo != "" {
		add("date <= $%d", f.DateTo)
	}
	if f.Search != "" {
		args = append(args, "%"+escapeLike(f.Search)+"%")
		preds = append(preds, fmt.Sprintf("(vendor ILIKE $%d OR gst_id ILIKE $%d)", len(args), len(args)))
	}

	if len(preds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(preds, " AND "), args
}

// escapeLike neutralizes LIKE metacharacters in user search input.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
