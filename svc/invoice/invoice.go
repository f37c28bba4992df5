package invoice

import (
	"context"
	"errors"
	"log/slog"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/invoiceflow/invoiceflow/pkg/logger"
	"github.com/invoiceflow/invoiceflow/pkg/tstore"
)

// Service layers invoice-specific operations on the schema-qualified store
// base. Multi-statement operations run on a single dedicated transaction so
// the invoice row and its item rows persist together or not at all.
type Service struct {
	pool     *pgxpool.Pool
	invoices *tstore.Store
	items    *tstore.Store
	log      *slog.Logger
}

func NewService(pool *pgxpool.Pool, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		pool:     pool,
		invoices: tstore.New(pool, "invoices", tstore.WithLogger(log)),
		items:    tstore.New(pool, "invoice_items", tstore.WithLogger(log)),
		log:      log,
	}
}

// CreateWithItems inserts an invoice and all of its items atomically. When
// items are present the invoice amount is recomputed server-side from the
// item totals; a caller-supplied amount only stands for item-less invoices.
func (s *Service) CreateWithItems(ctx context.Context, data tstore.Record, items []tstore.Record) (tstore.Record, error) {
	if len(items) > 0 {
		data["amount"] = itemsTotal(items)
	}

	var created tstore.Record
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		inv, err := s.invoices.WithTx(tx).Create(ctx, data)
		if err != nil {
			return err
		}

		itemStore := s.items.WithTx(tx)
		saved := make([]tstore.Record, 0, len(items))
		for _, item := range items {
			item["invoiceId"] = inv["id"]
			rec, err := itemStore.Create(ctx, item)
			if err != nil {
				return err
			}
			saved = append(saved, rec)
		}

		inv["items"] = saved
		created = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return created, nil
}

// UpdateWithItems patches the invoice and, when items is non-nil, replaces
// its full item set, recomputing the amount. Atomic like CreateWithItems.
func (s *Service) UpdateWithItems(ctx context.Context, id any, data tstore.Record, items []tstore.Record) (tstore.Record, error) {
	if items != nil {
		data["amount"] = itemsTotal(items)
	}

	var updated tstore.Record
	err := s.inTx(ctx, func(tx pgx.Tx) error {
		inv, err := s.invoices.WithTx(tx).Update(ctx, id, data)
		if err != nil {
			return err
		}

		if items == nil {
			updated = inv
			return nil
		}

		itemStore := s.items.WithTx(tx)
		if _, err := itemStore.RawExec(ctx,
			"DELETE FROM "+tstore.TablePlaceholder+" WHERE invoice_id = $1", id); err != nil {
			return err
		}

		saved := make([]tstore.Record, 0, len(items))
		for _, item := range items {
			item["invoiceId"] = inv["id"]
			rec, err := itemStore.Create(ctx, item)
			if err != nil {
				return err
			}
			saved = append(saved, rec)
		}

		inv["items"] = saved
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// FindByIDWithItems returns the invoice with its items attached, or
// tstore.ErrNotFound.
func (s *Service) FindByIDWithItems(ctx context.Context, id any) (tstore.Record, error) {
	inv, err := s.invoices.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	items, err := s.items.Find(ctx,
		tstore.Record{"invoiceId": id},
		tstore.FindOptions{SortBy: "createdAt"},
	)
	if err != nil {
		return nil, err
	}

	inv["items"] = items
	return inv, nil
}

// Delete removes the invoice; items follow via the FK cascade.
func (s *Service) Delete(ctx context.Context, id any) (bool, error) {
	return s.invoices.Delete(ctx, id)
}

// inTx runs fn on a dedicated transaction with rollback on every exit path.
func (s *Service) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := tx.Rollback(ctx); err != nil && !errors.Is(err, pgx.ErrTxClosed) {
			s.log.ErrorContext(ctx, "invoice transaction rollback failed",
				logger.Component("invoice"),
				logger.Error(err),
			)
		}
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}
