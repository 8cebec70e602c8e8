package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/payable/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const paymentColumns = `id, vendor_id, supplier_id, product_id, order_id, quantity, unit_cost, amount, status,
        capital_transaction_id, paid_at, created_at`

func (r *PGRepository) Create(ctx context.Context, p *model.SupplierPayment) error {
	conn := database.Conn(ctx, r.DB)

	query := `
        INSERT INTO supplier_payments (` + paymentColumns + `)
        VALUES (:id, :vendor_id, :supplier_id, :product_id, :order_id, :quantity, :unit_cost, :amount, :status,
            :capital_transaction_id, :paid_at, :created_at)
    `
	if _, err := conn.NamedExecContext(ctx, query, p); err != nil {
		return errors.Wrap(err, "create supplier payment")
	}
	return nil
}

func (r *PGRepository) ListPending(ctx context.Context, vendorID, supplierID string) ([]model.SupplierPayment, error) {
	conn := database.Conn(ctx, r.DB)

	payments := []model.SupplierPayment{}
	query := conn.Rebind(`
        SELECT ` + paymentColumns + ` FROM supplier_payments
        WHERE vendor_id = ? AND supplier_id = ? AND status = ?
        ORDER BY created_at ASC, id ASC`)
	if err := conn.SelectContext(ctx, &payments, query, vendorID, supplierID, string(model.PaymentPending)); err != nil {
		return nil, errors.Wrap(err, "list pending supplier payments")
	}
	return payments, nil
}

// MarkPaid flips PENDING rows to PAID. A row that is no longer pending means a
// concurrent settlement won; the caller's transaction must be retried.
// transactionID is nil when nothing was owed.
func (r *PGRepository) MarkPaid(ctx context.Context, ids []string, transactionID *string, paidAt time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	conn := database.Conn(ctx, r.DB)

	query, args, err := sqlx.In(`
        UPDATE supplier_payments
        SET status = ?, capital_transaction_id = ?, paid_at = ?
        WHERE status = ? AND id IN (?)`,
		string(model.PaymentPaid), transactionID, paidAt, string(model.PaymentPending), ids)
	if err != nil {
		return errors.Wrap(err, "build settle query")
	}

	res, err := conn.ExecContext(ctx, conn.Rebind(query), args...)
	if err != nil {
		return errors.Wrap(err, "settle supplier payments")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "settle supplier payments")
	}
	if int(n) != len(ids) {
		return apperr.Wrapf(apperr.ErrConcurrentUpdate, "expected to settle %d payments, settled %d", len(ids), n)
	}
	return nil
}

func (r *PGRepository) PendingTotals(ctx context.Context, vendorID string) ([]dto.SupplierTotal, error) {
	conn := database.Conn(ctx, r.DB)

	totals := []dto.SupplierTotal{}
	query := conn.Rebind(`
        SELECT supplier_id, count(*) AS count, COALESCE(SUM(amount), 0) AS total
        FROM supplier_payments
        WHERE vendor_id = ? AND status = ?
        GROUP BY supplier_id
        ORDER BY supplier_id`)
	if err := conn.SelectContext(ctx, &totals, query, vendorID, string(model.PaymentPending)); err != nil {
		return nil, errors.Wrap(err, "sum pending supplier payments")
	}
	for i := range totals {
		totals[i].Total = totals[i].Total.Round(4)
	}
	return totals, nil
}

func (r *PGRepository) List(ctx context.Context, f *dto.PaymentFilters) ([]model.SupplierPayment, int, error) {
	conn := database.Conn(ctx, r.DB)

	payments := []model.SupplierPayment{}
	var count int

	conditions := []string{"vendor_id = ?"}
	args := []interface{}{f.VendorID}

	if f.SupplierID != "" {
		conditions = append(conditions, "supplier_id = ?")
		args = append(args, f.SupplierID)
	}
	if f.Status != "" {
		conditions = append(conditions, "status = ?")
		args = append(args, string(f.Status))
	}
	if f.StartDate != nil {
		conditions = append(conditions, "created_at >= ?")
		args = append(args, *f.StartDate)
	}
	if f.EndDate != nil {
		conditions = append(conditions, "created_at < ?")
		args = append(args, *f.EndDate)
	}

	whereClause := " WHERE " + strings.Join(conditions, " AND ")

	if err := conn.GetContext(ctx, &count, conn.Rebind("SELECT count(*) FROM supplier_payments"+whereClause), args...); err != nil {
		return nil, 0, errors.Wrap(err, "count supplier payments")
	}

	query := "SELECT " + paymentColumns + " FROM supplier_payments" + whereClause + " ORDER BY created_at DESC, id ASC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	if err := conn.SelectContext(ctx, &payments, conn.Rebind(query), args...); err != nil {
		return nil, 0, errors.Wrap(err, "list supplier payments")
	}
	return payments, count, nil
}
