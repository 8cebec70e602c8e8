package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/ledger/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const transactionColumns = `id, vendor_id, seq, type, amount, balance_before, balance_after,
        partner_id, reference_type, reference_id, description, created_by, created_at`

func (r *PGRepository) GetVendor(ctx context.Context, vendorID string) (*model.Vendor, error) {
	conn := database.Conn(ctx, r.DB)

	var v model.Vendor
	query := conn.Rebind(`SELECT * FROM vendors WHERE id = ?`)
	err := conn.GetContext(ctx, &v, query, vendorID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, errors.Wrap(err, "get vendor")
	}
	return &v, nil
}

func (r *PGRepository) UpdateBalance(ctx context.Context, vendorID string, balance decimal.Decimal, fromVersion, toVersion int64, now time.Time) error {
	conn := database.Conn(ctx, r.DB)

	query := conn.Rebind(`
        UPDATE vendors
        SET capital_balance = ?, balance_version = ?, updated_at = ?
        WHERE id = ? AND balance_version = ?
    `)
	res, err := conn.ExecContext(ctx, query, balance, toVersion, now, vendorID, fromVersion)
	if err != nil {
		return errors.Wrap(err, "update capital balance")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "update capital balance")
	}
	if rows == 0 {
		return apperr.Wrapf(apperr.ErrConcurrentUpdate, "vendor %s no longer at version %d", vendorID, fromVersion)
	}
	return nil
}

func (r *PGRepository) AppendTransaction(ctx context.Context, t *model.CapitalTransaction) error {
	conn := database.Conn(ctx, r.DB)

	query := `
        INSERT INTO capital_transactions (
            id, vendor_id, seq, type, amount, balance_before, balance_after,
            partner_id, reference_type, reference_id, description, created_by, created_at
        )
        VALUES (
            :id, :vendor_id, :seq, :type, :amount, :balance_before, :balance_after,
            :partner_id, :reference_type, :reference_id, :description, :created_by, :created_at
        )
    `
	_, err := conn.NamedExecContext(ctx, query, t)
	if err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrapf(apperr.ErrConcurrentUpdate, "sequence %d already taken for vendor %s", t.Seq, t.VendorID)
		}
		return errors.Wrap(err, "append capital transaction")
	}
	return nil
}

func (r *PGRepository) ListTransactions(ctx context.Context, f *dto.TransactionFilters) ([]model.CapitalTransaction, int, error) {
	conn := database.Conn(ctx, r.DB)

	var items []model.CapitalTransaction
	var count int

	conditions := []string{"vendor_id = ?"}
	args := []interface{}{f.VendorID}

	if f.Type != "" {
		conditions = append(conditions, "type = ?")
		args = append(args, f.Type)
	}
	if f.PartnerID != "" {
		conditions = append(conditions, "partner_id = ?")
		args = append(args, f.PartnerID)
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

	countQuery := conn.Rebind("SELECT count(*) FROM capital_transactions" + whereClause)
	if err := conn.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, 0, errors.Wrap(err, "count capital transactions")
	}

	query := "SELECT " + transactionColumns + " FROM capital_transactions" + whereClause + " ORDER BY seq DESC"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	if err := conn.SelectContext(ctx, &items, conn.Rebind(query), args...); err != nil {
		return nil, 0, errors.Wrap(err, "list capital transactions")
	}
	return items, count, nil
}

func (r *PGRepository) AllTransactions(ctx context.Context, vendorID string) ([]model.CapitalTransaction, error) {
	conn := database.Conn(ctx, r.DB)

	items := []model.CapitalTransaction{}
	query := conn.Rebind("SELECT " + transactionColumns + " FROM capital_transactions WHERE vendor_id = ? ORDER BY seq ASC")
	if err := conn.SelectContext(ctx, &items, query, vendorID); err != nil {
		return nil, errors.Wrap(err, "load transaction log")
	}
	return items, nil
}

func (r *PGRepository) SearchByDescription(ctx context.Context, vendorID, q string, limit int) ([]model.CapitalTransaction, error) {
	conn := database.Conn(ctx, r.DB)

	if limit <= 0 {
		limit = 50
	}
	items := []model.CapitalTransaction{}
	query := conn.Rebind(fmt.Sprintf(`
        SELECT %s FROM capital_transactions
        WHERE vendor_id = ? AND LOWER(description) LIKE ?
        ORDER BY seq DESC LIMIT %d`, transactionColumns, limit))
	if err := conn.SelectContext(ctx, &items, query, vendorID, "%"+strings.ToLower(q)+"%"); err != nil {
		return nil, errors.Wrap(err, "search capital transactions")
	}
	return items, nil
}

func (r *PGRepository) SummarizeByType(ctx context.Context, vendorID string) ([]dto.TypeTotal, error) {
	conn := database.Conn(ctx, r.DB)

	totals := []dto.TypeTotal{}
	query := conn.Rebind(`
        SELECT type, count(*) AS count, COALESCE(SUM(amount), 0) AS total
        FROM capital_transactions
        WHERE vendor_id = ?
        GROUP BY type
        ORDER BY type`)
	if err := conn.SelectContext(ctx, &totals, query, vendorID); err != nil {
		return nil, errors.Wrap(err, "summarize capital transactions")
	}
	for i := range totals {
		totals[i].Total = totals[i].Total.Round(4)
	}
	return totals, nil
}

func (r *PGRepository) SumPartnerDeposits(ctx context.Context, vendorID string) (decimal.Decimal, error) {
	conn := database.Conn(ctx, r.DB)

	var total decimal.Decimal
	query := conn.Rebind(`
        SELECT COALESCE(SUM(amount), 0) FROM capital_transactions
        WHERE vendor_id = ? AND type = ? AND partner_id IS NOT NULL`)
	if err := conn.GetContext(ctx, &total, query, vendorID, model.TransactionDeposit); err != nil {
		return decimal.Zero, errors.Wrap(err, "sum partner deposits")
	}
	return total.Round(4), nil
}
