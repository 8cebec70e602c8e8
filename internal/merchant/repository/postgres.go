package repository

import (
	"context"
	"database/sql"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/merchant/dto"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{
		DB: db,
	}
}

func (r *PGRepository) Create(ctx context.Context, v *model.Vendor) error {
	conn := database.Conn(ctx, r.DB)

	query := `
        INSERT INTO vendors (id, name, email, initial_capital, capital_balance, commission_rate, balance_version, created_at, updated_at)
        VALUES (:id, :name, :email, :initial_capital, :capital_balance, :commission_rate, :balance_version, :created_at, :updated_at)
    `
	if _, err := conn.NamedExecContext(ctx, query, v); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrapf(apperr.ErrDuplicateVendor, "email %s already registered", v.Email)
		}
		return errors.Wrap(err, "create vendor")
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Vendor, error) {
	conn := database.Conn(ctx, r.DB)

	var v model.Vendor
	query := conn.Rebind(`
        SELECT id, name, email, initial_capital, capital_balance, commission_rate, balance_version, created_at, updated_at
        FROM vendors WHERE id = ?`)
	if err := conn.GetContext(ctx, &v, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find vendor")
	}
	return &v, nil
}

func (r *PGRepository) Activity(ctx context.Context, id string) (*dto.Activity, error) {
	conn := database.Conn(ctx, r.DB)

	var a dto.Activity
	query := conn.Rebind(`
        SELECT
            (SELECT count(*) FROM partners WHERE vendor_id = ?) AS partners,
            (SELECT count(*) FROM capital_transactions WHERE vendor_id = ?) AS transactions,
            (SELECT count(*) FROM supplier_payments WHERE vendor_id = ? AND status = ?) AS pending_payables`)
	if err := conn.GetContext(ctx, &a, query, id, id, id, string(model.PaymentPending)); err != nil {
		return nil, errors.Wrap(err, "count vendor activity")
	}
	return &a, nil
}

func (r *PGRepository) Delete(ctx context.Context, id string) error {
	conn := database.Conn(ctx, r.DB)

	for _, stmt := range []string{
		"DELETE FROM applied_orders WHERE vendor_id = ?",
		"DELETE FROM products WHERE vendor_id = ?",
	} {
		if _, err := conn.ExecContext(ctx, conn.Rebind(stmt), id); err != nil {
			return errors.Wrap(err, "delete vendor children")
		}
	}

	res, err := conn.ExecContext(ctx, conn.Rebind("DELETE FROM vendors WHERE id = ?"), id)
	if err != nil {
		return errors.Wrap(err, "delete vendor")
	}
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "delete vendor")
	}
	if n == 0 {
		return apperr.Wrapf(apperr.ErrVendorNotFound, "vendor %s", id)
	}
	return nil
}
