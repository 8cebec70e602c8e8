package repository

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
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

func (r *PGRepository) MarkApplied(ctx context.Context, vendorID, orderID string) error {
	conn := database.Conn(ctx, r.DB)

	query := conn.Rebind(`INSERT INTO applied_orders (vendor_id, order_id, applied_at) VALUES (?, ?, ?)`)
	if _, err := conn.ExecContext(ctx, query, vendorID, orderID, time.Now().UTC()); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrapf(apperr.ErrAlreadyApplied, "order %s", orderID)
		}
		return errors.Wrap(err, "mark order applied")
	}
	return nil
}

func (r *PGRepository) IsApplied(ctx context.Context, vendorID, orderID string) (bool, error) {
	conn := database.Conn(ctx, r.DB)

	var count int
	query := conn.Rebind(`SELECT count(*) FROM applied_orders WHERE vendor_id = ? AND order_id = ?`)
	if err := conn.GetContext(ctx, &count, query, vendorID, orderID); err != nil {
		return false, errors.Wrap(err, "check applied order")
	}
	return count > 0, nil
}
