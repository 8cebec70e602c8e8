package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
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

const partnerColumns = `id, vendor_id, user_id, partner_name, partner_type, initial_amount, current_amount,
        capital_percent, requested_percent, percent_as_of, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, p *model.Partner) error {
	conn := database.Conn(ctx, r.DB)

	query := `
        INSERT INTO partners (` + partnerColumns + `)
        VALUES (:id, :vendor_id, :user_id, :partner_name, :partner_type, :initial_amount, :current_amount,
            :capital_percent, :requested_percent, :percent_as_of, :created_at, :updated_at)
    `
	if _, err := conn.NamedExecContext(ctx, query, p); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrapf(apperr.ErrDuplicatePartner, "partner %q already exists", p.PartnerName)
		}
		return errors.Wrap(err, "create partner")
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Partner, error) {
	conn := database.Conn(ctx, r.DB)

	var p model.Partner
	query := conn.Rebind("SELECT " + partnerColumns + " FROM partners WHERE id = ?")
	if err := conn.GetContext(ctx, &p, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, errors.Wrap(err, "find partner")
	}
	return &p, nil
}

func (r *PGRepository) ListByVendor(ctx context.Context, vendorID string) ([]model.Partner, error) {
	conn := database.Conn(ctx, r.DB)

	partners := []model.Partner{}
	query := conn.Rebind("SELECT " + partnerColumns + " FROM partners WHERE vendor_id = ? ORDER BY created_at ASC, partner_name ASC")
	if err := conn.SelectContext(ctx, &partners, query, vendorID); err != nil {
		return nil, errors.Wrap(err, "list partners")
	}
	return partners, nil
}

func (r *PGRepository) UpdateShares(ctx context.Context, partners []model.Partner) error {
	conn := database.Conn(ctx, r.DB)

	query := `
        UPDATE partners
        SET capital_percent = :capital_percent, percent_as_of = :percent_as_of, updated_at = :updated_at
        WHERE id = :id
    `
	for i := range partners {
		partners[i].UpdatedAt = partners[i].PercentAsOf
		if _, err := conn.NamedExecContext(ctx, query, &partners[i]); err != nil {
			return errors.Wrap(err, "update partner share")
		}
	}
	return nil
}

func (r *PGRepository) SetUserID(ctx context.Context, partnerID, userID string) error {
	conn := database.Conn(ctx, r.DB)

	query := conn.Rebind("UPDATE partners SET user_id = ?, updated_at = ? WHERE id = ?")
	res, err := conn.ExecContext(ctx, query, userID, time.Now().UTC(), partnerID)
	if err != nil {
		return errors.Wrap(err, "link partner account")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.Wrapf(apperr.ErrPartnerNotFound, "partner %s", partnerID)
	}
	return nil
}
