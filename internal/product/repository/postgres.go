package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-capital-service/internal/apperr"
	"github.com/fekuna/omnipos-capital-service/internal/model"
	"github.com/fekuna/omnipos-capital-service/internal/product/dto"
	"github.com/fekuna/omnipos-capital-service/pkg/database"
	"github.com/jmoiron/sqlx"
	pkgerrors "github.com/pkg/errors"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

const productColumns = `id, vendor_id, supplier_id, sku, name, product_source, supplier_cost, production_cost,
        stock_quantity, created_at, updated_at`

func (r *PGRepository) Create(ctx context.Context, p *model.Product) error {
	conn := database.Conn(ctx, r.DB)

	query := `
        INSERT INTO products (
            id, vendor_id, supplier_id, sku, name, product_source,
            supplier_cost, production_cost, stock_quantity, created_at, updated_at
        )
        VALUES (
            :id, :vendor_id, :supplier_id, :sku, :name, :product_source,
            :supplier_cost, :production_cost, :stock_quantity, :created_at, :updated_at
        )
    `
	if _, err := conn.NamedExecContext(ctx, query, p); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrapf(apperr.ErrInvalidInput, "SKU %s already exists", p.SKU)
		}
		return pkgerrors.Wrap(err, "create product")
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	conn := database.Conn(ctx, r.DB)

	var product model.Product
	query := conn.Rebind(`SELECT ` + productColumns + ` FROM products WHERE id = ? LIMIT 1`)
	err := conn.GetContext(ctx, &product, query, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(err, "find product")
	}
	return &product, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	conn := database.Conn(ctx, r.DB)

	products := []model.Product{}
	var count int

	conditions := []string{}
	args := []interface{}{}

	if f.VendorID != "" {
		conditions = append(conditions, "vendor_id = ?")
		args = append(args, f.VendorID)
	}
	if f.SupplierID != "" {
		conditions = append(conditions, "supplier_id = ?")
		args = append(args, f.SupplierID)
	}
	if f.ProductSource != "" {
		conditions = append(conditions, "product_source = ?")
		args = append(args, string(f.ProductSource))
	}
	if f.SearchQuery != "" {
		// LOWER + LIKE works on both Postgres and SQLite
		conditions = append(conditions, "(LOWER(name) LIKE ? OR LOWER(sku) LIKE ?)")
		search := "%" + strings.ToLower(f.SearchQuery) + "%"
		args = append(args, search, search)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	// Count
	countQuery := conn.Rebind("SELECT count(*) FROM products" + whereClause)
	if err := conn.GetContext(ctx, &count, countQuery, args...); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "count products")
	}

	// List
	orderBy := "created_at DESC"
	if f.SortBy != "" {
		// Prevent SQL injection by whitelisting fields
		switch f.SortBy {
		case "name":
			orderBy = "name"
		case "stock":
			orderBy = "stock_quantity"
		default:
			orderBy = "created_at"
		}
		if strings.ToLower(f.SortOrder) == "asc" {
			orderBy += " ASC"
		} else {
			orderBy += " DESC"
		}
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s", productColumns, whereClause, orderBy)

	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	if err := conn.SelectContext(ctx, &products, conn.Rebind(query), args...); err != nil {
		return nil, 0, pkgerrors.Wrap(err, "list products")
	}

	return products, count, nil
}

func (r *PGRepository) ListByVendor(ctx context.Context, vendorID string) ([]model.Product, error) {
	conn := database.Conn(ctx, r.DB)

	products := []model.Product{}
	query := conn.Rebind(`SELECT ` + productColumns + ` FROM products WHERE vendor_id = ? ORDER BY sku`)
	if err := conn.SelectContext(ctx, &products, query, vendorID); err != nil {
		return nil, pkgerrors.Wrap(err, "list vendor products")
	}
	return products, nil
}

func (r *PGRepository) Update(ctx context.Context, p *model.Product) error {
	conn := database.Conn(ctx, r.DB)

	query := `
        UPDATE products
        SET sku = :sku,
            name = :name,
            supplier_cost = :supplier_cost,
            production_cost = :production_cost,
            updated_at = :updated_at
        WHERE id = :id AND vendor_id = :vendor_id
    `
	if _, err := conn.NamedExecContext(ctx, query, p); err != nil {
		if database.IsUniqueViolation(err) {
			return apperr.Wrapf(apperr.ErrInvalidInput, "SKU %s already exists", p.SKU)
		}
		return pkgerrors.Wrap(err, "update product")
	}
	return nil
}

func (r *PGRepository) IsSKUUnique(ctx context.Context, vendorID, sku, excludeID string) (bool, error) {
	conn := database.Conn(ctx, r.DB)

	var count int
	query := `SELECT count(*) FROM products WHERE vendor_id = ? AND sku = ?`
	args := []interface{}{vendorID, sku}
	if excludeID != "" {
		query += ` AND id != ?`
		args = append(args, excludeID)
	}

	if err := conn.GetContext(ctx, &count, conn.Rebind(query), args...); err != nil {
		return false, pkgerrors.Wrap(err, "check sku")
	}
	return count == 0, nil
}

func (r *PGRepository) AdjustStock(ctx context.Context, id string, delta int64) (*model.Product, error) {
	conn := database.Conn(ctx, r.DB)

	query := conn.Rebind(`
        UPDATE products
        SET stock_quantity = stock_quantity + ?, updated_at = ?
        WHERE id = ? AND stock_quantity + ? >= 0
    `)
	res, err := conn.ExecContext(ctx, query, delta, time.Now().UTC(), id, delta)
	if err != nil {
		return nil, pkgerrors.Wrap(err, "adjust stock")
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return nil, pkgerrors.Wrap(err, "adjust stock")
	}

	p, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, apperr.Wrapf(apperr.ErrProductNotFound, "product %s", id)
	}
	if rows == 0 {
		return nil, apperr.Wrapf(apperr.ErrInsufficientStock, "product %s has %d, needs %d", p.SKU, p.StockQuantity, -delta)
	}
	return p, nil
}
