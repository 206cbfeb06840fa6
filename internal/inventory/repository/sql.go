package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/fekuna/omnipos-sales-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

const lotColumns = `id, product_id, remaining_quantity, unit_cost, effective_from, created_at`

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) CreateLot(ctx context.Context, l *model.Lot) error {
	query := `
        INSERT INTO lots (` + lotColumns + `)
        VALUES (:id, :product_id, :remaining_quantity, :unit_cost, :effective_from, :created_at)
    `
	_, err := database.NamedExec(ctx, r.DB, query, l)
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("%s: %w", l.ProductID, model.ErrProductNotFound)
	}
	return err
}

// FindLotsByProduct orders lots oldest-acquired first. The allocator consumes
// them in exactly this order.
func (r *SQLRepository) FindLotsByProduct(ctx context.Context, productID string) ([]model.Lot, error) {
	query := `SELECT ` + lotColumns + ` FROM lots WHERE product_id = ? ORDER BY effective_from ASC, id ASC` + database.ForUpdate(ctx)
	lots := []model.Lot{}
	if err := database.Select(ctx, r.DB, &lots, query, productID); err != nil {
		return nil, err
	}
	return lots, nil
}

func (r *SQLRepository) UpdateLotQuantity(ctx context.Context, id string, remaining float64) error {
	res, err := database.Exec(ctx, r.DB, `UPDATE lots SET remaining_quantity = ? WHERE id = ?`, remaining, id)
	if err != nil {
		return err
	}
	if ok, err := database.RowsAffected(res); err == nil && !ok {
		return fmt.Errorf("%s: %w", id, model.ErrLotNotFound)
	}
	return nil
}

func (r *SQLRepository) DeleteLot(ctx context.Context, id string) error {
	res, err := database.Exec(ctx, r.DB, `DELETE FROM lots WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if ok, err := database.RowsAffected(res); err == nil && !ok {
		return fmt.Errorf("%s: %w", id, model.ErrLotNotFound)
	}
	return nil
}

func (r *SQLRepository) RefreshProductStock(ctx context.Context, productID string, at time.Time) (float64, error) {
	query := `
        UPDATE products
        SET current_amount = (SELECT COALESCE(SUM(remaining_quantity), 0) FROM lots WHERE product_id = ?),
            updated_at = ?
        WHERE id = ?
    `
	if _, err := database.Exec(ctx, r.DB, query, productID, at, productID); err != nil {
		return 0, err
	}

	var amount float64
	err := database.Get(ctx, r.DB, &amount, `SELECT current_amount FROM products WHERE id = ?`, productID)
	if database.IsNoRows(err) {
		return 0, fmt.Errorf("%s: %w", productID, model.ErrProductNotFound)
	}
	return amount, err
}

func (r *SQLRepository) FindLowStock(ctx context.Context, f *dto.LowStockFilters) ([]model.Product, int, error) {
	var count int
	if err := database.Get(ctx, r.DB, &count, `SELECT COUNT(*) FROM products WHERE current_amount <= min_stock`); err != nil {
		return nil, 0, err
	}

	query := database.Paginate(`
        SELECT id, barcode, name, user_price, unit_cost, min_stock, unit_id, current_amount, created_at, updated_at
        FROM products
        WHERE current_amount <= min_stock
        ORDER BY current_amount ASC, name ASC`, f.Page, f.PageSize)

	products := []model.Product{}
	if err := database.Select(ctx, r.DB, &products, query); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}
