package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/product/dto"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

const productColumns = `id, barcode, name, user_price, unit_cost, min_stock, unit_id, current_amount, created_at, updated_at`

var sortColumns = map[string]string{
	"name":           "name",
	"user_price":     "user_price",
	"current_amount": "current_amount",
	"created_at":     "created_at",
}

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) Create(ctx context.Context, p *model.Product) error {
	query := `
        INSERT INTO products (` + productColumns + `)
        VALUES (:id, :barcode, :name, :user_price, :unit_cost, :min_stock, :unit_id, :current_amount, :created_at, :updated_at)
    `
	_, err := database.NamedExec(ctx, r.DB, query, p)
	if database.IsUniqueViolation(err) {
		return model.Validationf("barcode already exists")
	}
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("product %s: %w", p.ID, model.ErrUnitNotFound)
	}
	return err
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*model.Product, error) {
	var p model.Product
	query := `SELECT ` + productColumns + ` FROM products WHERE id = ?` + database.ForUpdate(ctx)
	err := database.Get(ctx, r.DB, &p, query, id)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%s: %w", id, model.ErrProductNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLRepository) FindByBarcode(ctx context.Context, barcode string) (*model.Product, error) {
	var p model.Product
	err := database.Get(ctx, r.DB, &p, `SELECT `+productColumns+` FROM products WHERE barcode = ?`, barcode)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("barcode %s: %w", barcode, model.ErrProductNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func (r *SQLRepository) FindByIDs(ctx context.Context, ids []string) ([]model.Product, error) {
	products := []model.Product{}
	if len(ids) == 0 {
		return products, nil
	}
	query, args, err := database.In(`SELECT `+productColumns+` FROM products WHERE id IN (?)`, ids)
	if err != nil {
		return nil, err
	}
	if err := database.Select(ctx, r.DB, &products, query, args...); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *SQLRepository) FindAll(ctx context.Context, f *dto.ProductFilters) ([]model.Product, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.UnitID != "" {
		conditions = append(conditions, "unit_id = ?")
		args = append(args, f.UnitID)
	}
	if f.SearchQuery != "" {
		conditions = append(conditions, "(LOWER(name) LIKE ? OR LOWER(barcode) LIKE ?)")
		pattern := database.Contains(f.SearchQuery)
		args = append(args, pattern, pattern)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := database.Get(ctx, r.DB, &count, "SELECT COUNT(*) FROM products"+whereClause, args...); err != nil {
		return nil, 0, err
	}

	sortCol, ok := sortColumns[f.SortBy]
	if !ok {
		sortCol = "name"
	}
	sortOrder := "ASC"
	if strings.EqualFold(f.SortOrder, "desc") {
		sortOrder = "DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM products%s ORDER BY %s %s, id %s", productColumns, whereClause, sortCol, sortOrder, sortOrder)
	query = database.Paginate(query, f.Page, f.PageSize)

	products := []model.Product{}
	if err := database.Select(ctx, r.DB, &products, query, args...); err != nil {
		return nil, 0, err
	}
	return products, count, nil
}

// Update writes the catalog fields. Stock is maintained by the lot repository.
func (r *SQLRepository) Update(ctx context.Context, p *model.Product) error {
	query := `
        UPDATE products
        SET barcode = :barcode,
            name = :name,
            user_price = :user_price,
            unit_cost = :unit_cost,
            min_stock = :min_stock,
            unit_id = :unit_id,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := database.NamedExec(ctx, r.DB, query, p)
	if database.IsUniqueViolation(err) {
		return model.Validationf("barcode already exists")
	}
	if database.IsForeignKeyViolation(err) {
		return fmt.Errorf("product %s: %w", p.ID, model.ErrUnitNotFound)
	}
	if err != nil {
		return err
	}
	if ok, err := database.RowsAffected(res); err == nil && !ok {
		return fmt.Errorf("%s: %w", p.ID, model.ErrProductNotFound)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	_, err := database.Exec(ctx, r.DB, `DELETE FROM products WHERE id = ?`, id)
	if database.IsForeignKeyViolation(err) {
		return model.Validationf("product %s has sales history", id)
	}
	return err
}

func (r *SQLRepository) IsBarcodeUnique(ctx context.Context, barcode, excludeID string) (bool, error) {
	var count int
	err := database.Get(ctx, r.DB, &count, `SELECT COUNT(*) FROM products WHERE barcode = ? AND id <> ?`, barcode, excludeID)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}
