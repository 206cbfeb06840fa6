package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/fekuna/omnipos-sales-service/internal/model"
	"github.com/fekuna/omnipos-sales-service/internal/unit/dto"
	"github.com/fekuna/omnipos-sales-service/pkg/database"
	"github.com/jmoiron/sqlx"
)

type SQLRepository struct {
	DB *sqlx.DB
}

func NewSQLRepository(db *sqlx.DB) *SQLRepository {
	return &SQLRepository{DB: db}
}

func (r *SQLRepository) Create(ctx context.Context, u *model.Unit) error {
	query := `
        INSERT INTO units (id, name, abbreviation, created_at, updated_at)
        VALUES (:id, :name, :abbreviation, :created_at, :updated_at)
    `
	_, err := database.NamedExec(ctx, r.DB, query, u)
	if database.IsUniqueViolation(err) {
		return model.Validationf("unit %q already exists", u.Name)
	}
	return err
}

func (r *SQLRepository) FindByID(ctx context.Context, id string) (*model.Unit, error) {
	var u model.Unit
	err := database.Get(ctx, r.DB, &u, `SELECT * FROM units WHERE id = ?`, id)
	if database.IsNoRows(err) {
		return nil, fmt.Errorf("%s: %w", id, model.ErrUnitNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *SQLRepository) FindAll(ctx context.Context, f *dto.UnitFilters) ([]model.Unit, int, error) {
	conditions := []string{}
	args := []interface{}{}

	if f.Search != "" {
		conditions = append(conditions, "(LOWER(name) LIKE ? OR LOWER(abbreviation) LIKE ?)")
		pattern := database.Contains(f.Search)
		args = append(args, pattern, pattern)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := database.Get(ctx, r.DB, &count, "SELECT COUNT(*) FROM units"+whereClause, args...); err != nil {
		return nil, 0, err
	}

	query := database.Paginate("SELECT * FROM units"+whereClause+" ORDER BY name ASC", f.Page, f.PageSize)
	units := []model.Unit{}
	if err := database.Select(ctx, r.DB, &units, query, args...); err != nil {
		return nil, 0, err
	}
	return units, count, nil
}

func (r *SQLRepository) Update(ctx context.Context, u *model.Unit) error {
	query := `
        UPDATE units
        SET name = :name,
            abbreviation = :abbreviation,
            updated_at = :updated_at
        WHERE id = :id
    `
	res, err := database.NamedExec(ctx, r.DB, query, u)
	if database.IsUniqueViolation(err) {
		return model.Validationf("unit %q already exists", u.Name)
	}
	if err != nil {
		return err
	}
	if ok, err := database.RowsAffected(res); err == nil && !ok {
		return fmt.Errorf("%s: %w", u.ID, model.ErrUnitNotFound)
	}
	return nil
}

func (r *SQLRepository) Delete(ctx context.Context, id string) error {
	_, err := database.Exec(ctx, r.DB, `DELETE FROM units WHERE id = ?`, id)
	if database.IsForeignKeyViolation(err) {
		return model.Validationf("unit %s is still in use", id)
	}
	return err
}

func (r *SQLRepository) CountProducts(ctx context.Context, id string) (int, error) {
	var n int
	err := database.Get(ctx, r.DB, &n, `SELECT COUNT(*) FROM products WHERE unit_id = ?`, id)
	return n, err
}
