package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/usecase"
)

// MySQLProductRepo is a read-only lookup against the catalog tables.
// Catalog CRUD belongs to the catalog service.
type MySQLProductRepo struct{ db *sql.DB }

func NewMySQLProductRepo(db *sql.DB) *MySQLProductRepo { return &MySQLProductRepo{db: db} }

// Resolve accepts a product id or a human-readable slug.
func (r *MySQLProductRepo) Resolve(ctx context.Context, ref string) (*entity.Product, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, slug, name, price FROM products WHERE id = ? OR slug = ? LIMIT 1`,
		ref, ref)

	var p entity.Product
	err := row.Scan(&p.ID, &p.Slug, &p.Name, &p.Price)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrProductNotFound
	}
	if err != nil {
		return nil, err
	}
	return &p, nil
}

var _ usecase.ProductDirectory = (*MySQLProductRepo)(nil)
