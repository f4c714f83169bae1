package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/usecase"
	"github.com/go-sql-driver/mysql"
)

const mysqlErrDuplicateEntry = 1062

type MySQLReviewRepo struct{ db *sql.DB }

func NewMySQLReviewRepo(db *sql.DB) *MySQLReviewRepo { return &MySQLReviewRepo{db: db} }

// Create relies on the uq_user_product unique key: two concurrent submits
// can both pass the application-level check, but only one insert survives.
func (r *MySQLReviewRepo) Create(ctx context.Context, rv *entity.Review) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO reviews
  (id, product_id, order_id, user_id, user_name, rating, title, comment, verified_purchase, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		rv.ID, rv.ProductID, rv.OrderID, rv.UserID, rv.UserName,
		rv.Rating, rv.Title, rv.Comment, rv.VerifiedPurchase, rv.CreatedAt,
	)
	var me *mysql.MySQLError
	if errors.As(err, &me) && me.Number == mysqlErrDuplicateEntry {
		return entity.ErrDuplicateReview
	}
	return err
}

func (r *MySQLReviewRepo) ExistsForUserProduct(ctx context.Context, userID, productID string) (bool, error) {
	var one int
	err := r.db.QueryRowContext(ctx,
		`SELECT 1 FROM reviews WHERE user_id=? AND product_id=? LIMIT 1`,
		userID, productID).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *MySQLReviewRepo) ListByProduct(ctx context.Context, productID string) ([]entity.Review, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, product_id, order_id, user_id, user_name, rating, title, comment, verified_purchase, created_at
FROM reviews WHERE product_id=? ORDER BY created_at DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Review
	for rows.Next() {
		var rv entity.Review
		if err := rows.Scan(&rv.ID, &rv.ProductID, &rv.OrderID, &rv.UserID, &rv.UserName,
			&rv.Rating, &rv.Title, &rv.Comment, &rv.VerifiedPurchase, &rv.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rv)
	}
	return out, rows.Err()
}

var _ usecase.ReviewStore = (*MySQLReviewRepo)(nil)
