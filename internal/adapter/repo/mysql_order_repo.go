package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/usecase"
)

type MySQLOrderRepo struct{ db *sql.DB }

func NewMySQLOrderRepo(db *sql.DB) *MySQLOrderRepo { return &MySQLOrderRepo{db: db} }

// Create writes the order row and its item snapshots in one transaction so
// no partial order is ever visible to other components.
func (r *MySQLOrderRepo) Create(ctx context.Context, o *entity.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
INSERT INTO orders
  (id, user_id, email, first_name, last_name, address, apartment, city, zip_code, phone,
   subtotal, shipping_cost, total, status, paid, created_at)
VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		o.ID, nullable(o.UserID), o.Email,
		o.ShippingAddress.FirstName, o.ShippingAddress.LastName, o.ShippingAddress.Address,
		o.ShippingAddress.Apartment, o.ShippingAddress.City, o.ShippingAddress.ZipCode,
		o.ShippingAddress.Phone,
		o.Subtotal, o.ShippingCost, o.Total, string(o.Status), o.Paid, o.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for _, it := range o.Items {
		_, err = tx.ExecContext(ctx, `
INSERT INTO order_items (order_id, product_id, name, price, size, color, quantity, image)
VALUES (?,?,?,?,?,?,?,?)`,
			o.ID, it.ProductID, it.Name, it.Price, it.Size, it.Color, it.Quantity, it.Image,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *MySQLOrderRepo) GetByID(ctx context.Context, id string) (*entity.Order, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, user_id, email, first_name, last_name, address, apartment, city, zip_code, phone,
       subtotal, shipping_cost, total, status, paid, created_at
FROM orders WHERE id=?`, id)

	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, entity.ErrOrderNotFound
		}
		return nil, err
	}

	items, err := r.itemsFor(ctx, id)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return o, nil
}

func (r *MySQLOrderRepo) ListByUser(ctx context.Context, userID string) ([]entity.Order, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT id, user_id, email, first_name, last_name, address, apartment, city, zip_code, phone,
       subtotal, shipping_cost, total, status, paid, created_at
FROM orders WHERE user_id=? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		items, err := r.itemsFor(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Items = items
	}
	return out, nil
}

// MarkPaid is a keyed partial update: paid flips false→true and only a
// still-pending status advances to processing, so a concurrent admin edit
// (e.g. shipped) is never clobbered.
func (r *MySQLOrderRepo) MarkPaid(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE orders
SET paid = 1,
    status = IF(status = 'pending', 'processing', status)
WHERE id = ? AND paid = 0`, id)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLOrderRepo) UpdateStatus(ctx context.Context, id string, to entity.FulfillmentStatus) error {
	res, err := r.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, string(to), id)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		// MySQL reports 0 affected rows when the status already matches;
		// distinguish "missing" from "unchanged"
		var one int
		if err := r.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id=?`, id).Scan(&one); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return entity.ErrOrderNotFound
			}
			return err
		}
	}
	return nil
}

func (r *MySQLOrderRepo) FindPurchase(ctx context.Context, userID, productID string) (string, error) {
	var orderID string
	err := r.db.QueryRowContext(ctx, `
SELECT o.id
FROM orders o
JOIN order_items oi ON oi.order_id = o.id
WHERE o.user_id = ? AND oi.product_id = ? AND o.paid = 1
ORDER BY o.created_at DESC
LIMIT 1`, userID, productID).Scan(&orderID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", entity.ErrOrderNotFound
	}
	if err != nil {
		return "", err
	}
	return orderID, nil
}

func (r *MySQLOrderRepo) itemsFor(ctx context.Context, orderID string) ([]entity.OrderItem, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT product_id, name, price, size, color, quantity, image
FROM order_items WHERE order_id=? ORDER BY id ASC`, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []entity.OrderItem
	for rows.Next() {
		var it entity.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Price, &it.Size, &it.Color, &it.Quantity, &it.Image); err != nil {
			return nil, err
		}
		items = append(items, it)
	}
	return items, rows.Err()
}

type rowScanner interface{ Scan(dest ...any) error }

func scanOrder(row rowScanner) (*entity.Order, error) {
	var (
		o      entity.Order
		userID sql.NullString
		status string
	)
	err := row.Scan(&o.ID, &userID, &o.Email,
		&o.ShippingAddress.FirstName, &o.ShippingAddress.LastName, &o.ShippingAddress.Address,
		&o.ShippingAddress.Apartment, &o.ShippingAddress.City, &o.ShippingAddress.ZipCode,
		&o.ShippingAddress.Phone,
		&o.Subtotal, &o.ShippingCost, &o.Total, &status, &o.Paid, &o.CreatedAt)
	if err != nil {
		return nil, err
	}
	o.UserID = userID.String
	o.Status = entity.FulfillmentStatus(status)
	return &o, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

var _ usecase.OrderStore = (*MySQLOrderRepo)(nil)
