package repo

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/usecase"
)

type MySQLPaymentRepo struct{ db *sql.DB }

func NewMySQLPaymentRepo(db *sql.DB) *MySQLPaymentRepo { return &MySQLPaymentRepo{db: db} }

func (r *MySQLPaymentRepo) Create(ctx context.Context, tx *entity.PaymentTransaction) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO payment_transactions
  (id, session_id, order_id, user_id, email, amount_cents, currency, payment_status, created_at, updated_at)
VALUES (?,?,?,?,?,?,?,?,?,?)`,
		tx.ID, tx.SessionID, tx.OrderID, tx.UserID, tx.Email,
		tx.AmountCents, tx.Currency, string(tx.Status), tx.CreatedAt, tx.UpdatedAt,
	)
	return err
}

func (r *MySQLPaymentRepo) GetBySessionID(ctx context.Context, sessionID string) (*entity.PaymentTransaction, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT id, session_id, order_id, user_id, email, amount_cents, currency, payment_status, created_at, updated_at
FROM payment_transactions WHERE session_id=?`, sessionID)

	var (
		tx     entity.PaymentTransaction
		status string
	)
	err := row.Scan(&tx.ID, &tx.SessionID, &tx.OrderID, &tx.UserID, &tx.Email,
		&tx.AmountCents, &tx.Currency, &status, &tx.CreatedAt, &tx.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, entity.ErrTransactionNotFound
	}
	if err != nil {
		return nil, err
	}
	tx.Status = entity.PaymentStatus(status)
	return &tx, nil
}

// TransitionFromPending is the compare-and-set closing the race where two
// events pass the "still pending" check at the same time: the WHERE clause
// makes the check and the write one atomic statement, and RowsAffected says
// who won.
func (r *MySQLPaymentRepo) TransitionFromPending(ctx context.Context, sessionID string, to entity.PaymentStatus) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
UPDATE payment_transactions
SET payment_status = ?, updated_at = NOW()
WHERE session_id = ? AND payment_status = 'pending'`,
		string(to), sessionID)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (r *MySQLPaymentRepo) ListPaidUnsettled(ctx context.Context, limit int) ([]entity.PaymentTransaction, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT t.id, t.session_id, t.order_id, t.user_id, t.email, t.amount_cents, t.currency,
       t.payment_status, t.created_at, t.updated_at
FROM payment_transactions t
JOIN orders o ON o.id = t.order_id
WHERE t.payment_status = 'paid' AND o.paid = 0
LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []entity.PaymentTransaction
	for rows.Next() {
		var (
			tx     entity.PaymentTransaction
			status string
		)
		if err := rows.Scan(&tx.ID, &tx.SessionID, &tx.OrderID, &tx.UserID, &tx.Email,
			&tx.AmountCents, &tx.Currency, &status, &tx.CreatedAt, &tx.UpdatedAt); err != nil {
			return nil, err
		}
		tx.Status = entity.PaymentStatus(status)
		out = append(out, tx)
	}
	return out, rows.Err()
}

var _ usecase.PaymentStore = (*MySQLPaymentRepo)(nil)
