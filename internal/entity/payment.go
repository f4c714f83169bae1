package entity

import "time"

type PaymentStatus string

const (
	PaymentPending PaymentStatus = "pending"
	PaymentPaid    PaymentStatus = "paid"
	PaymentExpired PaymentStatus = "expired"
	PaymentFailed  PaymentStatus = "failed"
)

// Terminal reports whether the status can never change again. "paid" is
// additionally absorbing: no later event may downgrade it.
func (s PaymentStatus) Terminal() bool {
	return s == PaymentPaid || s == PaymentExpired || s == PaymentFailed
}

func (s PaymentStatus) Valid() bool {
	return s == PaymentPending || s.Terminal()
}

// GuestUserID marks transactions opened without an authenticated caller.
const GuestUserID = "guest"

// PaymentTransaction records one hosted checkout session and its observed
// outcome. SessionID is the reconciliation key; exactly one transaction
// exists per provider session.
type PaymentTransaction struct {
	ID          string        `json:"id"`
	SessionID   string        `json:"session_id"`
	OrderID     string        `json:"order_id"`
	UserID      string        `json:"user_id"`
	Email       string        `json:"email"`
	AmountCents int64         `json:"amount_cents"` // fixed at creation from the order total
	Currency    string        `json:"currency"`
	Status      PaymentStatus `json:"payment_status"`
	CreatedAt   time.Time     `json:"created_at"`
	UpdatedAt   time.Time     `json:"updated_at"`
}
