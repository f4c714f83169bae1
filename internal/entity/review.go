package entity

import "time"

// Review is verified feedback tied to a completed purchase. Immutable once
// written; at most one per (user, product), enforced by the storage layer.
type Review struct {
	ID               string    `json:"id"`
	ProductID        string    `json:"product_id"`
	OrderID          string    `json:"order_id"`
	UserID           string    `json:"user_id"`
	UserName         string    `json:"user_name"` // display-name snapshot at submission time
	Rating           int       `json:"rating"`
	Title            string    `json:"title"`
	Comment          string    `json:"comment"`
	VerifiedPurchase bool      `json:"verified_purchase"`
	CreatedAt        time.Time `json:"created_at"`
}

// Eligibility reasons returned by the can-review check.
const (
	ReasonAlreadyReviewed = "already_reviewed"
	ReasonNotPurchased    = "not_purchased"
)
