package usecase

import (
	"context"

	"github.com/ddebuut/storefront-api/internal/entity"
)

// Storage ports. The store is the single source of truth; no payment state
// is cached across requests. Implementations must make the conditional
// updates atomic (see TransitionFromPending and MarkPaid).

type OrderStore interface {
	Create(ctx context.Context, o *entity.Order) error
	GetByID(ctx context.Context, id string) (*entity.Order, error)
	ListByUser(ctx context.Context, userID string) ([]entity.Order, error)
	// MarkPaid sets paid=true and advances pending→processing in one
	// id-keyed partial update. paid never reverts; a status already past
	// pending is left alone. Reports whether a row changed.
	MarkPaid(ctx context.Context, id string) (bool, error)
	// UpdateStatus is the administrative/fulfillment status change.
	UpdateStatus(ctx context.Context, id string, to entity.FulfillmentStatus) error
	// FindPurchase returns the id of a paid order of the user containing
	// the product, or entity.ErrOrderNotFound.
	FindPurchase(ctx context.Context, userID, productID string) (string, error)
}

type PaymentStore interface {
	Create(ctx context.Context, tx *entity.PaymentTransaction) error
	GetBySessionID(ctx context.Context, sessionID string) (*entity.PaymentTransaction, error)
	// TransitionFromPending is a compare-and-set: it moves the transaction
	// to the given terminal status only if the stored status is still
	// pending, and reports whether this caller won the transition.
	TransitionFromPending(ctx context.Context, sessionID string, to entity.PaymentStatus) (bool, error)
	// ListPaidUnsettled returns paid transactions whose linked order has
	// not been marked paid (crash between the two reconciliation writes).
	ListPaidUnsettled(ctx context.Context, limit int) ([]entity.PaymentTransaction, error)
}

type ReviewStore interface {
	// Create persists the review; returns entity.ErrDuplicateReview when the
	// (user_id, product_id) uniqueness constraint rejects the insert.
	Create(ctx context.Context, r *entity.Review) error
	ExistsForUserProduct(ctx context.Context, userID, productID string) (bool, error)
	ListByProduct(ctx context.Context, productID string) ([]entity.Review, error)
}

// ProductDirectory is the read-only slice of the catalog service this
// component consumes. ref may be an id or a slug.
type ProductDirectory interface {
	Resolve(ctx context.Context, ref string) (*entity.Product, error)
}

// ProviderSession is the provider's view of a hosted checkout session.
type ProviderSession struct {
	ID            string
	URL           string
	Status        string // open | complete | expired
	PaymentStatus entity.PaymentStatus
	AmountTotal   int64
	Currency      string
}

type CreateSessionInput struct {
	AmountCents int64
	Currency    string
	SuccessURL  string
	CancelURL   string
	Metadata    map[string]string
}

// CheckoutProvider wraps the external payment provider. Both calls carry a
// bounded timeout and surface entity.ErrProviderUnavailable on transport
// failure.
type CheckoutProvider interface {
	CreateSession(ctx context.Context, in CreateSessionInput) (*ProviderSession, error)
	GetSession(ctx context.Context, sessionID string) (*ProviderSession, error)
}

type OrderCreatedEvent struct {
	OrderID string  `json:"order_id"`
	UserID  string  `json:"user_id,omitempty"`
	Email   string  `json:"email"`
	Total   float64 `json:"total"`
}

type PaymentConfirmedEvent struct {
	OrderID     string `json:"order_id"`
	SessionID   string `json:"session_id"`
	Email       string `json:"email"`
	AmountCents int64  `json:"amount_cents"`
	Currency    string `json:"currency"`
}

// EventPublisher emits advisory events after durable writes. Publish
// failures are logged by callers, never returned to the client; the store
// remains the source of truth.
type EventPublisher interface {
	PublishOrderCreated(ctx context.Context, ev OrderCreatedEvent) error
	PublishPaymentConfirmed(ctx context.Context, ev PaymentConfirmedEvent) error
}

type IdempotencyStore interface {
	TryLock(ctx context.Context, scope, key string) (bool, error)
	// Unlock releases a held lock without recording a result, so a retry of
	// a failed request is not mistaken for a duplicate.
	Unlock(ctx context.Context, scope, key string) error
	Remember(ctx context.Context, scope, key, value string) error
	Recall(ctx context.Context, scope, key string) (string, bool, error)
}
