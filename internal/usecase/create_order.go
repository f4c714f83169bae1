package usecase

import (
	"context"
	"errors"
	"math"
	"net/mail"
	"time"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/logging"
	"github.com/google/uuid"
)

// ErrDuplicateRequest means another request holding the same idempotency key
// is still in flight and has not recorded its order yet.
var ErrDuplicateRequest = errors.New("duplicate request in flight")

type CartItemInput struct {
	ProductID string
	Name      string
	Price     float64
	Size      string
	Color     string
	Quantity  int
	Image     string
}

type CreateOrderInput struct {
	UserID          string // empty for guest checkout
	Email           string
	ShippingAddress entity.ShippingAddress
	Items           []CartItemInput
	IdempotencyKey  string // optional, from X-Idempotency-Key
}

type CreateOrder struct {
	orders OrderStore
	idem   IdempotencyStore
	events EventPublisher
}

func NewCreateOrder(orders OrderStore, idem IdempotencyStore, events EventPublisher) *CreateOrder {
	return &CreateOrder{orders: orders, idem: idem, events: events}
}

func (uc *CreateOrder) Execute(ctx context.Context, in CreateOrderInput) (*entity.Order, error) {
	if err := validateCart(in); err != nil {
		return nil, err
	}

	scope := in.UserID
	if scope == "" {
		scope = in.Email
	}

	// Fast path: a retry of a request we already completed.
	if in.IdempotencyKey != "" {
		if id, ok, _ := uc.idem.Recall(ctx, scope, in.IdempotencyKey); ok {
			return uc.orders.GetByID(ctx, id)
		}
		ok, err := uc.idem.TryLock(ctx, scope, in.IdempotencyKey)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, ErrDuplicateRequest
		}
	}

	var subtotal float64
	for _, it := range in.Items {
		subtotal += it.Price * float64(it.Quantity)
	}
	subtotal = roundCents(subtotal)

	shipping := entity.FlatShippingCost
	if subtotal >= entity.FreeShippingThreshold {
		shipping = 0
	}

	order := &entity.Order{
		ID:              uuid.NewString(),
		UserID:          in.UserID,
		Email:           in.Email,
		ShippingAddress: in.ShippingAddress,
		Items:           snapshotItems(in.Items),
		Subtotal:        subtotal,
		ShippingCost:    shipping,
		Total:           roundCents(subtotal + shipping),
		Status:          entity.StatusPending,
		Paid:            false,
		CreatedAt:       time.Now().UTC(),
	}

	if err := uc.orders.Create(ctx, order); err != nil {
		// release the lock so the mandated retry of the whole operation is
		// not bounced as a duplicate until the TTL expires
		if in.IdempotencyKey != "" {
			if uerr := uc.idem.Unlock(ctx, scope, in.IdempotencyKey); uerr != nil {
				logging.FromCtx(ctx).Warn("idempotency unlock failed", "scope", scope, "err", uerr)
			}
		}
		return nil, &entity.PersistenceError{Op: "create order", Err: err}
	}

	if in.IdempotencyKey != "" {
		_ = uc.idem.Remember(ctx, scope, in.IdempotencyKey, order.ID)
	}

	if uc.events != nil {
		if err := uc.events.PublishOrderCreated(ctx, OrderCreatedEvent{
			OrderID: order.ID,
			UserID:  order.UserID,
			Email:   order.Email,
			Total:   order.Total,
		}); err != nil {
			logging.FromCtx(ctx).Warn("publish order.created failed", "order_id", order.ID, "err", err)
		}
	}

	ordersCreated.Inc()
	return order, nil
}

func validateCart(in CreateOrderInput) error {
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return entity.Invalid("email", "not a valid address")
	}
	if !in.ShippingAddress.Complete() {
		return entity.Invalid("shipping_address", "missing required fields")
	}
	if len(in.Items) == 0 {
		return entity.Invalid("items", "at least one item required")
	}
	for _, it := range in.Items {
		if it.ProductID == "" {
			return entity.Invalid("items", "item missing product_id")
		}
		if it.Quantity <= 0 {
			return entity.Invalid("items", "quantity must be positive")
		}
		if it.Price < 0 {
			return entity.Invalid("items", "price must not be negative")
		}
	}
	return nil
}

func snapshotItems(items []CartItemInput) []entity.OrderItem {
	out := make([]entity.OrderItem, 0, len(items))
	for _, it := range items {
		out = append(out, entity.OrderItem{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}
	return out
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
