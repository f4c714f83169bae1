package usecase

import (
	"context"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/logging"
	"github.com/google/uuid"
)

// SettlementCurrency is the fixed currency all sessions are opened in.
const SettlementCurrency = "usd"

type OpenCheckoutInput struct {
	OrderID      string
	ReturnOrigin string // scheme://host the caller came from
	UserID       string // empty for guests
}

type OpenCheckoutOutput struct {
	CheckoutURL string `json:"checkout_url"`
	SessionID   string `json:"session_id"`
}

type OpenCheckout struct {
	orders   OrderStore
	payments PaymentStore
	provider CheckoutProvider
}

func NewOpenCheckout(orders OrderStore, payments PaymentStore, provider CheckoutProvider) *OpenCheckout {
	return &OpenCheckout{orders: orders, payments: payments, provider: provider}
}

func (uc *OpenCheckout) Execute(ctx context.Context, in OpenCheckoutInput) (*OpenCheckoutOutput, error) {
	origin, err := normalizeOrigin(in.ReturnOrigin)
	if err != nil {
		return nil, err
	}

	order, err := uc.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		return nil, err
	}

	l := logging.FromCtx(ctx).With("order_id", order.ID)
	if order.Paid {
		// allowed, but worth noticing: the caller is opening a second
		// session for an order that already settled
		l.Warn("opening checkout session for already-paid order")
	}

	userID := in.UserID
	if userID == "" {
		userID = entity.GuestUserID
	}

	sess, err := uc.provider.CreateSession(ctx, CreateSessionInput{
		AmountCents: dollarsToCents(order.Total),
		Currency:    SettlementCurrency,
		SuccessURL:  origin + "/checkout/success?session_id={CHECKOUT_SESSION_ID}",
		CancelURL:   origin + "/checkout",
		Metadata: map[string]string{
			"order_id": order.ID,
			"user_id":  userID,
			"email":    order.Email,
		},
	})
	if err != nil {
		return nil, err
	}

	tx := &entity.PaymentTransaction{
		ID:          uuid.NewString(),
		SessionID:   sess.ID,
		OrderID:     order.ID,
		UserID:      userID,
		Email:       order.Email,
		AmountCents: dollarsToCents(order.Total),
		Currency:    SettlementCurrency,
		Status:      entity.PaymentPending,
		CreatedAt:   time.Now().UTC(),
		UpdatedAt:   time.Now().UTC(),
	}
	if err := uc.payments.Create(ctx, tx); err != nil {
		return nil, &entity.PersistenceError{Op: "create payment transaction", Err: err}
	}

	l.Info("checkout session opened", "session_id", sess.ID, "amount_cents", tx.AmountCents)
	checkoutSessionsOpened.Inc()

	return &OpenCheckoutOutput{CheckoutURL: sess.URL, SessionID: sess.ID}, nil
}

func normalizeOrigin(raw string) (string, error) {
	if raw == "" {
		return "", entity.Invalid("origin_url", "required")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", entity.Invalid("origin_url", "must be an absolute http(s) origin")
	}
	return strings.TrimSuffix(raw, "/"), nil
}

func dollarsToCents(v float64) int64 {
	return int64(math.Round(v * 100))
}
