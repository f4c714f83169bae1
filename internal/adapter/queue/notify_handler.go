package queue

import (
	"context"

	"github.com/ddebuut/storefront-api/internal/logging"
	"github.com/ddebuut/storefront-api/internal/usecase"
)

// NotifyQueue is the queue the notification consumer drains.
const NotifyQueue = notifyQueueName

// Mailer sends the confirmation mail promised on the success page. The real
// sender lives in the notification service; this port keeps it pluggable.
type Mailer interface {
	SendPaymentConfirmation(ctx context.Context, to, orderID string, amountCents int64, currency string) error
}

// PaymentConfirmedHandler consumes payment.confirmed and triggers the
// customer confirmation email. Safe to redeliver: sending twice is the
// mailer's problem to dedupe, and the event carries everything needed.
type PaymentConfirmedHandler struct {
	mailer Mailer
}

func NewPaymentConfirmedHandler(m Mailer) *PaymentConfirmedHandler {
	return &PaymentConfirmedHandler{mailer: m}
}

// HandleConfirmed is used with queue.JSONHandler[usecase.PaymentConfirmedEvent].
func (h *PaymentConfirmedHandler) HandleConfirmed(ctx context.Context, ev usecase.PaymentConfirmedEvent) error {
	if h.mailer == nil {
		logging.FromCtx(ctx).Info("payment confirmed, no mailer configured",
			"order_id", ev.OrderID, "email", ev.Email)
		return nil
	}
	return h.mailer.SendPaymentConfirmation(ctx, ev.Email, ev.OrderID, ev.AmountCents, ev.Currency)
}
