package usecase

import (
	"context"
	"errors"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/logging"
)

// Event sources feeding ApplyStatus. Used for logs and metrics only; both
// paths run the same transition logic.
const (
	SourcePoll    = "poll"
	SourceWebhook = "webhook"
	SourceSweep   = "sweep"
)

// ApplyStatus is the reconciliation engine. Poll results and webhook events
// funnel into Execute, which is idempotent and safe to call concurrently for
// the same session from any number of processes: the pending→terminal move
// is a conditional update in the store, and paid is absorbing, so duplicate
// and out-of-order events degrade to no-ops.
type ApplyStatus struct {
	orders   OrderStore
	payments PaymentStore
	events   EventPublisher
}

func NewApplyStatus(orders OrderStore, payments PaymentStore, events EventPublisher) *ApplyStatus {
	return &ApplyStatus{orders: orders, payments: payments, events: events}
}

// Execute applies an observed payment status to the transaction keyed by
// sessionID. An unknown session returns entity.ErrTransactionNotFound; the
// webhook handler treats that as a safe no-op, not a failure.
func (uc *ApplyStatus) Execute(ctx context.Context, sessionID string, newStatus entity.PaymentStatus, source string) (*entity.PaymentTransaction, error) {
	l := logging.FromCtx(ctx).With("session_id", sessionID, "source", source)

	if !newStatus.Valid() {
		return nil, entity.Invalid("payment_status", "unknown status "+string(newStatus))
	}

	tx, err := uc.payments.GetBySessionID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, entity.ErrTransactionNotFound) {
			// A session this instance never created (restart against stale
			// state) or a forged event. Nothing to mutate.
			l.Info("status event for unknown session", "status", newStatus)
			statusApplied.WithLabelValues(source, "unknown_session").Inc()
		}
		return nil, err
	}

	// Absorbing/no-op rules: paid never regresses, pending carries no new
	// information, and a repeat of the stored status is a duplicate.
	if tx.Status == entity.PaymentPaid || newStatus == entity.PaymentPending || tx.Status == newStatus {
		statusApplied.WithLabelValues(source, "noop").Inc()
		return tx, nil
	}

	won, err := uc.payments.TransitionFromPending(ctx, sessionID, newStatus)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "transition payment status", Err: err}
	}
	if !won {
		// A concurrent event got there first. Whatever it wrote stands.
		statusApplied.WithLabelValues(source, "lost_race").Inc()
		return uc.payments.GetBySessionID(ctx, sessionID)
	}
	tx.Status = newStatus

	if newStatus != entity.PaymentPaid {
		// failed/expired: recorded on the transaction only. The order stays
		// pending/unpaid so the customer can retry; it is never
		// auto-cancelled here.
		l.Info("payment did not complete", "order_id", tx.OrderID, "status", newStatus)
		statusApplied.WithLabelValues(source, string(newStatus)).Inc()
		return tx, nil
	}

	// The two writes below are not atomic across rows. If we crash between
	// them the transaction is already paid, so redelivered events no-op;
	// the sweeper re-attempts the order side.
	changed, err := uc.orders.MarkPaid(ctx, tx.OrderID)
	if err != nil {
		return nil, &entity.PersistenceError{Op: "mark order paid", Err: err}
	}
	if !changed {
		l.Warn("order already marked paid", "order_id", tx.OrderID)
	}

	if uc.events != nil {
		if err := uc.events.PublishPaymentConfirmed(ctx, PaymentConfirmedEvent{
			OrderID:     tx.OrderID,
			SessionID:   tx.SessionID,
			Email:       tx.Email,
			AmountCents: tx.AmountCents,
			Currency:    tx.Currency,
		}); err != nil {
			l.Warn("publish payment.confirmed failed", "order_id", tx.OrderID, "err", err)
		}
	}

	l.Info("payment confirmed", "order_id", tx.OrderID)
	statusApplied.WithLabelValues(source, "paid").Inc()
	return tx, nil
}
