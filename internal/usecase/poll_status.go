package usecase

import (
	"context"
	"errors"

	"github.com/ddebuut/storefront-api/internal/entity"
)

// StatusView is what the success-page poller sees.
type StatusView struct {
	Status        string               `json:"status"`
	PaymentStatus entity.PaymentStatus `json:"payment_status"`
	AmountTotal   int64                `json:"amount_total"`
	Currency      string               `json:"currency"`
}

// PollStatus fetches the provider's current view of a session and feeds it
// through the reconciliation engine, so polling alone settles an order even
// when the webhook never arrives.
type PollStatus struct {
	provider CheckoutProvider
	apply    *ApplyStatus
}

func NewPollStatus(provider CheckoutProvider, apply *ApplyStatus) *PollStatus {
	return &PollStatus{provider: provider, apply: apply}
}

func (uc *PollStatus) Execute(ctx context.Context, sessionID string) (*StatusView, error) {
	sess, err := uc.provider.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	// The provider knows this session even if we have no transaction for it
	// (stale client, wiped store). Reconcile what we can, report regardless.
	if _, err := uc.apply.Execute(ctx, sessionID, sess.PaymentStatus, SourcePoll); err != nil &&
		!errors.Is(err, entity.ErrTransactionNotFound) {
		return nil, err
	}

	return &StatusView{
		Status:        sess.Status,
		PaymentStatus: sess.PaymentStatus,
		AmountTotal:   sess.AmountTotal,
		Currency:      sess.Currency,
	}, nil
}
