package usecase

import (
	"context"
	"time"

	"github.com/ddebuut/storefront-api/internal/logging"
)

// Sweeper repairs the at-least-once gap in the reconciliation path: a crash
// after the transaction went paid but before the order write leaves a paid
// transaction pointing at an unpaid order. Redelivered webhooks no-op on
// such transactions, so the repair has to come from here.
type Sweeper struct {
	orders   OrderStore
	payments PaymentStore
	interval time.Duration
	batch    int
}

func NewSweeper(orders OrderStore, payments PaymentStore, interval time.Duration, batch int) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	if batch <= 0 {
		batch = 50
	}
	return &Sweeper{orders: orders, payments: payments, interval: interval, batch: batch}
}

// Run blocks until ctx is cancelled. Call it from a goroutine at startup.
func (s *Sweeper) Run(ctx context.Context) {
	t := time.NewTicker(s.interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if _, err := s.Sweep(ctx); err != nil {
				logging.FromCtx(ctx).Error("reconciliation sweep failed", "err", err)
			}
		}
	}
}

// Sweep runs one pass and returns how many orders it repaired.
func (s *Sweeper) Sweep(ctx context.Context) (int, error) {
	txs, err := s.payments.ListPaidUnsettled(ctx, s.batch)
	if err != nil {
		return 0, err
	}

	repaired := 0
	l := logging.FromCtx(ctx)
	for _, tx := range txs {
		changed, err := s.orders.MarkPaid(ctx, tx.OrderID)
		if err != nil {
			// leave it for the next pass
			l.Warn("sweep could not repair order", "order_id", tx.OrderID, "err", err)
			continue
		}
		if changed {
			l.Info("sweep repaired order after partial reconciliation",
				"order_id", tx.OrderID, "session_id", tx.SessionID)
			sweeperRepairs.Inc()
			repaired++
		}
	}
	return repaired, nil
}
