package usecase

import (
	"context"
	"testing"

	"github.com/ddebuut/storefront-api/internal/entity"
)

func TestSweeper_RepairsPartialReconciliation(t *testing.T) {
	orders := newFakeOrderStore()
	payments := newFakePaymentStore()

	// crash happened after the transaction write, before the order write
	_ = orders.Create(context.Background(), &entity.Order{ID: "o1", Status: entity.StatusPending})
	payments.unsettled = []entity.PaymentTransaction{
		{ID: "t1", SessionID: "sess_1", OrderID: "o1", Status: entity.PaymentPaid},
	}

	s := NewSweeper(orders, payments, 0, 0)
	repaired, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d, want 1", repaired)
	}

	order, _ := orders.GetByID(context.Background(), "o1")
	if !order.Paid || order.Status != entity.StatusProcessing {
		t.Errorf("order not repaired: status=%s paid=%v", order.Status, order.Paid)
	}
}

func TestSweeper_NothingToRepair(t *testing.T) {
	s := NewSweeper(newFakeOrderStore(), newFakePaymentStore(), 0, 0)
	repaired, err := s.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep: %v", err)
	}
	if repaired != 0 {
		t.Errorf("repaired = %d, want 0", repaired)
	}
}
