package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ddebuut/storefront-api/internal/entity"
)

func checkoutFixture(total float64) (*fakeOrderStore, *fakePaymentStore, *fakeProvider) {
	orders := newFakeOrderStore()
	_ = orders.Create(context.Background(), &entity.Order{
		ID:    "o1",
		Email: "ada@example.com",
		Total: total,
	})
	provider := &fakeProvider{session: &ProviderSession{
		ID:  "sess_1",
		URL: "https://pay.example.com/c/sess_1",
	}}
	return orders, newFakePaymentStore(), provider
}

func TestOpenCheckout(t *testing.T) {
	t.Run("opens a session and records a pending transaction", func(t *testing.T) {
		orders, payments, provider := checkoutFixture(40.99)
		uc := NewOpenCheckout(orders, payments, provider)

		out, err := uc.Execute(context.Background(), OpenCheckoutInput{
			OrderID:      "o1",
			ReturnOrigin: "https://shop.example.com",
			UserID:       "u1",
		})
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if out.SessionID != "sess_1" || out.CheckoutURL == "" {
			t.Errorf("got %+v", out)
		}

		in := provider.createInput
		if in.AmountCents != 4099 {
			t.Errorf("amount = %d cents, want 4099", in.AmountCents)
		}
		if in.Currency != SettlementCurrency {
			t.Errorf("currency = %s", in.Currency)
		}
		if in.SuccessURL != "https://shop.example.com/checkout/success?session_id={CHECKOUT_SESSION_ID}" {
			t.Errorf("success url = %s", in.SuccessURL)
		}
		if in.Metadata["order_id"] != "o1" || in.Metadata["user_id"] != "u1" {
			t.Errorf("metadata = %v", in.Metadata)
		}

		tx, err := payments.GetBySessionID(context.Background(), "sess_1")
		if err != nil {
			t.Fatalf("transaction not recorded: %v", err)
		}
		if tx.Status != entity.PaymentPending || tx.AmountCents != 4099 || tx.OrderID != "o1" {
			t.Errorf("tx = %+v", tx)
		}
	})

	t.Run("guest order falls back to the guest user id", func(t *testing.T) {
		orders, payments, provider := checkoutFixture(25)
		uc := NewOpenCheckout(orders, payments, provider)

		if _, err := uc.Execute(context.Background(), OpenCheckoutInput{
			OrderID:      "o1",
			ReturnOrigin: "https://shop.example.com",
		}); err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if got := provider.createInput.Metadata["user_id"]; got != entity.GuestUserID {
			t.Errorf("user_id = %s, want %s", got, entity.GuestUserID)
		}
		tx, _ := payments.GetBySessionID(context.Background(), "sess_1")
		if tx.UserID != entity.GuestUserID {
			t.Errorf("tx user = %s", tx.UserID)
		}
	})

	t.Run("rejects a bad return origin", func(t *testing.T) {
		orders, payments, provider := checkoutFixture(25)
		uc := NewOpenCheckout(orders, payments, provider)

		for _, origin := range []string{"", "shop.example.com", "ftp://shop.example.com", "https://"} {
			_, err := uc.Execute(context.Background(), OpenCheckoutInput{OrderID: "o1", ReturnOrigin: origin})
			if !entity.IsValidation(err) {
				t.Errorf("origin %q: want validation error, got %v", origin, err)
			}
		}
	})

	t.Run("unknown order", func(t *testing.T) {
		orders, payments, provider := checkoutFixture(25)
		uc := NewOpenCheckout(orders, payments, provider)

		_, err := uc.Execute(context.Background(), OpenCheckoutInput{
			OrderID:      "o-missing",
			ReturnOrigin: "https://shop.example.com",
		})
		if !errors.Is(err, entity.ErrOrderNotFound) {
			t.Fatalf("want ErrOrderNotFound, got %v", err)
		}
	})

	t.Run("provider outage surfaces as retryable", func(t *testing.T) {
		orders, payments, provider := checkoutFixture(25)
		provider.err = entity.ErrProviderUnavailable
		uc := NewOpenCheckout(orders, payments, provider)

		_, err := uc.Execute(context.Background(), OpenCheckoutInput{
			OrderID:      "o1",
			ReturnOrigin: "https://shop.example.com",
		})
		if !errors.Is(err, entity.ErrProviderUnavailable) {
			t.Fatalf("want ErrProviderUnavailable, got %v", err)
		}
		if _, err := payments.GetBySessionID(context.Background(), "sess_1"); !errors.Is(err, entity.ErrTransactionNotFound) {
			t.Error("no transaction must be recorded when the provider call fails")
		}
	})
}

func TestPollStatus(t *testing.T) {
	t.Run("paid poll settles the order", func(t *testing.T) {
		orders := newFakeOrderStore()
		payments := newFakePaymentStore()
		seedPendingPayment(t, orders, payments)

		provider := &fakeProvider{session: &ProviderSession{
			ID:            "sess_1",
			Status:        "complete",
			PaymentStatus: entity.PaymentPaid,
			AmountTotal:   4099,
			Currency:      "usd",
		}}
		uc := NewPollStatus(provider, NewApplyStatus(orders, payments, nil))

		view, err := uc.Execute(context.Background(), "sess_1")
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if view.PaymentStatus != entity.PaymentPaid || view.AmountTotal != 4099 || view.Currency != "usd" {
			t.Errorf("view = %+v", view)
		}

		order, _ := orders.GetByID(context.Background(), "o1")
		if !order.Paid {
			t.Error("polling alone must settle the order")
		}
	})

	t.Run("session unknown to the store still reports provider state", func(t *testing.T) {
		provider := &fakeProvider{session: &ProviderSession{
			ID:            "sess_ghost",
			Status:        "open",
			PaymentStatus: entity.PaymentPending,
		}}
		uc := NewPollStatus(provider, NewApplyStatus(newFakeOrderStore(), newFakePaymentStore(), nil))

		view, err := uc.Execute(context.Background(), "sess_ghost")
		if err != nil {
			t.Fatalf("Execute: %v", err)
		}
		if view.Status != "open" {
			t.Errorf("view = %+v", view)
		}
	})

	t.Run("provider error propagates", func(t *testing.T) {
		provider := &fakeProvider{err: entity.ErrProviderUnavailable}
		uc := NewPollStatus(provider, NewApplyStatus(newFakeOrderStore(), newFakePaymentStore(), nil))

		if _, err := uc.Execute(context.Background(), "sess_1"); !errors.Is(err, entity.ErrProviderUnavailable) {
			t.Fatalf("want ErrProviderUnavailable, got %v", err)
		}
	})
}
