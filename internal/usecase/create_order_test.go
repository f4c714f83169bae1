package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/ddebuut/storefront-api/internal/entity"
)

func validAddress() entity.ShippingAddress {
	return entity.ShippingAddress{
		FirstName: "Ada",
		LastName:  "Lovelace",
		Address:   "1 Analytical Way",
		City:      "London",
		ZipCode:   "E1 6AN",
	}
}

func TestCreateOrder_ShippingPolicy(t *testing.T) {
	cases := []struct {
		name         string
		items        []CartItemInput
		wantSubtotal float64
		wantShipping float64
		wantTotal    float64
	}{
		{
			name: "below threshold pays flat shipping",
			items: []CartItemInput{
				{ProductID: "p1", Name: "Tee", Price: 20.00, Quantity: 1},
				{ProductID: "p2", Name: "Cap", Price: 15.00, Quantity: 1},
			},
			wantSubtotal: 35.00,
			wantShipping: 5.99,
			wantTotal:    40.99,
		},
		{
			name: "above threshold ships free",
			items: []CartItemInput{
				{ProductID: "p1", Name: "Hoodie", Price: 50.00, Quantity: 1},
			},
			wantSubtotal: 50.00,
			wantShipping: 0,
			wantTotal:    50.00,
		},
		{
			name: "exactly at threshold ships free",
			items: []CartItemInput{
				{ProductID: "p1", Name: "Tee", Price: 13.00, Quantity: 3},
			},
			wantSubtotal: 39.00,
			wantShipping: 0,
			wantTotal:    39.00,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			orders := newFakeOrderStore()
			uc := NewCreateOrder(orders, newFakeIdemStore(), nil)

			order, err := uc.Execute(context.Background(), CreateOrderInput{
				Email:           "ada@example.com",
				ShippingAddress: validAddress(),
				Items:           tc.items,
			})
			if err != nil {
				t.Fatalf("Execute: %v", err)
			}
			if order.Subtotal != tc.wantSubtotal {
				t.Errorf("subtotal = %v, want %v", order.Subtotal, tc.wantSubtotal)
			}
			if order.ShippingCost != tc.wantShipping {
				t.Errorf("shipping = %v, want %v", order.ShippingCost, tc.wantShipping)
			}
			if order.Total != tc.wantTotal {
				t.Errorf("total = %v, want %v", order.Total, tc.wantTotal)
			}
			if order.Status != entity.StatusPending || order.Paid {
				t.Errorf("new order must start pending and unpaid, got %s paid=%v", order.Status, order.Paid)
			}
			if _, err := orders.GetByID(context.Background(), order.ID); err != nil {
				t.Errorf("order not persisted: %v", err)
			}
		})
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	item := CartItemInput{ProductID: "p1", Name: "Tee", Price: 10, Quantity: 1}

	cases := []struct {
		name string
		in   CreateOrderInput
	}{
		{
			name: "bad email",
			in:   CreateOrderInput{Email: "not-an-email", ShippingAddress: validAddress(), Items: []CartItemInput{item}},
		},
		{
			name: "incomplete address",
			in:   CreateOrderInput{Email: "a@b.com", ShippingAddress: entity.ShippingAddress{FirstName: "Ada"}, Items: []CartItemInput{item}},
		},
		{
			name: "empty cart",
			in:   CreateOrderInput{Email: "a@b.com", ShippingAddress: validAddress()},
		},
		{
			name: "zero quantity",
			in: CreateOrderInput{Email: "a@b.com", ShippingAddress: validAddress(),
				Items: []CartItemInput{{ProductID: "p1", Name: "Tee", Price: 10, Quantity: 0}}},
		},
		{
			name: "negative price",
			in: CreateOrderInput{Email: "a@b.com", ShippingAddress: validAddress(),
				Items: []CartItemInput{{ProductID: "p1", Name: "Tee", Price: -1, Quantity: 1}}},
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			uc := NewCreateOrder(newFakeOrderStore(), newFakeIdemStore(), nil)
			_, err := uc.Execute(context.Background(), tc.in)
			if !entity.IsValidation(err) {
				t.Fatalf("want validation error, got %v", err)
			}
		})
	}
}

func TestCreateOrder_Idempotency(t *testing.T) {
	t.Run("retry with same key returns the original order", func(t *testing.T) {
		orders := newFakeOrderStore()
		uc := NewCreateOrder(orders, newFakeIdemStore(), nil)
		in := CreateOrderInput{
			UserID:          "u1",
			Email:           "ada@example.com",
			ShippingAddress: validAddress(),
			Items:           []CartItemInput{{ProductID: "p1", Name: "Tee", Price: 10, Quantity: 1}},
			IdempotencyKey:  "key-1",
		}

		first, err := uc.Execute(context.Background(), in)
		if err != nil {
			t.Fatalf("first Execute: %v", err)
		}
		second, err := uc.Execute(context.Background(), in)
		if err != nil {
			t.Fatalf("second Execute: %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("retry created a new order: %s vs %s", first.ID, second.ID)
		}
	})

	t.Run("concurrent in-flight request is rejected", func(t *testing.T) {
		idem := newFakeIdemStore()
		// simulate a request that holds the lock but has not finished
		if ok, _ := idem.TryLock(context.Background(), "u1", "key-1"); !ok {
			t.Fatal("setup lock failed")
		}

		uc := NewCreateOrder(newFakeOrderStore(), idem, nil)
		_, err := uc.Execute(context.Background(), CreateOrderInput{
			UserID:          "u1",
			Email:           "ada@example.com",
			ShippingAddress: validAddress(),
			Items:           []CartItemInput{{ProductID: "p1", Name: "Tee", Price: 10, Quantity: 1}},
			IdempotencyKey:  "key-1",
		})
		if !errors.Is(err, ErrDuplicateRequest) {
			t.Fatalf("want ErrDuplicateRequest, got %v", err)
		}
	})

	t.Run("failed store write releases the lock for retry", func(t *testing.T) {
		orders := newFakeOrderStore()
		orders.createErr = errors.New("connection reset")
		uc := NewCreateOrder(orders, newFakeIdemStore(), nil)
		in := CreateOrderInput{
			UserID:          "u1",
			Email:           "ada@example.com",
			ShippingAddress: validAddress(),
			Items:           []CartItemInput{{ProductID: "p1", Name: "Tee", Price: 10, Quantity: 1}},
			IdempotencyKey:  "key-1",
		}

		var pe *entity.PersistenceError
		if _, err := uc.Execute(context.Background(), in); !errors.As(err, &pe) {
			t.Fatalf("want PersistenceError, got %v", err)
		}

		// the retry the failure demands must not be bounced as a duplicate
		orders.createErr = nil
		order, err := uc.Execute(context.Background(), in)
		if err != nil {
			t.Fatalf("retry after store failure: %v", err)
		}
		if order == nil || order.ID == "" {
			t.Fatal("retry did not create the order")
		}
	})

	t.Run("guest requests scope the key by email", func(t *testing.T) {
		orders := newFakeOrderStore()
		uc := NewCreateOrder(orders, newFakeIdemStore(), nil)
		in := CreateOrderInput{
			Email:           "guest@example.com",
			ShippingAddress: validAddress(),
			Items:           []CartItemInput{{ProductID: "p1", Name: "Tee", Price: 10, Quantity: 1}},
			IdempotencyKey:  "key-g",
		}
		first, err := uc.Execute(context.Background(), in)
		if err != nil {
			t.Fatalf("first Execute: %v", err)
		}
		second, err := uc.Execute(context.Background(), in)
		if err != nil {
			t.Fatalf("second Execute: %v", err)
		}
		if first.ID != second.ID {
			t.Errorf("guest retry created a new order")
		}
	})
}

func TestCreateOrder_PublishFailureDoesNotFailOrder(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	uc := NewCreateOrder(newFakeOrderStore(), newFakeIdemStore(), pub)

	order, err := uc.Execute(context.Background(), CreateOrderInput{
		Email:           "ada@example.com",
		ShippingAddress: validAddress(),
		Items:           []CartItemInput{{ProductID: "p1", Name: "Tee", Price: 10, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if order == nil || order.ID == "" {
		t.Fatal("order not created")
	}
}
