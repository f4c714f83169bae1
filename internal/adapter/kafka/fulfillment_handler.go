package kafka

import (
	"context"
	"errors"
	"fmt"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/logging"
	"github.com/ddebuut/storefront-api/internal/usecase"
)

// FulfillmentHandler applies shipment progress pushed by the fulfillment
// system to the order's fulfillment status. Payment state is never touched
// from here.
type FulfillmentHandler struct {
	orders usecase.OrderStore
}

func NewFulfillmentHandler(orders usecase.OrderStore) *FulfillmentHandler {
	return &FulfillmentHandler{orders: orders}
}

func (h *FulfillmentHandler) Handle(ctx context.Context, ev FulfillmentStatusMsg) error {
	status := entity.FulfillmentStatus(ev.Status)
	if status != entity.StatusShipped && status != entity.StatusDelivered {
		// poison-safe: an unexpected status is logged and dropped, not retried
		logging.FromCtx(ctx).Warn("ignoring fulfillment event with unexpected status",
			"order_id", ev.OrderID, "status", ev.Status)
		return nil
	}

	err := h.orders.UpdateStatus(ctx, ev.OrderID, status)
	if errors.Is(err, entity.ErrOrderNotFound) {
		logging.FromCtx(ctx).Warn("fulfillment event for unknown order", "order_id", ev.OrderID)
		return nil
	}
	if err != nil {
		return fmt.Errorf("apply fulfillment status: %w", err)
	}
	return nil
}
