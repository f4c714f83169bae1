package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/logging"
	"github.com/ddebuut/storefront-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	orders usecase.OrderStore
}

func NewAdminHandler(orders usecase.OrderStore) *AdminHandler {
	return &AdminHandler{orders: orders}
}

type updateStatusReq struct {
	Status string `json:"status" binding:"required"`
}

// UpdateOrderStatus handles PUT /admin/orders/:id/status. Fulfillment moves
// are operator-driven; payment state is never writable here.
func (h *AdminHandler) UpdateOrderStatus(c *gin.Context) {
	var req updateStatusReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "detail": err.Error()})
		return
	}

	to := entity.FulfillmentStatus(req.Status)
	if !to.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "detail": "unknown status " + req.Status})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	id := c.Param("id")
	if err := h.orders.UpdateStatus(ctx, id, to); err != nil {
		respondError(c, err)
		return
	}

	logging.From(c).Info("order status updated by admin", "order_id", id, "status", to)
	c.JSON(http.StatusOK, gin.H{"id": id, "status": to})
}
