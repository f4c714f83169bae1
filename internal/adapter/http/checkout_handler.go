package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ddebuut/storefront-api/internal/adapter/http/middleware"
	"github.com/ddebuut/storefront-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

type CheckoutHandler struct {
	open *usecase.OpenCheckout
	poll *usecase.PollStatus
}

func NewCheckoutHandler(open *usecase.OpenCheckout, poll *usecase.PollStatus) *CheckoutHandler {
	return &CheckoutHandler{open: open, poll: poll}
}

type openCheckoutReq struct {
	OrderID   string `json:"order_id" binding:"required"`
	OriginURL string `json:"origin_url" binding:"required"`
}

// Create handles POST /checkout/create. The provider call dominates latency,
// so the timeout here is wider than on the store-only endpoints.
func (h *CheckoutHandler) Create(c *gin.Context) {
	var req openCheckoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "detail": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	out, err := h.open.Execute(ctx, usecase.OpenCheckoutInput{
		OrderID:      req.OrderID,
		ReturnOrigin: req.OriginURL,
		UserID:       c.GetString(middleware.CtxUserID),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Status handles GET /checkout/status/:session_id, the success-page poll.
func (h *CheckoutHandler) Status(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 15*time.Second)
	defer cancel()

	view, err := h.poll.Execute(ctx, c.Param("session_id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}
