package http

import (
	"context"
	"net/http"
	"time"

	"github.com/ddebuut/storefront-api/internal/adapter/http/middleware"
	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

type OrderHandler struct {
	create *usecase.CreateOrder
	orders usecase.OrderStore
}

func NewOrderHandler(create *usecase.CreateOrder, orders usecase.OrderStore) *OrderHandler {
	return &OrderHandler{create: create, orders: orders}
}

type shippingAddressReq struct {
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Address   string `json:"address" binding:"required"`
	Apartment string `json:"apartment"`
	City      string `json:"city" binding:"required"`
	ZipCode   string `json:"zip_code" binding:"required"`
	Phone     string `json:"phone"`
}

type orderItemReq struct {
	ProductID string  `json:"product_id" binding:"required"`
	Name      string  `json:"name" binding:"required"`
	Price     float64 `json:"price" binding:"gte=0"`
	Size      string  `json:"size"`
	Color     string  `json:"color"`
	Quantity  int     `json:"quantity" binding:"required,gt=0"`
	Image     string  `json:"image"`
}

type createOrderReq struct {
	Email           string             `json:"email" binding:"required,email"`
	ShippingAddress shippingAddressReq `json:"shipping_address" binding:"required"`
	Items           []orderItemReq     `json:"items" binding:"required,min=1,dive"`
}

// CreateOrder handles POST /orders. Works for guests and signed-in callers.
func (h *OrderHandler) CreateOrder(c *gin.Context) {
	var req createOrderReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "detail": err.Error()})
		return
	}

	items := make([]usecase.CartItemInput, 0, len(req.Items))
	for _, it := range req.Items {
		items = append(items, usecase.CartItemInput{
			ProductID: it.ProductID,
			Name:      it.Name,
			Price:     it.Price,
			Size:      it.Size,
			Color:     it.Color,
			Quantity:  it.Quantity,
			Image:     it.Image,
		})
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	order, err := h.create.Execute(ctx, usecase.CreateOrderInput{
		UserID: c.GetString(middleware.CtxUserID),
		Email:  req.Email,
		ShippingAddress: entity.ShippingAddress{
			FirstName: req.ShippingAddress.FirstName,
			LastName:  req.ShippingAddress.LastName,
			Address:   req.ShippingAddress.Address,
			Apartment: req.ShippingAddress.Apartment,
			City:      req.ShippingAddress.City,
			ZipCode:   req.ShippingAddress.ZipCode,
			Phone:     req.ShippingAddress.Phone,
		},
		Items:          items,
		IdempotencyKey: c.GetHeader("X-Idempotency-Key"), // dedupe client retries
	})
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, order)
}

// ListMyOrders handles GET /orders (authenticated).
func (h *OrderHandler) ListMyOrders(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	orders, err := h.orders.ListByUser(ctx, c.GetString(middleware.CtxUserID))
	if err != nil {
		respondError(c, err)
		return
	}
	if orders == nil {
		orders = []entity.Order{}
	}
	c.JSON(http.StatusOK, orders)
}

// GetOrder handles GET /orders/:id. Owned orders are visible only to their
// owner; guest orders are fetchable by id alone.
func (h *OrderHandler) GetOrder(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	order, err := h.orders.GetByID(ctx, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	if order.UserID != "" && order.UserID != c.GetString(middleware.CtxUserID) {
		respondError(c, entity.ErrForbidden)
		return
	}
	c.JSON(http.StatusOK, order)
}
