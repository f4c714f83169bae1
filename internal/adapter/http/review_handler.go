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

type ReviewHandler struct {
	reviews *usecase.Reviews
}

func NewReviewHandler(reviews *usecase.Reviews) *ReviewHandler {
	return &ReviewHandler{reviews: reviews}
}

// CanReview handles GET /reviews/can-review/:product_ref. Ineligibility is a
// normal 200 answer with a reason, not an error.
func (h *ReviewHandler) CanReview(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	elig, err := h.reviews.CanReview(ctx, c.GetString(middleware.CtxUserID), c.Param("product_ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, elig)
}

type submitReviewReq struct {
	OrderID    string `json:"order_id" binding:"required"`
	ProductRef string `json:"product_ref" binding:"required"`
	Rating     int    `json:"rating" binding:"required"`
	Title      string `json:"title"`
	Comment    string `json:"comment"`
}

// Submit handles POST /reviews.
func (h *ReviewHandler) Submit(c *gin.Context) {
	var req submitReviewReq
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "detail": err.Error()})
		return
	}

	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	review, err := h.reviews.Submit(ctx, usecase.SubmitReviewInput{
		UserID:     c.GetString(middleware.CtxUserID),
		UserName:   c.GetString(middleware.CtxUserName),
		OrderID:    req.OrderID,
		ProductRef: req.ProductRef,
		Rating:     req.Rating,
		Title:      req.Title,
		Comment:    req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

// ListForProduct handles GET /products/:ref/reviews (public).
func (h *ReviewHandler) ListForProduct(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	reviews, err := h.reviews.ListForProduct(ctx, c.Param("ref"))
	if err != nil {
		respondError(c, err)
		return
	}
	if reviews == nil {
		reviews = []entity.Review{}
	}
	c.JSON(http.StatusOK, reviews)
}
