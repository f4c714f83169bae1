package http

import (
	"errors"
	"net/http"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/ddebuut/storefront-api/internal/usecase"
	"github.com/gin-gonic/gin"
)

// respondError maps the domain error taxonomy onto HTTP statuses. Messages
// stay actionable without leaking provider credentials or internals.
func respondError(c *gin.Context, err error) {
	var ve *entity.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, gin.H{"error": "validation_error", "detail": ve.Error()})
	case errors.Is(err, entity.ErrRatingOutOfRange):
		c.JSON(http.StatusBadRequest, gin.H{"error": "rating_out_of_range"})
	case errors.Is(err, entity.ErrOrderNotFound),
		errors.Is(err, entity.ErrProductNotFound),
		errors.Is(err, entity.ErrTransactionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not_found"})
	case errors.Is(err, entity.ErrForbidden),
		errors.Is(err, entity.ErrOrderNotEligible):
		c.JSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	case errors.Is(err, entity.ErrDuplicateReview):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate_review"})
	case errors.Is(err, usecase.ErrDuplicateRequest):
		c.JSON(http.StatusConflict, gin.H{"error": "duplicate_request"})
	case errors.Is(err, entity.ErrProviderUnavailable):
		// transient: the caller retries with backoff
		c.JSON(http.StatusBadGateway, gin.H{"error": "payment_provider_unavailable"})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
	}
}
