package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/ddebuut/storefront-api/internal/entity"
	"github.com/google/uuid"
)

type Eligibility struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
	OrderID string `json:"order_id,omitempty"`
}

type SubmitReviewInput struct {
	UserID     string
	UserName   string
	OrderID    string
	ProductRef string
	Rating     int
	Title      string
	Comment    string
}

type Reviews struct {
	orders   OrderStore
	reviews  ReviewStore
	products ProductDirectory
}

func NewReviews(orders OrderStore, reviews ReviewStore, products ProductDirectory) *Reviews {
	return &Reviews{orders: orders, reviews: reviews, products: products}
}

// CanReview reports whether the user may review the product, and if so which
// order qualifies as the verified purchase.
func (uc *Reviews) CanReview(ctx context.Context, userID, productRef string) (Eligibility, error) {
	product, err := uc.products.Resolve(ctx, productRef)
	if err != nil {
		return Eligibility{}, err
	}

	reviewed, err := uc.reviews.ExistsForUserProduct(ctx, userID, product.ID)
	if err != nil {
		return Eligibility{}, err
	}
	if reviewed {
		return Eligibility{Allowed: false, Reason: entity.ReasonAlreadyReviewed}, nil
	}

	orderID, err := uc.orders.FindPurchase(ctx, userID, product.ID)
	if err != nil {
		if errors.Is(err, entity.ErrOrderNotFound) {
			return Eligibility{Allowed: false, Reason: entity.ReasonNotPurchased}, nil
		}
		return Eligibility{}, err
	}

	return Eligibility{Allowed: true, OrderID: orderID}, nil
}

// Submit re-validates everything CanReview checked. The pre-check gives the
// friendly answer; the (user_id, product_id) uniqueness key in the store is
// what actually closes the concurrent check-then-insert race.
func (uc *Reviews) Submit(ctx context.Context, in SubmitReviewInput) (*entity.Review, error) {
	if in.Rating < 1 || in.Rating > 5 {
		return nil, entity.ErrRatingOutOfRange
	}

	product, err := uc.products.Resolve(ctx, in.ProductRef)
	if err != nil {
		return nil, err
	}

	order, err := uc.orders.GetByID(ctx, in.OrderID)
	if err != nil {
		if errors.Is(err, entity.ErrOrderNotFound) {
			return nil, entity.ErrOrderNotEligible
		}
		return nil, err
	}
	if order.UserID != in.UserID || !order.Paid || !order.ContainsProduct(product.ID) {
		return nil, entity.ErrOrderNotEligible
	}

	reviewed, err := uc.reviews.ExistsForUserProduct(ctx, in.UserID, product.ID)
	if err != nil {
		return nil, err
	}
	if reviewed {
		return nil, entity.ErrDuplicateReview
	}

	review := &entity.Review{
		ID:               uuid.NewString(),
		ProductID:        product.ID,
		OrderID:          order.ID,
		UserID:           in.UserID,
		UserName:         in.UserName,
		Rating:           in.Rating,
		Title:            in.Title,
		Comment:          in.Comment,
		VerifiedPurchase: true,
		CreatedAt:        time.Now().UTC(),
	}
	if err := uc.reviews.Create(ctx, review); err != nil {
		if errors.Is(err, entity.ErrDuplicateReview) {
			return nil, entity.ErrDuplicateReview
		}
		return nil, &entity.PersistenceError{Op: "create review", Err: err}
	}
	return review, nil
}

// ListForProduct returns a product's reviews, newest first.
func (uc *Reviews) ListForProduct(ctx context.Context, productRef string) ([]entity.Review, error) {
	product, err := uc.products.Resolve(ctx, productRef)
	if err != nil {
		return nil, err
	}
	return uc.reviews.ListByProduct(ctx, product.ID)
}
