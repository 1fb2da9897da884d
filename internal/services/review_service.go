package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	domain "github.com/simple-store/api/internal/domain"
	"github.com/simple-store/api/internal/repositories"
)

// reviewTextMaxLength caps the free-text body of a review.
const reviewTextMaxLength = 500

var (
	// ErrReviewInvalidInput signals the caller provided invalid data.
	ErrReviewInvalidInput = errors.New("review: invalid input")
	// ErrReviewNotFound indicates the review could not be located.
	ErrReviewNotFound = errors.New("review: not found")
	// ErrReviewDuplicate indicates the user already reviewed the product.
	ErrReviewDuplicate = errors.New("review: already reviewed this product")
	// ErrReviewNotPurchased blocks reviews from users without a qualifying order.
	ErrReviewNotPurchased = errors.New("review: product not purchased")
)

// ReviewServiceDeps bundles collaborators required to construct the review service.
type ReviewServiceDeps struct {
	Reviews repositories.ReviewRepository
	Orders  repositories.OrderRepository
	Clock   func() time.Time
	Logger  func(ctx context.Context, event string, fields map[string]any)
}

type reviewService struct {
	reviews repositories.ReviewRepository
	orders  repositories.OrderRepository
	clock   func() time.Time
	logger  func(context.Context, string, map[string]any)
}

// NewReviewService wires dependencies into a concrete ReviewService implementation.
func NewReviewService(deps ReviewServiceDeps) (ReviewService, error) {
	if deps.Reviews == nil {
		return nil, errors.New("review service: review repository is required")
	}
	if deps.Orders == nil {
		return nil, errors.New("review service: order repository is required")
	}

	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := deps.Logger
	if logger == nil {
		logger = func(context.Context, string, map[string]any) {}
	}

	return &reviewService{
		reviews: deps.Reviews,
		orders:  deps.Orders,
		clock: func() time.Time {
			return clock().UTC()
		},
		logger: logger,
	}, nil
}

// ListForProduct aggregates the product's approved reviews. The average is
// rounded to one decimal place and zero when no review is approved yet.
func (s *reviewService) ListForProduct(ctx context.Context, productID int) (ReviewSummary, error) {
	reviews, err := s.reviews.ListByProduct(ctx, productID)
	if err != nil {
		return ReviewSummary{}, err
	}

	summary := ReviewSummary{
		AverageRating: decimal.Zero,
		RatingCounts:  map[int]int{1: 0, 2: 0, 3: 0, 4: 0, 5: 0},
		Reviews:       make([]Review, 0, len(reviews)),
	}

	total := 0
	for _, review := range reviews {
		if !review.Approved {
			continue
		}
		summary.Reviews = append(summary.Reviews, review)
		summary.RatingCounts[review.Rating]++
		total += review.Rating
	}

	if len(summary.Reviews) > 0 {
		summary.AverageRating = decimal.NewFromInt(int64(total)).
			Div(decimal.NewFromInt(int64(len(summary.Reviews)))).
			Round(1)
	}

	return summary, nil
}

// CanReview reports whether the user holds a non-cancelled order containing
// the product.
func (s *reviewService) CanReview(ctx context.Context, userID string, productID int) (bool, error) {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return false, nil
	}

	orders, err := s.orders.ListByUser(ctx, userID)
	if err != nil {
		return false, err
	}

	for _, order := range orders {
		if order.Status == domain.OrderStatusCancelled {
			continue
		}
		for _, item := range order.Items {
			if item.ProductID == productID {
				return true, nil
			}
		}
	}
	return false, nil
}

// Create submits a review for moderation. One review per user per product,
// purchase required, rating 1 to 5, text capped. New reviews start unapproved.
func (s *reviewService) Create(ctx context.Context, cmd CreateReviewCommand) (Review, error) {
	userID := strings.TrimSpace(cmd.UserID)
	if userID == "" {
		return Review{}, fmt.Errorf("%w: user id is required", ErrReviewInvalidInput)
	}
	if cmd.Rating < 1 || cmd.Rating > 5 {
		return Review{}, fmt.Errorf("%w: rating must be between 1 and 5", ErrReviewInvalidInput)
	}
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return Review{}, fmt.Errorf("%w: review text is required", ErrReviewInvalidInput)
	}
	if len(text) > reviewTextMaxLength {
		return Review{}, fmt.Errorf("%w: review text cannot exceed %d characters", ErrReviewInvalidInput, reviewTextMaxLength)
	}

	existing, err := s.reviews.List(ctx)
	if err != nil {
		return Review{}, err
	}
	for _, review := range existing {
		if review.ProductID == cmd.ProductID && review.UserID == userID {
			return Review{}, fmt.Errorf("%w: product %d", ErrReviewDuplicate, cmd.ProductID)
		}
	}

	purchased, err := s.CanReview(ctx, userID, cmd.ProductID)
	if err != nil {
		return Review{}, err
	}
	if !purchased {
		return Review{}, fmt.Errorf("%w: product %d", ErrReviewNotPurchased, cmd.ProductID)
	}

	userName := strings.TrimSpace(cmd.UserName)
	if userName == "" {
		userName = "Anonymous"
	}

	now := s.clock()
	review := Review{
		ID:        nextReviewID(existing),
		ProductID: cmd.ProductID,
		UserID:    userID,
		UserName:  userName,
		Rating:    cmd.Rating,
		Text:      text,
		Approved:  false,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.reviews.Insert(ctx, review); err != nil {
		return Review{}, err
	}

	s.logger(ctx, "review.submitted", map[string]any{
		"reviewId":  review.ID,
		"productId": review.ProductID,
	})

	return review, nil
}

func (s *reviewService) ListPending(ctx context.Context) ([]Review, error) {
	reviews, err := s.reviews.List(ctx)
	if err != nil {
		return nil, err
	}

	pending := make([]Review, 0, len(reviews))
	for _, review := range reviews {
		if !review.Approved {
			pending = append(pending, review)
		}
	}
	return pending, nil
}

func (s *reviewService) Approve(ctx context.Context, reviewID int) (Review, error) {
	review, err := s.reviews.FindByID(ctx, reviewID)
	if err != nil {
		if isNotFound(err) {
			return Review{}, fmt.Errorf("%w: review %d", ErrReviewNotFound, reviewID)
		}
		return Review{}, err
	}

	review.Approved = true
	review.UpdatedAt = s.clock()

	if err := s.reviews.Update(ctx, review); err != nil {
		return Review{}, err
	}

	s.logger(ctx, "review.approved", map[string]any{"reviewId": review.ID})
	return review, nil
}

func (s *reviewService) Delete(ctx context.Context, reviewID int) error {
	if err := s.reviews.Delete(ctx, reviewID); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: review %d", ErrReviewNotFound, reviewID)
		}
		return err
	}
	s.logger(ctx, "review.deleted", map[string]any{"reviewId": reviewID})
	return nil
}

func nextReviewID(reviews []domain.Review) int {
	next := 1
	for _, review := range reviews {
		if review.ID >= next {
			next = review.ID + 1
		}
	}
	return next
}
