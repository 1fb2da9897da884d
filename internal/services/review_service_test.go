package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/simple-store/api/internal/domain"
)

func newReviewServiceForTest(t *testing.T, deps ReviewServiceDeps) ReviewService {
	t.Helper()
	if deps.Reviews == nil {
		deps.Reviews = &stubReviewRepository{}
	}
	if deps.Orders == nil {
		deps.Orders = &stubOrderRepository{}
	}
	if deps.Clock == nil {
		deps.Clock = func() time.Time { return time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC) }
	}
	service, err := NewReviewService(deps)
	if err != nil {
		t.Fatalf("NewReviewService: %v", err)
	}
	return service
}

func purchasedOrders(productID int) *stubOrderRepository {
	return &stubOrderRepository{
		listByUserFunc: func(_ context.Context, userID string) ([]domain.Order, error) {
			return []domain.Order{{
				ID:     1,
				UserID: userID,
				Status: domain.OrderStatusDelivered,
				Items:  []domain.OrderItem{{ProductID: productID, Quantity: 1}},
			}}, nil
		},
	}
}

func TestListForProductAggregatesApprovedOnly(t *testing.T) {
	reviews := &stubReviewRepository{
		listByProductFunc: func(_ context.Context, productID int) ([]domain.Review, error) {
			return []domain.Review{
				{ID: 1, ProductID: productID, Rating: 5, Approved: true},
				{ID: 2, ProductID: productID, Rating: 4, Approved: true},
				{ID: 3, ProductID: productID, Rating: 1, Approved: false},
			}, nil
		},
	}

	service := newReviewServiceForTest(t, ReviewServiceDeps{Reviews: reviews})
	summary, err := service.ListForProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListForProduct: %v", err)
	}

	if len(summary.Reviews) != 2 {
		t.Fatalf("expected 2 approved reviews, got %d", len(summary.Reviews))
	}
	if summary.AverageRating.String() != "4.5" {
		t.Fatalf("expected average 4.5, got %s", summary.AverageRating)
	}
	if summary.RatingCounts[5] != 1 || summary.RatingCounts[4] != 1 || summary.RatingCounts[1] != 0 {
		t.Fatalf("unexpected rating counts %#v", summary.RatingCounts)
	}
}

func TestListForProductEmpty(t *testing.T) {
	service := newReviewServiceForTest(t, ReviewServiceDeps{})
	summary, err := service.ListForProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("ListForProduct: %v", err)
	}
	if !summary.AverageRating.IsZero() {
		t.Fatalf("expected zero average, got %s", summary.AverageRating)
	}
	if len(summary.RatingCounts) != 5 {
		t.Fatalf("expected all five buckets present, got %#v", summary.RatingCounts)
	}
}

func TestCanReviewIgnoresCancelledOrders(t *testing.T) {
	orders := &stubOrderRepository{
		listByUserFunc: func(_ context.Context, userID string) ([]domain.Order, error) {
			return []domain.Order{{
				ID:     1,
				UserID: userID,
				Status: domain.OrderStatusCancelled,
				Items:  []domain.OrderItem{{ProductID: 1, Quantity: 1}},
			}}, nil
		},
	}

	service := newReviewServiceForTest(t, ReviewServiceDeps{Orders: orders})
	ok, err := service.CanReview(context.Background(), "3", 1)
	if err != nil {
		t.Fatalf("CanReview: %v", err)
	}
	if ok {
		t.Fatal("cancelled orders must not grant review eligibility")
	}
}

func TestCreateReviewStartsUnapproved(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	var inserted domain.Review
	reviews := &stubReviewRepository{
		listFunc: func(context.Context) ([]domain.Review, error) {
			return []domain.Review{{ID: 4, ProductID: 2, UserID: "9"}}, nil
		},
		insertFunc: func(_ context.Context, review domain.Review) error {
			inserted = review
			return nil
		},
	}

	service := newReviewServiceForTest(t, ReviewServiceDeps{
		Reviews: reviews,
		Orders:  purchasedOrders(1),
		Clock:   func() time.Time { return now },
	})

	got, err := service.Create(context.Background(), CreateReviewCommand{
		UserID:    "3",
		ProductID: 1,
		Rating:    5,
		Text:      "  Sturdy and well finished.  ",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if got.ID != 5 {
		t.Fatalf("expected id 5, got %d", got.ID)
	}
	if got.Approved {
		t.Fatal("new reviews must await moderation")
	}
	if got.Text != "Sturdy and well finished." {
		t.Fatalf("expected trimmed text, got %q", got.Text)
	}
	if got.UserName != "Anonymous" {
		t.Fatalf("expected anonymous fallback, got %q", got.UserName)
	}
	if inserted.ID != got.ID {
		t.Fatalf("expected inserted review %d, got %d", got.ID, inserted.ID)
	}
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	reviews := &stubReviewRepository{
		listFunc: func(context.Context) ([]domain.Review, error) {
			return []domain.Review{{ID: 1, ProductID: 1, UserID: "3"}}, nil
		},
	}

	service := newReviewServiceForTest(t, ReviewServiceDeps{
		Reviews: reviews,
		Orders:  purchasedOrders(1),
	})

	_, err := service.Create(context.Background(), CreateReviewCommand{
		UserID:    "3",
		ProductID: 1,
		Rating:    4,
		Text:      "Again",
	})
	if !errors.Is(err, ErrReviewDuplicate) {
		t.Fatalf("expected ErrReviewDuplicate, got %v", err)
	}
}

func TestCreateReviewRequiresPurchase(t *testing.T) {
	service := newReviewServiceForTest(t, ReviewServiceDeps{})
	_, err := service.Create(context.Background(), CreateReviewCommand{
		UserID:    "3",
		ProductID: 1,
		Rating:    4,
		Text:      "Looks nice",
	})
	if !errors.Is(err, ErrReviewNotPurchased) {
		t.Fatalf("expected ErrReviewNotPurchased, got %v", err)
	}
}

func TestCreateReviewValidation(t *testing.T) {
	service := newReviewServiceForTest(t, ReviewServiceDeps{Orders: purchasedOrders(1)})

	cases := []CreateReviewCommand{
		{UserID: "", ProductID: 1, Rating: 4, Text: "ok"},
		{UserID: "3", ProductID: 1, Rating: 0, Text: "ok"},
		{UserID: "3", ProductID: 1, Rating: 6, Text: "ok"},
		{UserID: "3", ProductID: 1, Rating: 4, Text: "   "},
		{UserID: "3", ProductID: 1, Rating: 4, Text: strings.Repeat("x", 501)},
	}
	for _, cmd := range cases {
		if _, err := service.Create(context.Background(), cmd); !errors.Is(err, ErrReviewInvalidInput) {
			t.Fatalf("expected ErrReviewInvalidInput for %#v, got %v", cmd, err)
		}
	}
}

func TestApproveReview(t *testing.T) {
	now := time.Date(2025, 2, 10, 9, 30, 0, 0, time.UTC)
	var updated domain.Review
	reviews := &stubReviewRepository{
		findFunc: func(_ context.Context, reviewID int) (domain.Review, error) {
			return domain.Review{ID: reviewID, Rating: 5, Approved: false}, nil
		},
		updateFunc: func(_ context.Context, review domain.Review) error {
			updated = review
			return nil
		},
	}

	service := newReviewServiceForTest(t, ReviewServiceDeps{
		Reviews: reviews,
		Clock:   func() time.Time { return now },
	})

	got, err := service.Approve(context.Background(), 3)
	if err != nil {
		t.Fatalf("Approve: %v", err)
	}
	if !got.Approved || !updated.Approved {
		t.Fatal("expected review approved and persisted")
	}
	if !got.UpdatedAt.Equal(now) {
		t.Fatalf("expected updatedAt %s, got %s", now, got.UpdatedAt)
	}
}

func TestApproveUnknownReview(t *testing.T) {
	service := newReviewServiceForTest(t, ReviewServiceDeps{})
	if _, err := service.Approve(context.Background(), 42); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("expected ErrReviewNotFound, got %v", err)
	}
}

func TestListPendingFiltersApproved(t *testing.T) {
	reviews := &stubReviewRepository{
		listFunc: func(context.Context) ([]domain.Review, error) {
			return []domain.Review{
				{ID: 1, Approved: true},
				{ID: 2, Approved: false},
				{ID: 3, Approved: false},
			}, nil
		},
	}

	service := newReviewServiceForTest(t, ReviewServiceDeps{Reviews: reviews})
	pending, err := service.ListPending(context.Background())
	if err != nil {
		t.Fatalf("ListPending: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("expected 2 pending reviews, got %d", len(pending))
	}
}

func TestDeleteUnknownReview(t *testing.T) {
	reviews := &stubReviewRepository{
		deleteFunc: func(_ context.Context, reviewID int) error {
			return notFoundErr("review not found")
		},
	}

	service := newReviewServiceForTest(t, ReviewServiceDeps{Reviews: reviews})
	if err := service.Delete(context.Background(), 42); !errors.Is(err, ErrReviewNotFound) {
		t.Fatalf("expected ErrReviewNotFound, got %v", err)
	}
}
