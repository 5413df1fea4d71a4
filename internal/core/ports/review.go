package ports

import (
	"context"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// ReviewFilter narrows review listings. Empty fields are not applied.
type ReviewFilter struct {
	ReviewerID  string
	ExpertID    string
	ServiceType domain.ServiceKind
}

// ReviewRepository persists reviews.
type ReviewRepository interface {
	// Create inserts a review. A second review by the same reviewer for the
	// same service returns domain.ErrDuplicateReview.
	Create(ctx context.Context, review *domain.Review) error
	FindByID(ctx context.Context, id string) (*domain.Review, error)
	Exists(ctx context.Context, reviewerID string, serviceType domain.ServiceKind, serviceID string) (bool, error)
	List(ctx context.Context, filter ReviewFilter) ([]*domain.Review, error)
	// AverageForExpert returns the unrounded mean rating and the review count.
	AverageForExpert(ctx context.Context, expertID string) (float64, int, error)
}

type SubmitReviewInput struct {
	ExpertID    string
	ServiceType domain.ServiceKind
	ServiceID   string
	Rating      int
	Comment     string
}

// ReviewService submits and lists reviews.
type ReviewService interface {
	Submit(ctx context.Context, actor domain.Actor, input SubmitReviewInput) (*domain.Review, error)
	List(ctx context.Context, filter ReviewFilter) ([]*domain.Review, error)
	Get(ctx context.Context, id string) (*domain.Review, error)
	MyReviews(ctx context.Context, actor domain.Actor) ([]*domain.Review, error)
	ExpertReviews(ctx context.Context, actor domain.Actor) ([]*domain.Review, error)
}
