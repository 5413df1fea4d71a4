package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// ReviewService accepts feedback on finished services and keeps expert
// ratings current through ExpertStats.
type ReviewService struct {
	reviews  ports.ReviewRepository
	users    ports.UserRepository
	requests map[domain.ServiceKind]ports.ServiceRequestRepository
	stats    *ExpertStats
	logger   zerolog.Logger
}

func NewReviewService(
	reviews ports.ReviewRepository,
	users ports.UserRepository,
	requests map[domain.ServiceKind]ports.ServiceRequestRepository,
	stats *ExpertStats,
	logger zerolog.Logger,
) *ReviewService {
	return &ReviewService{reviews: reviews, users: users, requests: requests, stats: stats, logger: logger}
}

// Submit validates and stores a review, then refreshes the expert's rating.
func (s *ReviewService) Submit(ctx context.Context, actor domain.Actor, input ports.SubmitReviewInput) (*domain.Review, error) {
	if input.Rating < domain.MinRating || input.Rating > domain.MaxRating {
		return nil, domain.Validationf("rating must be between %d and %d", domain.MinRating, domain.MaxRating)
	}
	d, ok := domain.DomainFor(input.ServiceType)
	if !ok {
		return nil, domain.Validation("service_type must be repair or academic")
	}
	repo, ok := s.requests[d.Kind]
	if !ok {
		return nil, domain.Validation("service_type must be repair or academic")
	}

	expert, err := s.users.FindByID(ctx, input.ExpertID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Validation("expert not found")
		}
		return nil, err
	}
	if expert.Role != d.ExpertRole {
		return nil, domain.Validationf("for %s services the expert must be a %s", d.Kind, d.ExpertRole)
	}

	req, err := repo.FindByID(ctx, input.ServiceID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Validationf("%s not found", d.RequestNoun)
		}
		return nil, err
	}
	if req.Status != d.TerminalStatus {
		return nil, domain.Validationf("this %s is not %s yet", d.RequestNoun, d.TerminalStatus)
	}
	if !req.IsOwner(actor.ID) {
		return nil, domain.Validation("only the requester can review this service")
	}
	if req.AssigneeID != expert.ID {
		return nil, domain.Validationf("this %s was not handled by the given expert", d.RequestNoun)
	}

	exists, err := s.reviews.Exists(ctx, actor.ID, d.Kind, req.ID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrDuplicateReview
	}

	review := &domain.Review{
		ID:           uuid.NewString(),
		ReviewerID:   actor.ID,
		ReviewerName: actor.Name,
		ExpertID:     expert.ID,
		ServiceType:  d.Kind,
		ServiceID:    req.ID,
		Rating:       input.Rating,
		Comment:      strings.TrimSpace(input.Comment),
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	s.logger.Info().Str("review_id", review.ID).Str("expert_id", expert.ID).Int("rating", review.Rating).Msg("review submitted")

	if _, err := s.stats.RefreshRating(ctx, expert.ID); err != nil {
		s.logger.Error().Err(err).Str("expert_id", expert.ID).Msg("failed to refresh expert rating")
	}
	s.stats.InvalidateDirectory(ctx, expert.Role)
	return review, nil
}

func (s *ReviewService) List(ctx context.Context, filter ports.ReviewFilter) ([]*domain.Review, error) {
	if filter.ServiceType != "" {
		if _, ok := domain.DomainFor(filter.ServiceType); !ok {
			return nil, domain.Validation("service_type must be repair or academic")
		}
	}
	return s.reviews.List(ctx, filter)
}

func (s *ReviewService) Get(ctx context.Context, id string) (*domain.Review, error) {
	return s.reviews.FindByID(ctx, id)
}

func (s *ReviewService) MyReviews(ctx context.Context, actor domain.Actor) ([]*domain.Review, error) {
	return s.reviews.List(ctx, ports.ReviewFilter{ReviewerID: actor.ID})
}

func (s *ReviewService) ExpertReviews(ctx context.Context, actor domain.Actor) ([]*domain.Review, error) {
	if !domain.IsExpertRole(actor.Role) {
		return nil, domain.Forbidden("only teachers and technicians receive reviews")
	}
	return s.reviews.List(ctx, ports.ReviewFilter{ExpertID: actor.ID})
}
