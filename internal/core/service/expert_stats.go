package service

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// ExpertStats owns every write to an expert profile's derived metrics. The
// lifecycle engine calls RecordCompletion and the review service calls
// RefreshRating; nothing else touches the counters.
//
// RefreshRating reads all reviews and then writes the mean. Two concurrent
// submissions for the same expert can interleave so that the later write
// carries a stale mean. The next review for that expert corrects it.
type ExpertStats struct {
	experts ports.ExpertRepository
	reviews ports.ReviewRepository
	cache   ports.DirectoryCache
	logger  zerolog.Logger
	now     func() time.Time
}

// NewExpertStats wires the aggregate. cache may be nil.
func NewExpertStats(experts ports.ExpertRepository, reviews ports.ReviewRepository, cache ports.DirectoryCache, logger zerolog.Logger) *ExpertStats {
	return &ExpertStats{
		experts: experts,
		reviews: reviews,
		cache:   cache,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// RecordCompletion increments the expert's completed-service counter.
func (s *ExpertStats) RecordCompletion(ctx context.Context, expertID string) error {
	if err := s.experts.IncrementCompleted(ctx, expertID, s.now()); err != nil {
		return fmt.Errorf("record completion for %s: %w", expertID, err)
	}
	return nil
}

// RefreshRating recomputes the expert's stored rating as the mean of all
// their reviews, rounded to one decimal place.
func (s *ExpertStats) RefreshRating(ctx context.Context, expertID string) (float64, error) {
	avg, count, err := s.reviews.AverageForExpert(ctx, expertID)
	if err != nil {
		return 0, fmt.Errorf("average rating for %s: %w", expertID, err)
	}
	rating := 0.0
	if count > 0 {
		rating = domain.RoundRating(avg)
	}
	if err := s.experts.SetRating(ctx, expertID, rating, s.now()); err != nil {
		return 0, fmt.Errorf("set rating for %s: %w", expertID, err)
	}
	s.logger.Debug().Str("expert_id", expertID).Float64("rating", rating).Int("reviews", count).Msg("expert rating refreshed")
	return rating, nil
}

// InvalidateDirectory drops cached directory listings. Failures only log:
// the cache expires on its own.
func (s *ExpertStats) InvalidateDirectory(ctx context.Context, roles ...string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, roles...); err != nil {
		s.logger.Warn().Err(err).Strs("roles", roles).Msg("directory cache invalidation failed")
	}
}
