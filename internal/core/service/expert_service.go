package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// ExpertService serves the expert-facing profile, the earnings dashboard and
// the public directory.
type ExpertService struct {
	users    ports.UserRepository
	experts  ports.ExpertRepository
	earnings ports.EarningRepository
	cache    ports.DirectoryCache
	logger   zerolog.Logger
}

// NewExpertService wires the service. cache may be nil.
func NewExpertService(users ports.UserRepository, experts ports.ExpertRepository, earnings ports.EarningRepository, cache ports.DirectoryCache, logger zerolog.Logger) *ExpertService {
	return &ExpertService{users: users, experts: experts, earnings: earnings, cache: cache, logger: logger}
}

func (s *ExpertService) GetExpertProfile(ctx context.Context, actor domain.Actor) (*domain.ExpertProfile, error) {
	if !domain.IsExpertRole(actor.Role) {
		return nil, domain.Forbidden("only teachers and technicians have an expert profile")
	}
	return s.experts.FindByUserID(ctx, actor.ID)
}

func (s *ExpertService) UpdateExpertProfile(ctx context.Context, actor domain.Actor, patch ports.ExpertProfilePatch) (*domain.ExpertProfile, error) {
	if !domain.IsExpertRole(actor.Role) {
		return nil, domain.Forbidden("only teachers and technicians have an expert profile")
	}
	if patch.ExperienceYears != nil && *patch.ExperienceYears < 0 {
		return nil, domain.Validation("experience_years cannot be negative")
	}
	if patch.HourlyRate != nil {
		rate, err := decimal.NewFromString(strings.TrimSpace(*patch.HourlyRate))
		if err != nil || rate.IsNegative() {
			return nil, domain.Validation("hourly_rate must be a non-negative decimal")
		}
	}

	profile, err := s.experts.Update(ctx, actor.ID, patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	s.invalidate(ctx, actor.Role)
	return profile, nil
}

// Earnings sums the expert's ledger. Amounts are the free-text quotes agreed
// on each request; entries that do not parse as decimals are skipped.
func (s *ExpertService) Earnings(ctx context.Context, actor domain.Actor) (*ports.EarningsDashboard, error) {
	if !domain.IsExpertRole(actor.Role) {
		return nil, domain.Forbidden("only teachers and technicians have earnings")
	}

	records, err := s.earnings.ListByExpert(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	profile, err := s.experts.FindByUserID(ctx, actor.ID)
	if err != nil {
		return nil, err
	}

	var total, paid, pending decimal.Decimal
	for _, r := range records {
		amount, err := decimal.NewFromString(strings.TrimSpace(r.Amount))
		if err != nil {
			s.logger.Warn().Str("earning_id", r.ID).Str("amount", r.Amount).Msg("skipping unparsable earning amount")
			continue
		}
		total = total.Add(amount)
		if r.IsPaid {
			paid = paid.Add(amount)
		} else {
			pending = pending.Add(amount)
		}
	}
	dash := &ports.EarningsDashboard{
		Total:             total.StringFixed(2),
		Paid:              paid.StringFixed(2),
		Pending:           pending.StringFixed(2),
		CompletedServices: profile.CompletedServices,
		Transactions:      records,
	}
	return dash, nil
}

// Directory lists the experts of role with their profile metrics. Listings
// are served from the cache when present; cache errors fall through to the
// repositories.
func (s *ExpertService) Directory(ctx context.Context, role string) ([]ports.ExpertListing, error) {
	if !domain.IsExpertRole(role) {
		return nil, domain.Validation("directory role must be teacher or technician")
	}

	if s.cache != nil {
		listings, ok, err := s.cache.Get(ctx, role)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("role", role).Msg("directory cache read failed")
		case ok:
			return listings, nil
		}
	}

	users, err := s.users.ListByRole(ctx, role)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	profiles, err := s.experts.FindByUserIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	listings := make([]ports.ExpertListing, 0, len(users))
	for _, u := range users {
		listings = append(listings, ports.ExpertListing{
			ID:        u.ID,
			Email:     u.Email,
			FirstName: u.FirstName,
			LastName:  u.LastName,
			Role:      u.Role,
			Bio:       u.Bio,
			Profile:   profiles[u.ID],
		})
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, role, listings); err != nil {
			s.logger.Warn().Err(err).Str("role", role).Msg("directory cache write failed")
		}
	}
	return listings, nil
}

func (s *ExpertService) invalidate(ctx context.Context, role string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, role); err != nil {
		s.logger.Warn().Err(err).Str("role", role).Msg("directory cache invalidation failed")
	}
}
