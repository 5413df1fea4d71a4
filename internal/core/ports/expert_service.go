package ports

import (
	"context"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// EarningsDashboard summarizes an expert's ledger. Sums are decimal strings
// with two fractional digits.
type EarningsDashboard struct {
	Total             string                  `json:"total_earnings"`
	Paid              string                  `json:"paid_earnings"`
	Pending           string                  `json:"pending_earnings"`
	CompletedServices int                     `json:"completed_services"`
	Transactions      []*domain.EarningRecord `json:"transactions"`
}

// ExpertService serves expert profiles, earnings and the public directory.
type ExpertService interface {
	GetExpertProfile(ctx context.Context, actor domain.Actor) (*domain.ExpertProfile, error)
	UpdateExpertProfile(ctx context.Context, actor domain.Actor, patch ExpertProfilePatch) (*domain.ExpertProfile, error)
	Earnings(ctx context.Context, actor domain.Actor) (*EarningsDashboard, error)
	Directory(ctx context.Context, role string) ([]ExpertListing, error)
}
