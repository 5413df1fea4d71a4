package ports

import (
	"context"
	"time"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// ProfilePatch carries the editable identity fields. Nil fields are skipped.
type ProfilePatch struct {
	FirstName         *string
	LastName          *string
	Bio               *string
	ProfilePictureURL *string
}

// ExpertProfilePatch carries the expert-editable profile fields. Counters are
// never part of a patch.
type ExpertProfilePatch struct {
	ExpertiseAreas    *string
	ExperienceYears   *int
	HourlyRate        *string
	AvailabilityHours *string
}

// UserRepository defines the persistence operations for user identities.
type UserRepository interface {
	// Create inserts user. A duplicate email returns domain.ErrUserExists.
	Create(ctx context.Context, user *domain.User) error
	FindByID(ctx context.Context, id string) (*domain.User, error)
	FindByEmail(ctx context.Context, email string) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, patch ProfilePatch, at time.Time) (*domain.User, error)
	ListByRole(ctx context.Context, role string) ([]*domain.User, error)
}

// ExpertRepository persists expert profiles. IncrementCompleted and SetRating
// are only called through the expert stats aggregate.
type ExpertRepository interface {
	Create(ctx context.Context, profile *domain.ExpertProfile) error
	FindByUserID(ctx context.Context, userID string) (*domain.ExpertProfile, error)
	FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.ExpertProfile, error)
	Update(ctx context.Context, userID string, patch ExpertProfilePatch, at time.Time) (*domain.ExpertProfile, error)
	IncrementCompleted(ctx context.Context, userID string, at time.Time) error
	SetRating(ctx context.Context, userID string, rating float64, at time.Time) error
}

// EarningRepository persists the earnings ledger.
type EarningRepository interface {
	// Create inserts a ledger entry. A second entry for the same service
	// returns domain.ErrDuplicateLedger.
	Create(ctx context.Context, record *domain.EarningRecord) error
	ListByExpert(ctx context.Context, expertID string) ([]*domain.EarningRecord, error)
}

// ExpertListing is one row of the expert directory: the public identity of
// an expert with its profile metrics inlined.
type ExpertListing struct {
	ID        string                `json:"id"`
	Email     string                `json:"email"`
	FirstName string                `json:"first_name"`
	LastName  string                `json:"last_name"`
	Role      string                `json:"user_type"`
	Bio       string                `json:"bio,omitempty"`
	Profile   *domain.ExpertProfile `json:"profile,omitempty"`
}

// DirectoryCache caches expert directory listings per role.
type DirectoryCache interface {
	// Get returns ok=false on a miss.
	Get(ctx context.Context, role string) (listings []ExpertListing, ok bool, err error)
	Set(ctx context.Context, role string, listings []ExpertListing) error
	Invalidate(ctx context.Context, roles ...string) error
}
