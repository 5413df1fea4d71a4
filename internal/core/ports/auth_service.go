package ports

import (
	"context"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

type RegisterInput struct {
	Email     string
	Password  string
	FirstName string
	LastName  string
	Role      string
	Bio       string
}

// AuthService handles registration, login and the caller's own profile.
type AuthService interface {
	Register(ctx context.Context, input RegisterInput) (*domain.User, error)
	Login(ctx context.Context, email, password string) (string, *domain.User, error)
	GetProfile(ctx context.Context, actor domain.Actor) (*domain.User, error)
	UpdateProfile(ctx context.Context, actor domain.Actor, patch ProfilePatch) (*domain.User, error)
}
