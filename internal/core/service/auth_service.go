package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// AuthService implements registration, login and profile maintenance.
type AuthService struct {
	users     ports.UserRepository
	experts   ports.ExpertRepository
	cache     ports.DirectoryCache
	jwtSecret string
	tokenTTL  time.Duration
	logger    zerolog.Logger
}

// NewAuthService wires the identity store. cache may be nil; when set, the
// expert directory for a role is dropped whenever one of its members joins or
// edits their profile.
func NewAuthService(users ports.UserRepository, experts ports.ExpertRepository, cache ports.DirectoryCache, jwtSecret string, tokenTTL time.Duration, logger zerolog.Logger) *AuthService {
	if tokenTTL <= 0 {
		tokenTTL = 24 * time.Hour
	}
	return &AuthService{users: users, experts: experts, cache: cache, jwtSecret: jwtSecret, tokenTTL: tokenTTL, logger: logger}
}

// Register creates a user account. Experts get a profile with default metrics.
// Admin accounts are provisioned out of band and cannot self-register.
func (s *AuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	email := strings.ToLower(strings.TrimSpace(input.Email))
	if email == "" || input.Password == "" {
		return nil, domain.Validation("email and password are required")
	}
	if !domain.ValidRole(input.Role) || input.Role == domain.RoleAdmin {
		return nil, domain.Validation("user_type must be one of: student, teacher, technician")
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		FirstName:    strings.TrimSpace(input.FirstName),
		LastName:     strings.TrimSpace(input.LastName),
		Role:         input.Role,
		Bio:          input.Bio,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}

	if domain.IsExpertRole(user.Role) {
		if err := s.experts.Create(ctx, domain.NewExpertProfile(user.ID, user.Role, now)); err != nil {
			s.logger.Error().Err(err).Str("user_id", user.ID).Msg("failed to create expert profile")
			return nil, err
		}
		s.invalidate(ctx, user.Role)
	}

	s.logger.Info().Str("user_id", user.ID).Str("role", user.Role).Msg("user registered")
	return user, nil
}

// Login verifies credentials and issues a signed token. An unknown email and
// a wrong password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return "", nil, domain.ErrInvalidCredentials
		}
		return "", nil, err
	}
	if !user.IsActive {
		return "", nil, domain.ErrInvalidCredentials
	}

	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return "", nil, domain.ErrInvalidCredentials
	}

	token, err := s.generateToken(user)
	if err != nil {
		return "", nil, err
	}

	return token, user, nil
}

func (s *AuthService) GetProfile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	return s.users.FindByID(ctx, actor.ID)
}

// UpdateProfile edits the caller's names and bio. Email and role are fixed.
func (s *AuthService) UpdateProfile(ctx context.Context, actor domain.Actor, patch ports.ProfilePatch) (*domain.User, error) {
	if patch.FirstName != nil && strings.TrimSpace(*patch.FirstName) == "" {
		return nil, domain.Validation("first_name cannot be empty")
	}
	if patch.LastName != nil && strings.TrimSpace(*patch.LastName) == "" {
		return nil, domain.Validation("last_name cannot be empty")
	}
	user, err := s.users.UpdateProfile(ctx, actor.ID, patch, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if domain.IsExpertRole(user.Role) {
		s.invalidate(ctx, user.Role)
	}
	return user, nil
}

func (s *AuthService) invalidate(ctx context.Context, role string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx, role); err != nil {
		s.logger.Warn().Err(err).Str("role", role).Msg("directory cache invalidation failed")
	}
}

func (s *AuthService) generateToken(user *domain.User) (string, error) {
	claims := jwt.MapClaims{
		"sub":   user.ID,
		"role":  user.Role,
		"name":  user.FullName(),
		"email": user.Email,
		"exp":   time.Now().Add(s.tokenTTL).Unix(),
	}

	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.jwtSecret))
}
