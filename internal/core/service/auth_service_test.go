package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

func newAuthFixture() (*AuthService, *stubUserRepo, *stubExpertRepo) {
	users := newStubUserRepo()
	experts := newStubExpertRepo()
	return NewAuthService(users, experts, nil, "secret", time.Hour, discardLogger), users, experts
}

func TestAuthService_Register_Success(t *testing.T) {
	svc, _, experts := newAuthFixture()

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Email: "Alice@Example.com", Password: "pass123", FirstName: "Alice", LastName: "Liddell", Role: domain.RoleStudent,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("expected normalized email, got %s", user.Email)
	}
	if user.PasswordHash == "pass123" {
		t.Fatalf("expected password to be hashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("pass123")); err != nil {
		t.Fatalf("stored hash does not match password: %v", err)
	}
	if _, err := experts.FindByUserID(context.Background(), user.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("students must not get an expert profile, got %v", err)
	}
}

func TestAuthService_Register_ExpertGetsProfile(t *testing.T) {
	svc, _, experts := newAuthFixture()

	user, err := svc.Register(context.Background(), ports.RegisterInput{
		Email: "tech@example.com", Password: "pass123", Role: domain.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("Register returned error: %v", err)
	}
	p, err := experts.FindByUserID(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("expected expert profile: %v", err)
	}
	if p.AvailabilityHours != "9-17" || p.HourlyRate != "0" || p.CompletedServices != 0 || p.Rating != 0 {
		t.Errorf("unexpected defaults: %+v", p)
	}
}

func TestAuthService_Register_Validation(t *testing.T) {
	svc, _, _ := newAuthFixture()

	cases := []ports.RegisterInput{
		{Email: "", Password: "pass", Role: domain.RoleStudent},
		{Email: "a@example.com", Password: "", Role: domain.RoleStudent},
		{Email: "a@example.com", Password: "pass", Role: "wizard"},
		{Email: "a@example.com", Password: "pass", Role: domain.RoleAdmin},
	}
	for _, in := range cases {
		if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrValidation) {
			t.Errorf("%+v: expected validation error, got %v", in, err)
		}
	}
}

func TestAuthService_Register_Duplicate(t *testing.T) {
	svc, _, _ := newAuthFixture()
	in := ports.RegisterInput{Email: "dup@example.com", Password: "pass", Role: domain.RoleStudent}

	if _, err := svc.Register(context.Background(), in); err != nil {
		t.Fatalf("first Register: %v", err)
	}
	if _, err := svc.Register(context.Background(), in); !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthService_Login_Success(t *testing.T) {
	svc, _, _ := newAuthFixture()
	registered, err := svc.Register(context.Background(), ports.RegisterInput{
		Email: "bob@example.com", Password: "hunter2", FirstName: "Bob", LastName: "Builder", Role: domain.RoleTeacher,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}

	token, user, err := svc.Login(context.Background(), "bob@example.com", "hunter2")
	if err != nil {
		t.Fatalf("Login returned error: %v", err)
	}
	if user.ID != registered.ID {
		t.Errorf("unexpected user: %s", user.ID)
	}

	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) { return []byte("secret"), nil })
	if err != nil || !parsed.Valid {
		t.Fatalf("token did not verify: %v", err)
	}
	claims := parsed.Claims.(jwt.MapClaims)
	if claims["sub"] != registered.ID || claims["role"] != domain.RoleTeacher || claims["name"] != "Bob Builder" {
		t.Errorf("unexpected claims: %+v", claims)
	}
}

func TestAuthService_Login_InvalidCredentials(t *testing.T) {
	svc, _, _ := newAuthFixture()
	if _, err := svc.Register(context.Background(), ports.RegisterInput{Email: "c@example.com", Password: "right", Role: domain.RoleStudent}); err != nil {
		t.Fatalf("Register: %v", err)
	}

	if _, _, err := svc.Login(context.Background(), "c@example.com", "wrong"); err != domain.ErrInvalidCredentials {
		t.Errorf("wrong password: expected ErrInvalidCredentials, got %v", err)
	}
	if _, _, err := svc.Login(context.Background(), "nobody@example.com", "right"); err != domain.ErrInvalidCredentials {
		t.Errorf("unknown email: expected ErrInvalidCredentials, got %v", err)
	}
}

func TestAuthService_UpdateProfile(t *testing.T) {
	svc, users, _ := newAuthFixture()
	u, err := svc.Register(context.Background(), ports.RegisterInput{Email: "d@example.com", Password: "pw", FirstName: "Dee", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	actor := domain.Actor{ID: u.ID, Role: u.Role}

	updated, err := svc.UpdateProfile(context.Background(), actor, ports.ProfilePatch{Bio: strPtr("hi there")})
	if err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if updated.Bio != "hi there" || updated.FirstName != "Dee" {
		t.Errorf("unexpected profile: %+v", updated)
	}
	if _, err := svc.UpdateProfile(context.Background(), actor, ports.ProfilePatch{FirstName: strPtr(" ")}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}

	got, err := svc.GetProfile(context.Background(), actor)
	if err != nil || got.Bio != "hi there" {
		t.Errorf("GetProfile: %+v %v", got, err)
	}
	_ = users
}

func TestAuthService_ExpertChangesRefreshDirectory(t *testing.T) {
	users := newStubUserRepo()
	experts := newStubExpertRepo()
	cache := newStubDirectoryCache()
	auth := NewAuthService(users, experts, cache, "secret", time.Hour, discardLogger)
	directory := NewExpertService(users, experts, &stubEarningRepo{}, cache, discardLogger)

	before, err := directory.Directory(context.Background(), domain.RoleTechnician)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(before) != 0 {
		t.Fatalf("expected empty directory, got %d", len(before))
	}

	u, err := auth.Register(context.Background(), ports.RegisterInput{
		Email: "fix@example.com", Password: "pw", FirstName: "Fix", Role: domain.RoleTechnician,
	})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	after, err := directory.Directory(context.Background(), domain.RoleTechnician)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(after) != 1 || after[0].ID != u.ID {
		t.Fatalf("new technician missing from directory: %+v", after)
	}

	actor := domain.Actor{ID: u.ID, Role: u.Role}
	if _, err := auth.UpdateProfile(context.Background(), actor, ports.ProfilePatch{Bio: strPtr("phones and laptops")}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	refreshed, err := directory.Directory(context.Background(), domain.RoleTechnician)
	if err != nil {
		t.Fatalf("Directory: %v", err)
	}
	if len(refreshed) != 1 || refreshed[0].Bio != "phones and laptops" {
		t.Errorf("directory still stale after profile edit: %+v", refreshed)
	}
}

func TestAuthService_StudentChangesKeepDirectory(t *testing.T) {
	cache := newStubDirectoryCache()
	svc := NewAuthService(newStubUserRepo(), newStubExpertRepo(), cache, "secret", time.Hour, discardLogger)

	u, err := svc.Register(context.Background(), ports.RegisterInput{Email: "s@example.com", Password: "pw", FirstName: "Sue", Role: domain.RoleStudent})
	if err != nil {
		t.Fatalf("Register: %v", err)
	}
	if _, err := svc.UpdateProfile(context.Background(), domain.Actor{ID: u.ID, Role: u.Role}, ports.ProfilePatch{Bio: strPtr("hello")}); err != nil {
		t.Fatalf("UpdateProfile: %v", err)
	}
	if len(cache.invalidated) != 0 {
		t.Errorf("student changes should not touch the directory, got %v", cache.invalidated)
	}
}
