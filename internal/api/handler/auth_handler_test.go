package handler

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

type stubAuthService struct {
	registerFn      func(ctx context.Context, input ports.RegisterInput) (*domain.User, error)
	loginFn         func(ctx context.Context, email, password string) (string, *domain.User, error)
	getProfileFn    func(ctx context.Context, actor domain.Actor) (*domain.User, error)
	updateProfileFn func(ctx context.Context, actor domain.Actor, patch ports.ProfilePatch) (*domain.User, error)
}

func (s *stubAuthService) Register(ctx context.Context, input ports.RegisterInput) (*domain.User, error) {
	return s.registerFn(ctx, input)
}

func (s *stubAuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	return s.loginFn(ctx, email, password)
}

func (s *stubAuthService) GetProfile(ctx context.Context, actor domain.Actor) (*domain.User, error) {
	return s.getProfileFn(ctx, actor)
}

func (s *stubAuthService) UpdateProfile(ctx context.Context, actor domain.Actor, patch ports.ProfilePatch) (*domain.User, error) {
	return s.updateProfileFn(ctx, actor, patch)
}

func TestAuthHandler_Register_Success(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			if in.Email != "ada@example.com" || in.Role != domain.RoleTechnician || in.FirstName != "Ada" {
				t.Fatalf("unexpected input: %+v", in)
			}
			return &domain.User{ID: "u1", Email: in.Email, FirstName: in.FirstName, Role: in.Role, PasswordHash: "hash"}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/api/auth/register",
		`{"email":"ada@example.com","password":"longenough","first_name":"Ada","user_type":"technician"}`, domain.Actor{})
	if err := h.Register(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusCreated)

	var resp map[string]map[string]any
	decodeBody(t, rec, &resp)
	user := resp["user"]
	if user["email"] != "ada@example.com" || user["user_type"] != "technician" {
		t.Fatalf("unexpected user payload: %+v", user)
	}
	if _, leaked := user["password_hash"]; leaked {
		t.Fatalf("password hash must not be serialized")
	}
}

func TestAuthHandler_Register_UserExists(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			return nil, domain.ErrUserExists
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/api/auth/register",
		`{"email":"ada@example.com","password":"longenough","user_type":"student"}`, domain.Actor{})
	err := h.Register(c)
	if !errors.Is(err, domain.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestAuthHandler_Register_RejectsInvalidInput(t *testing.T) {
	stub := &stubAuthService{
		registerFn: func(ctx context.Context, in ports.RegisterInput) (*domain.User, error) {
			t.Fatalf("should not be called")
			return nil, nil
		},
	}
	h := NewAuthHandler(stub)

	bodies := map[string]string{
		"not json":       "not-json",
		"bad email":      `{"email":"nope","password":"longenough","user_type":"student"}`,
		"short password": `{"email":"a@b.co","password":"short","user_type":"student"}`,
		"admin role":     `{"email":"a@b.co","password":"longenough","user_type":"admin"}`,
		"missing role":   `{"email":"a@b.co","password":"longenough"}`,
	}
	for name, body := range bodies {
		t.Run(name, func(t *testing.T) {
			c, _ := newContext(http.MethodPost, "/api/auth/register", body, domain.Actor{})
			assertHTTPError(t, h.Register(c), http.StatusBadRequest)
		})
	}
}

func TestAuthHandler_Login_Success(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			if email != "ada@example.com" || password != "secret" {
				t.Fatalf("unexpected args: %s %s", email, password)
			}
			return "token123", &domain.User{ID: "u1", Email: email, Role: domain.RoleStudent}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"secret"}`, domain.Actor{})
	if err := h.Login(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)

	var resp struct {
		Token string       `json:"token"`
		User  *domain.User `json:"user"`
	}
	decodeBody(t, rec, &resp)
	if resp.Token != "token123" || resp.User == nil || resp.User.ID != "u1" {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			return "", nil, &domain.Error{Kind: domain.ErrInvalidCredentials, Message: "invalid credentials"}
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com","password":"bad"}`, domain.Actor{})
	if err := h.Login(c); !errors.Is(err, domain.ErrInvalidCredentials) {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
}

func TestAuthHandler_Login_InvalidPayload(t *testing.T) {
	stub := &stubAuthService{
		loginFn: func(ctx context.Context, email, password string) (string, *domain.User, error) {
			t.Fatalf("should not be called")
			return "", nil, nil
		},
	}
	h := NewAuthHandler(stub)

	c, _ := newContext(http.MethodPost, "/api/auth/login", `{"email":"ada@example.com"}`, domain.Actor{})
	assertHTTPError(t, h.Login(c), http.StatusBadRequest)
}

func TestAuthHandler_Profile_RequiresClaims(t *testing.T) {
	h := NewAuthHandler(&stubAuthService{})

	c, _ := newContext(http.MethodGet, "/api/auth/profile", "", domain.Actor{})
	assertHTTPError(t, h.Profile(c), http.StatusUnauthorized)
}

func TestAuthHandler_UpdateProfile_PassesPatch(t *testing.T) {
	stub := &stubAuthService{
		updateProfileFn: func(ctx context.Context, actor domain.Actor, patch ports.ProfilePatch) (*domain.User, error) {
			if actor.ID != student.ID {
				t.Fatalf("unexpected actor %+v", actor)
			}
			if patch.Bio == nil || *patch.Bio != "hello" || patch.FirstName != nil {
				t.Fatalf("unexpected patch %+v", patch)
			}
			return &domain.User{ID: actor.ID, Bio: *patch.Bio}, nil
		},
	}
	h := NewAuthHandler(stub)

	c, rec := newContext(http.MethodPut, "/api/auth/profile", `{"bio":"hello"}`, student)
	if err := h.UpdateProfile(c); err != nil {
		t.Fatalf("handler error: %v", err)
	}
	assertStatus(t, rec, http.StatusOK)
}
