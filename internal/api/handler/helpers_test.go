package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

var (
	student    = domain.Actor{ID: "stu-1", Role: domain.RoleStudent, Name: "Sam Student"}
	technician = domain.Actor{ID: "tech-1", Role: domain.RoleTechnician, Name: "Tia Tech"}
	teacher    = domain.Actor{ID: "teach-1", Role: domain.RoleTeacher, Name: "Tom Teacher"}
)

// newContext builds an echo context for a JSON request, authenticated as
// actor unless actor.ID is empty.
func newContext(method, target, body string, actor domain.Actor) (echo.Context, *httptest.ResponseRecorder) {
	e := echo.New()
	e.Validator = NewValidator()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor.ID != "" {
		c.Set("user_id", actor.ID)
		c.Set("role", actor.Role)
		c.Set("name", actor.Name)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("invalid json %q: %v", rec.Body.String(), err)
	}
}

func assertHTTPError(t *testing.T, err error, code int) {
	t.Helper()
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		t.Fatalf("expected echo.HTTPError %d, got %v", code, err)
	}
	if he.Code != code {
		t.Fatalf("expected status %d, got %d (%v)", code, he.Code, he.Message)
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, code int) {
	t.Helper()
	if rec.Code != code {
		t.Fatalf("expected %d, got %d: %s", code, rec.Code, rec.Body.String())
	}
}
