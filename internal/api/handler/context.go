package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// ctxActor extracts the caller injected by the Auth middleware. A missing
// subject or role means the middleware did not run; reject with 401.
func ctxActor(c echo.Context) (domain.Actor, error) {
	id, _ := c.Get("user_id").(string)
	role, _ := c.Get("role").(string)
	if id == "" || role == "" {
		return domain.Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "missing authentication claims")
	}
	name, _ := c.Get("name").(string)
	return domain.Actor{ID: id, Role: role, Name: name}, nil
}

// bindAndValidate decodes the body into req and runs its validate tags.
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return nil
}

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}
