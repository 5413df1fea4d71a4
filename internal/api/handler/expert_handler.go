package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// ExpertHandler serves expert profiles, earnings and the directories.
type ExpertHandler struct {
	service ports.ExpertService
}

func NewExpertHandler(service ports.ExpertService) *ExpertHandler {
	return &ExpertHandler{service: service}
}

type updateExpertProfileRequest struct {
	ExpertiseAreas    *string `json:"expertise_areas"`
	ExperienceYears   *int    `json:"experience_years"   validate:"omitempty,gte=0"`
	HourlyRate        *string `json:"hourly_rate"`
	AvailabilityHours *string `json:"availability_hours"`
}

// GetProfile handles GET /api/auth/expert-profile.
//
// @Summary      Get own expert profile
// @Tags         experts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.ExpertProfile
// @Failure      403  {object}  errorResponse
// @Router       /api/auth/expert-profile [get]
func (h *ExpertHandler) GetProfile(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	profile, err := h.service.GetExpertProfile(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// UpdateProfile handles PUT /api/auth/expert-profile.
//
// @Summary      Update own expert profile
// @Tags         experts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      updateExpertProfileRequest  true  "Fields to change"
// @Success      200   {object}  domain.ExpertProfile
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/auth/expert-profile [put]
func (h *ExpertHandler) UpdateProfile(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req updateExpertProfileRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	profile, err := h.service.UpdateExpertProfile(c.Request().Context(), actor, ports.ExpertProfilePatch{
		ExpertiseAreas:    req.ExpertiseAreas,
		ExperienceYears:   req.ExperienceYears,
		HourlyRate:        req.HourlyRate,
		AvailabilityHours: req.AvailabilityHours,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}

// Earnings handles GET /api/auth/earnings.
//
// @Summary      Earnings dashboard
// @Tags         experts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  ports.EarningsDashboard
// @Failure      403  {object}  errorResponse
// @Router       /api/auth/earnings [get]
func (h *ExpertHandler) Earnings(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	dashboard, err := h.service.Earnings(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, dashboard)
}

// Directory returns a handler listing the experts of role, for
// GET /api/repair/technicians and GET /api/academic/teachers.
//
// @Summary      Expert directory
// @Tags         experts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ports.ExpertListing
// @Router       /api/repair/technicians [get]
// @Router       /api/academic/teachers [get]
func (h *ExpertHandler) Directory(role string) echo.HandlerFunc {
	return func(c echo.Context) error {
		listings, err := h.service.Directory(c.Request().Context(), role)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, listings)
	}
}
