package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/supportplatform/marketplace-api/internal/api/metrics"
	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

type ReviewHandler struct {
	service ports.ReviewService
}

func NewReviewHandler(service ports.ReviewService) *ReviewHandler {
	return &ReviewHandler{service: service}
}

type submitReviewRequest struct {
	Expert      string `json:"expert"       validate:"required"`
	ServiceType string `json:"service_type" validate:"required,oneof=repair academic"`
	ServiceID   string `json:"service_id"   validate:"required"`
	Rating      int    `json:"rating"       validate:"required,gte=1,lte=5"`
	Comment     string `json:"comment"      validate:"required"`
}

// List handles GET /api/reviews.
//
// @Summary      List reviews
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        expert_id     query  string  false  "Reviewed expert"
// @Param        service_type  query  string  false  "repair or academic"
// @Success      200           {array}  domain.Review
// @Router       /api/reviews [get]
func (h *ReviewHandler) List(c echo.Context) error {
	reviews, err := h.service.List(c.Request().Context(), ports.ReviewFilter{
		ExpertID:    c.QueryParam("expert_id"),
		ServiceType: domain.ServiceKind(c.QueryParam("service_type")),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}

// Submit handles POST /api/reviews.
//
// @Summary      Review a finished service
// @Tags         reviews
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      submitReviewRequest  true  "Review"
// @Success      201   {object}  domain.Review
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/reviews [post]
func (h *ReviewHandler) Submit(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req submitReviewRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	review, err := h.service.Submit(c.Request().Context(), actor, ports.SubmitReviewInput{
		ExpertID:    req.Expert,
		ServiceType: domain.ServiceKind(req.ServiceType),
		ServiceID:   req.ServiceID,
		Rating:      req.Rating,
		Comment:     req.Comment,
	})
	if err != nil {
		return err
	}
	metrics.ReviewsSubmittedTotal.WithLabelValues(req.ServiceType).Inc()
	return c.JSON(http.StatusCreated, review)
}

// Get handles GET /api/reviews/:id.
//
// @Summary      Get a review
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Review id"
// @Success      200  {object}  domain.Review
// @Failure      404  {object}  errorResponse
// @Router       /api/reviews/{id} [get]
func (h *ReviewHandler) Get(c echo.Context) error {
	review, err := h.service.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, review)
}

// MyReviews handles GET /api/reviews/my-reviews.
//
// @Summary      Reviews written by the caller
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  domain.Review
// @Router       /api/reviews/my-reviews [get]
func (h *ReviewHandler) MyReviews(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	reviews, err := h.service.MyReviews(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}

// ExpertReviews handles GET /api/reviews/expert-reviews.
//
// @Summary      Reviews received by the calling expert
// @Tags         reviews
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Review
// @Failure      403  {object}  errorResponse
// @Router       /api/reviews/expert-reviews [get]
func (h *ReviewHandler) ExpertReviews(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	reviews, err := h.service.ExpertReviews(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, reviews)
}
