package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// ResourceHandler serves the content library and bookmarks.
type ResourceHandler struct {
	service ports.ResourceService
}

func NewResourceHandler(service ports.ResourceService) *ResourceHandler {
	return &ResourceHandler{service: service}
}

type createResourceRequest struct {
	Title        string   `json:"title"         validate:"required,max=200"`
	Description  string   `json:"description"   validate:"required"`
	ResourceType string   `json:"resource_type" validate:"required,oneof=video document tutorial guide"`
	Category     string   `json:"category"      validate:"required,oneof=repair academic"`
	Subject      string   `json:"subject"`
	FileURL      string   `json:"file_url"      validate:"required"`
	ThumbnailURL string   `json:"thumbnail_url"`
	Tags         []string `json:"tags"`
	IsPremium    bool     `json:"is_premium"`
}

type updateResourceRequest struct {
	Title        *string   `json:"title"         validate:"omitempty,max=200"`
	Description  *string   `json:"description"`
	ResourceType *string   `json:"resource_type" validate:"omitempty,oneof=video document tutorial guide"`
	Category     *string   `json:"category"      validate:"omitempty,oneof=repair academic"`
	Subject      *string   `json:"subject"`
	FileURL      *string   `json:"file_url"`
	ThumbnailURL *string   `json:"thumbnail_url"`
	Tags         *[]string `json:"tags"`
	IsPremium    *bool     `json:"is_premium"`
}

type bookmarkRequest struct {
	ResourceID string `json:"resource_id" validate:"required"`
}

// List handles GET /api/resources.
//
// @Summary      List resources
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        category       query  string  false  "repair or academic"
// @Param        subject        query  string  false  "Subject"
// @Param        resource_type  query  string  false  "video, document, tutorial or guide"
// @Success      200            {array}  ports.ResourceView
// @Router       /api/resources [get]
func (h *ResourceHandler) List(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	views, err := h.service.List(c.Request().Context(), actor, ports.ResourceFilter{
		Category:     c.QueryParam("category"),
		Subject:      c.QueryParam("subject"),
		ResourceType: c.QueryParam("resource_type"),
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// Search handles GET /api/resources/search?q=.
//
// @Summary      Search resources
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        q    query     string  true  "Case-insensitive text matched against title, description and tags"
// @Success      200  {array}   ports.ResourceView
// @Failure      400  {object}  errorResponse
// @Router       /api/resources/search [get]
func (h *ResourceHandler) Search(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	views, err := h.service.Search(c.Request().Context(), actor, c.QueryParam("q"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// Create handles POST /api/resources.
//
// @Summary      Publish a resource
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      createResourceRequest  true  "Resource"
// @Success      201   {object}  ports.ResourceView
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Router       /api/resources [post]
func (h *ResourceHandler) Create(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req createResourceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	view, err := h.service.Create(c.Request().Context(), actor, ports.CreateResourceInput{
		Title:        req.Title,
		Description:  req.Description,
		ResourceType: req.ResourceType,
		Category:     req.Category,
		Subject:      req.Subject,
		FileURL:      req.FileURL,
		ThumbnailURL: req.ThumbnailURL,
		Tags:         req.Tags,
		IsPremium:    req.IsPremium,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, view)
}

// Get handles GET /api/resources/:id. Each read counts as a view.
//
// @Summary      Get a resource
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource id"
// @Success      200  {object}  ports.ResourceView
// @Failure      404  {object}  errorResponse
// @Router       /api/resources/{id} [get]
func (h *ResourceHandler) Get(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	view, err := h.service.View(c.Request().Context(), actor, c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Update handles PUT /api/resources/:id.
//
// @Summary      Update an authored resource
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path      string                 true  "Resource id"
// @Param        body  body      updateResourceRequest  true  "Fields to change"
// @Success      200   {object}  ports.ResourceView
// @Failure      400   {object}  errorResponse
// @Failure      403   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/resources/{id} [put]
func (h *ResourceHandler) Update(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req updateResourceRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	view, err := h.service.Update(c.Request().Context(), actor, c.Param("id"), domain.ResourcePatch{
		Title:        req.Title,
		Description:  req.Description,
		ResourceType: req.ResourceType,
		Category:     req.Category,
		Subject:      req.Subject,
		FileURL:      req.FileURL,
		ThumbnailURL: req.ThumbnailURL,
		Tags:         req.Tags,
		IsPremium:    req.IsPremium,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

// Delete handles DELETE /api/resources/:id.
//
// @Summary      Delete an authored resource
// @Tags         resources
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource id"
// @Success      204
// @Failure      403  {object}  errorResponse
// @Failure      404  {object}  errorResponse
// @Router       /api/resources/{id} [delete]
func (h *ResourceHandler) Delete(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.service.Delete(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}

// ListBookmarks handles GET /api/resources/bookmarks.
//
// @Summary      List bookmarked resources
// @Tags         resources
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  ports.ResourceView
// @Router       /api/resources/bookmarks [get]
func (h *ResourceHandler) ListBookmarks(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	views, err := h.service.ListBookmarks(c.Request().Context(), actor)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, views)
}

// Bookmark handles POST /api/resources/bookmarks. Bookmarking twice returns
// the existing bookmark.
//
// @Summary      Bookmark a resource
// @Tags         resources
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body      bookmarkRequest  true  "Resource to bookmark"
// @Success      201   {object}  domain.Bookmark
// @Failure      400   {object}  errorResponse
// @Failure      404   {object}  errorResponse
// @Router       /api/resources/bookmarks [post]
func (h *ResourceHandler) Bookmark(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	var req bookmarkRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}
	bm, err := h.service.Bookmark(c.Request().Context(), actor, req.ResourceID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, bm)
}

// RemoveBookmark handles DELETE /api/resources/bookmarks/:id, where id is
// the bookmarked resource.
//
// @Summary      Remove a bookmark
// @Tags         resources
// @Security     BearerAuth
// @Param        id   path      string  true  "Resource id"
// @Success      204
// @Failure      404  {object}  errorResponse
// @Router       /api/resources/bookmarks/{id} [delete]
func (h *ResourceHandler) RemoveBookmark(c echo.Context) error {
	actor, err := ctxActor(c)
	if err != nil {
		return err
	}
	if err := h.service.RemoveBookmark(c.Request().Context(), actor, c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
