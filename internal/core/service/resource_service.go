package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// ResourceService manages the resource catalog and per-user bookmarks.
type ResourceService struct {
	resources ports.ResourceRepository
	bookmarks ports.BookmarkRepository
	logger    zerolog.Logger
}

func NewResourceService(resources ports.ResourceRepository, bookmarks ports.BookmarkRepository, logger zerolog.Logger) *ResourceService {
	return &ResourceService{resources: resources, bookmarks: bookmarks, logger: logger}
}

func (s *ResourceService) Create(ctx context.Context, actor domain.Actor, input ports.CreateResourceInput) (*ports.ResourceView, error) {
	if !domain.IsExpertRole(actor.Role) {
		return nil, domain.Forbidden("only teachers and technicians can publish resources")
	}

	res := &domain.Resource{
		Title:        strings.TrimSpace(input.Title),
		Description:  strings.TrimSpace(input.Description),
		ResourceType: input.ResourceType,
		Category:     input.Category,
		Subject:      strings.TrimSpace(input.Subject),
		FileURL:      strings.TrimSpace(input.FileURL),
		ThumbnailURL: strings.TrimSpace(input.ThumbnailURL),
		Tags:         normalizeTags(input.Tags),
		IsPremium:    input.IsPremium,
	}
	if err := validateResource(res); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	res.ID = uuid.NewString()
	res.AuthorID = actor.ID
	res.AuthorName = actor.Name
	res.CreatedAt = now
	res.UpdatedAt = now

	if err := s.resources.Create(ctx, res); err != nil {
		return nil, err
	}
	s.logger.Info().Str("resource_id", res.ID).Str("author_id", actor.ID).Msg("resource created")
	return &ports.ResourceView{Resource: res}, nil
}

// List returns resources matching every set filter, newest first.
func (s *ResourceService) List(ctx context.Context, actor domain.Actor, filter ports.ResourceFilter) ([]ports.ResourceView, error) {
	items, err := s.resources.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.withBookmarks(ctx, actor, items)
}

// Search matches query case-insensitively against title, description and
// tags, newest first.
func (s *ResourceService) Search(ctx context.Context, actor domain.Actor, query string) ([]ports.ResourceView, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.Validation("search query is required")
	}
	items, err := s.resources.Search(ctx, query)
	if err != nil {
		return nil, err
	}
	return s.withBookmarks(ctx, actor, items)
}

// View retrieves a resource and counts the read. Every call increments.
func (s *ResourceService) View(ctx context.Context, actor domain.Actor, id string) (*ports.ResourceView, error) {
	res, err := s.resources.IncrementViews(ctx, id)
	if err != nil {
		return nil, err
	}
	marked, err := s.bookmarks.Exists(ctx, actor.ID, res.ID)
	if err != nil {
		return nil, err
	}
	return &ports.ResourceView{Resource: res, IsBookmarked: marked}, nil
}

func (s *ResourceService) Update(ctx context.Context, actor domain.Actor, id string, patch domain.ResourcePatch) (*ports.ResourceView, error) {
	res, err := s.authored(ctx, actor, id)
	if err != nil {
		return nil, err
	}

	merged := *res
	applyResourcePatch(&merged, patch)
	if err := validateResource(&merged); err != nil {
		return nil, err
	}

	updated, err := s.resources.Update(ctx, id, normalizedPatch(patch, &merged), time.Now().UTC())
	if err != nil {
		return nil, err
	}
	marked, err := s.bookmarks.Exists(ctx, actor.ID, id)
	if err != nil {
		return nil, err
	}
	return &ports.ResourceView{Resource: updated, IsBookmarked: marked}, nil
}

func (s *ResourceService) Delete(ctx context.Context, actor domain.Actor, id string) error {
	if _, err := s.authored(ctx, actor, id); err != nil {
		return err
	}
	if err := s.resources.Delete(ctx, id); err != nil {
		return err
	}
	removed, err := s.bookmarks.DeleteByResource(ctx, id)
	if err != nil {
		s.logger.Error().Err(err).Str("resource_id", id).Msg("failed to remove bookmarks of deleted resource")
		return err
	}
	s.logger.Info().Str("resource_id", id).Str("author_id", actor.ID).Int64("bookmarks_removed", removed).Msg("resource deleted")
	return nil
}

// Bookmark saves a resource for the caller. Bookmarking twice returns the
// existing bookmark.
func (s *ResourceService) Bookmark(ctx context.Context, actor domain.Actor, resourceID string) (*domain.Bookmark, error) {
	if strings.TrimSpace(resourceID) == "" {
		return nil, domain.Validation("resource_id is required")
	}
	if _, err := s.resources.FindByID(ctx, resourceID); err != nil {
		return nil, err
	}
	return s.bookmarks.CreateOrGet(ctx, &domain.Bookmark{
		ID:         uuid.NewString(),
		UserID:     actor.ID,
		ResourceID: resourceID,
		CreatedAt:  time.Now().UTC(),
	})
}

func (s *ResourceService) ListBookmarks(ctx context.Context, actor domain.Actor) ([]ports.ResourceView, error) {
	marks, err := s.bookmarks.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(marks))
	for _, m := range marks {
		ids = append(ids, m.ResourceID)
	}
	items, err := s.resources.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	views := make([]ports.ResourceView, 0, len(items))
	for _, r := range items {
		views = append(views, ports.ResourceView{Resource: r, IsBookmarked: true})
	}
	return views, nil
}

func (s *ResourceService) RemoveBookmark(ctx context.Context, actor domain.Actor, resourceID string) error {
	return s.bookmarks.Delete(ctx, actor.ID, resourceID)
}

func (s *ResourceService) authored(ctx context.Context, actor domain.Actor, id string) (*domain.Resource, error) {
	res, err := s.resources.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.AuthorID != actor.ID {
		return nil, domain.Forbidden("only the author can modify this resource")
	}
	return res, nil
}

func (s *ResourceService) withBookmarks(ctx context.Context, actor domain.Actor, items []*domain.Resource) ([]ports.ResourceView, error) {
	marks, err := s.bookmarks.ListByUser(ctx, actor.ID)
	if err != nil {
		return nil, err
	}
	marked := make(map[string]bool, len(marks))
	for _, m := range marks {
		marked[m.ResourceID] = true
	}
	views := make([]ports.ResourceView, 0, len(items))
	for _, r := range items {
		views = append(views, ports.ResourceView{Resource: r, IsBookmarked: marked[r.ID]})
	}
	return views, nil
}

func validateResource(r *domain.Resource) error {
	var missing []string
	if r.Title == "" {
		missing = append(missing, "title")
	}
	if r.Description == "" {
		missing = append(missing, "description")
	}
	if r.FileURL == "" {
		missing = append(missing, "file_url")
	}
	if len(missing) > 0 {
		return domain.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	if !domain.ValidResourceType(r.ResourceType) {
		return domain.Validation("resource_type must be one of: video, document, tutorial, guide")
	}
	if !domain.ValidResourceCategory(r.Category) {
		return domain.Validation("category must be repair or academic")
	}
	return nil
}

func applyResourcePatch(r *domain.Resource, p domain.ResourcePatch) {
	if p.Title != nil {
		r.Title = strings.TrimSpace(*p.Title)
	}
	if p.Description != nil {
		r.Description = strings.TrimSpace(*p.Description)
	}
	if p.ResourceType != nil {
		r.ResourceType = *p.ResourceType
	}
	if p.Category != nil {
		r.Category = *p.Category
	}
	if p.Subject != nil {
		r.Subject = strings.TrimSpace(*p.Subject)
	}
	if p.FileURL != nil {
		r.FileURL = strings.TrimSpace(*p.FileURL)
	}
	if p.ThumbnailURL != nil {
		r.ThumbnailURL = strings.TrimSpace(*p.ThumbnailURL)
	}
	if p.Tags != nil {
		r.Tags = normalizeTags(*p.Tags)
	}
	if p.IsPremium != nil {
		r.IsPremium = *p.IsPremium
	}
}

// normalizedPatch keeps the fields set in p but takes their values from the
// validated merge result.
func normalizedPatch(p domain.ResourcePatch, r *domain.Resource) domain.ResourcePatch {
	out := domain.ResourcePatch{}
	if p.Title != nil {
		out.Title = &r.Title
	}
	if p.Description != nil {
		out.Description = &r.Description
	}
	if p.ResourceType != nil {
		out.ResourceType = &r.ResourceType
	}
	if p.Category != nil {
		out.Category = &r.Category
	}
	if p.Subject != nil {
		out.Subject = &r.Subject
	}
	if p.FileURL != nil {
		out.FileURL = &r.FileURL
	}
	if p.ThumbnailURL != nil {
		out.ThumbnailURL = &r.ThumbnailURL
	}
	if p.Tags != nil {
		out.Tags = &r.Tags
	}
	if p.IsPremium != nil {
		out.IsPremium = &r.IsPremium
	}
	return out
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, t := range tags {
		t = strings.TrimSpace(t)
		if t == "" || seen[strings.ToLower(t)] {
			continue
		}
		seen[strings.ToLower(t)] = true
		out = append(out, t)
	}
	return out
}
