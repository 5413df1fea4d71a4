package ports

import (
	"context"
	"time"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// ResourceFilter is an exact-match AND filter. Empty fields are not applied.
type ResourceFilter struct {
	Category     string
	Subject      string
	ResourceType string
}

// ResourceRepository persists catalog entries. List and Search return
// newest first.
type ResourceRepository interface {
	Create(ctx context.Context, res *domain.Resource) error
	FindByID(ctx context.Context, id string) (*domain.Resource, error)
	FindByIDs(ctx context.Context, ids []string) ([]*domain.Resource, error)
	List(ctx context.Context, filter ResourceFilter) ([]*domain.Resource, error)
	Search(ctx context.Context, query string) ([]*domain.Resource, error)
	// IncrementViews bumps the view counter and returns the updated entry.
	IncrementViews(ctx context.Context, id string) (*domain.Resource, error)
	Update(ctx context.Context, id string, patch domain.ResourcePatch, at time.Time) (*domain.Resource, error)
	Delete(ctx context.Context, id string) error
}

// BookmarkRepository persists (user, resource) bookmarks.
type BookmarkRepository interface {
	// CreateOrGet returns the existing bookmark for the pair if there is one.
	CreateOrGet(ctx context.Context, bm *domain.Bookmark) (*domain.Bookmark, error)
	Exists(ctx context.Context, userID, resourceID string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Bookmark, error)
	Delete(ctx context.Context, userID, resourceID string) error
	// DeleteByResource removes every user's bookmark of a resource and
	// reports how many were removed.
	DeleteByResource(ctx context.Context, resourceID string) (int64, error)
}

type CreateResourceInput struct {
	Title        string
	Description  string
	ResourceType string
	Category     string
	Subject      string
	FileURL      string
	ThumbnailURL string
	Tags         []string
	IsPremium    bool
}

// ResourceView is a resource as seen by a caller.
type ResourceView struct {
	*domain.Resource
	IsBookmarked bool `json:"is_bookmarked"`
}

// ResourceService manages the resource catalog and bookmarks.
type ResourceService interface {
	Create(ctx context.Context, actor domain.Actor, input CreateResourceInput) (*ResourceView, error)
	List(ctx context.Context, actor domain.Actor, filter ResourceFilter) ([]ResourceView, error)
	Search(ctx context.Context, actor domain.Actor, query string) ([]ResourceView, error)
	View(ctx context.Context, actor domain.Actor, id string) (*ResourceView, error)
	Update(ctx context.Context, actor domain.Actor, id string, patch domain.ResourcePatch) (*ResourceView, error)
	Delete(ctx context.Context, actor domain.Actor, id string) error

	Bookmark(ctx context.Context, actor domain.Actor, resourceID string) (*domain.Bookmark, error)
	ListBookmarks(ctx context.Context, actor domain.Actor) ([]ResourceView, error)
	RemoveBookmark(ctx context.Context, actor domain.Actor, resourceID string) error
}
