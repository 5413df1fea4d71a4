package domain

import (
	"strings"
	"time"
)

const (
	ResourceVideo    = "video"
	ResourceDocument = "document"
	ResourceTutorial = "tutorial"
	ResourceGuide    = "guide"
)

func ValidResourceType(t string) bool {
	switch t {
	case ResourceVideo, ResourceDocument, ResourceTutorial, ResourceGuide:
		return true
	}
	return false
}

// ValidResourceCategory reports whether c is a catalog category. Resources are
// filed under one of the two service marketplaces.
func ValidResourceCategory(c string) bool {
	return c == string(KindRepair) || c == string(KindAcademic)
}

// Resource is a content-library entry owned by its author.
type Resource struct {
	ID           string    `json:"id" bson:"_id"`
	Title        string    `json:"title" bson:"title"`
	Description  string    `json:"description" bson:"description"`
	ResourceType string    `json:"resource_type" bson:"resource_type"`
	Category     string    `json:"category" bson:"category"`
	Subject      string    `json:"subject,omitempty" bson:"subject,omitempty"`
	FileURL      string    `json:"file_url" bson:"file_url"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty" bson:"thumbnail_url,omitempty"`
	AuthorID     string    `json:"author_id" bson:"author_id"`
	AuthorName   string    `json:"author_name" bson:"author_name"`
	Tags         []string  `json:"tags" bson:"tags"`
	Views        int       `json:"views" bson:"views"`
	IsPremium    bool      `json:"is_premium" bson:"is_premium"`
	CreatedAt    time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updated_at"`
}

// Matches reports whether q occurs case-insensitively in the title, the
// description, or any tag.
func (r *Resource) Matches(q string) bool {
	q = strings.ToLower(q)
	if strings.Contains(strings.ToLower(r.Title), q) || strings.Contains(strings.ToLower(r.Description), q) {
		return true
	}
	for _, t := range r.Tags {
		if strings.Contains(strings.ToLower(t), q) {
			return true
		}
	}
	return false
}

// ResourcePatch is a partial update of an authored resource.
type ResourcePatch struct {
	Title        *string
	Description  *string
	ResourceType *string
	Category     *string
	Subject      *string
	FileURL      *string
	ThumbnailURL *string
	Tags         *[]string
	IsPremium    *bool
}

// Bookmark pairs a user with a resource. Unique per pair.
type Bookmark struct {
	ID         string    `json:"id" bson:"_id"`
	UserID     string    `json:"user_id" bson:"user_id"`
	ResourceID string    `json:"resource_id" bson:"resource_id"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}
