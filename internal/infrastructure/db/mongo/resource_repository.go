package mongo

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

type ResourceRepository struct {
	col *mongo.Collection
}

func NewResourceRepository(db *mongo.Database) *ResourceRepository {
	return &ResourceRepository{col: db.Collection(CollectionResources)}
}

var newestFirst = bson.D{{Key: "created_at", Value: -1}}

func (r *ResourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, res); err != nil {
		return fmt.Errorf("insert resource: %w", err)
	}
	return nil
}

func (r *ResourceRepository) FindByID(ctx context.Context, id string) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res domain.Resource
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, fmt.Errorf("find resource: %w", err)
	}
	return &res, nil
}

func (r *ResourceRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Resource, error) {
	if len(ids) == 0 {
		return []*domain.Resource{}, nil
	}
	return r.find(ctx, bson.M{"_id": bson.M{"$in": ids}})
}

func (r *ResourceRepository) List(ctx context.Context, f ports.ResourceFilter) ([]*domain.Resource, error) {
	filter := bson.M{}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.Subject != "" {
		filter["subject"] = f.Subject
	}
	if f.ResourceType != "" {
		filter["resource_type"] = f.ResourceType
	}
	return r.find(ctx, filter)
}

// Search matches query as a case-insensitive literal substring of the title,
// the description or any tag.
func (r *ResourceRepository) Search(ctx context.Context, query string) ([]*domain.Resource, error) {
	pattern := primitive.Regex{Pattern: regexp.QuoteMeta(query), Options: "i"}
	return r.find(ctx, bson.M{"$or": bson.A{
		bson.M{"title": pattern},
		bson.M{"description": pattern},
		bson.M{"tags": pattern},
	}})
}

func (r *ResourceRepository) find(ctx context.Context, filter bson.M) ([]*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, filter, options.Find().SetSort(newestFirst))
	if err != nil {
		return nil, fmt.Errorf("list resources: %w", err)
	}
	out := make([]*domain.Resource, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode resources: %w", err)
	}
	return out, nil
}

func (r *ResourceRepository) IncrementViews(ctx context.Context, id string) (*domain.Resource, error) {
	return r.findAndUpdate(ctx, id, bson.M{"$inc": bson.M{"views": 1}})
}

func (r *ResourceRepository) Update(ctx context.Context, id string, patch domain.ResourcePatch, at time.Time) (*domain.Resource, error) {
	set := bson.M{"updated_at": at}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Description != nil {
		set["description"] = *patch.Description
	}
	if patch.ResourceType != nil {
		set["resource_type"] = *patch.ResourceType
	}
	if patch.Category != nil {
		set["category"] = *patch.Category
	}
	if patch.Subject != nil {
		set["subject"] = *patch.Subject
	}
	if patch.FileURL != nil {
		set["file_url"] = *patch.FileURL
	}
	if patch.ThumbnailURL != nil {
		set["thumbnail_url"] = *patch.ThumbnailURL
	}
	if patch.Tags != nil {
		set["tags"] = *patch.Tags
	}
	if patch.IsPremium != nil {
		set["is_premium"] = *patch.IsPremium
	}
	return r.findAndUpdate(ctx, id, bson.M{"$set": set})
}

func (r *ResourceRepository) findAndUpdate(ctx context.Context, id string, update bson.M) (*domain.Resource, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res domain.Resource
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": id}, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&res)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResourceNotFound
		}
		return nil, fmt.Errorf("update resource: %w", err)
	}
	return &res, nil
}

func (r *ResourceRepository) Delete(ctx context.Context, id string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("delete resource: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrResourceNotFound
	}
	return nil
}
