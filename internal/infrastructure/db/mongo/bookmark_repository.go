package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

type BookmarkRepository struct {
	col *mongo.Collection
}

func NewBookmarkRepository(db *mongo.Database) *BookmarkRepository {
	return &BookmarkRepository{col: db.Collection(CollectionBookmarks)}
}

func (r *BookmarkRepository) CreateOrGet(ctx context.Context, bm *domain.Bookmark) (*domain.Bookmark, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	_, err := r.col.InsertOne(ctx, bm)
	if err == nil {
		return bm, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return nil, fmt.Errorf("insert bookmark: %w", err)
	}

	var existing domain.Bookmark
	if err := r.col.FindOne(ctx, bson.M{"user_id": bm.UserID, "resource_id": bm.ResourceID}).Decode(&existing); err != nil {
		return nil, fmt.Errorf("find bookmark: %w", err)
	}
	return &existing, nil
}

func (r *BookmarkRepository) Exists(ctx context.Context, userID, resourceID string) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, bson.M{"user_id": userID, "resource_id": resourceID},
		options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count bookmarks: %w", err)
	}
	return n > 0, nil
}

func (r *BookmarkRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Bookmark, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list bookmarks: %w", err)
	}
	out := make([]*domain.Bookmark, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode bookmarks: %w", err)
	}
	return out, nil
}

func (r *BookmarkRepository) Delete(ctx context.Context, userID, resourceID string) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"user_id": userID, "resource_id": resourceID})
	if err != nil {
		return fmt.Errorf("delete bookmark: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrBookmarkNotFound
	}
	return nil
}

func (r *BookmarkRepository) DeleteByResource(ctx context.Context, resourceID string) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteMany(ctx, bson.M{"resource_id": resourceID})
	if err != nil {
		return 0, fmt.Errorf("delete bookmarks of resource: %w", err)
	}
	return res.DeletedCount, nil
}
