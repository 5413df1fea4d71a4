package mongo

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

type EarningRepository struct {
	col *mongo.Collection
}

func NewEarningRepository(db *mongo.Database) *EarningRepository {
	return &EarningRepository{col: db.Collection(CollectionEarnings)}
}

// Create inserts a ledger entry. The unique (service_type, service_id) index
// rejects a second entry for the same service.
func (r *EarningRepository) Create(ctx context.Context, record *domain.EarningRecord) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, record); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return domain.ErrDuplicateLedger
		}
		return fmt.Errorf("insert earning: %w", err)
	}
	return nil
}

func (r *EarningRepository) ListByExpert(ctx context.Context, expertID string) ([]*domain.EarningRecord, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"expert_id": expertID},
		options.Find().SetSort(bson.D{{Key: "date", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list earnings: %w", err)
	}
	records := make([]*domain.EarningRecord, 0)
	if err := cur.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode earnings: %w", err)
	}
	return records, nil
}
