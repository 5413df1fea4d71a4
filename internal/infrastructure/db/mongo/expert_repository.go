package mongo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// ExpertRepository stores expert profiles keyed by user id.
type ExpertRepository struct {
	col *mongo.Collection
}

func NewExpertRepository(db *mongo.Database) *ExpertRepository {
	return &ExpertRepository{col: db.Collection(CollectionExpertProfiles)}
}

func (r *ExpertRepository) Create(ctx context.Context, p *domain.ExpertProfile) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, p); err != nil {
		return fmt.Errorf("insert expert profile: %w", err)
	}
	return nil
}

func (r *ExpertRepository) FindByUserID(ctx context.Context, userID string) (*domain.ExpertProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var p domain.ExpertProfile
	if err := r.col.FindOne(ctx, bson.M{"_id": userID}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("find expert profile: %w", err)
	}
	return &p, nil
}

func (r *ExpertRepository) FindByUserIDs(ctx context.Context, userIDs []string) (map[string]*domain.ExpertProfile, error) {
	out := make(map[string]*domain.ExpertProfile, len(userIDs))
	if len(userIDs) == 0 {
		return out, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"_id": bson.M{"$in": userIDs}})
	if err != nil {
		return nil, fmt.Errorf("find expert profiles: %w", err)
	}
	var profiles []*domain.ExpertProfile
	if err := cur.All(ctx, &profiles); err != nil {
		return nil, fmt.Errorf("decode expert profiles: %w", err)
	}
	for _, p := range profiles {
		out[p.UserID] = p
	}
	return out, nil
}

func (r *ExpertRepository) Update(ctx context.Context, userID string, patch ports.ExpertProfilePatch, at time.Time) (*domain.ExpertProfile, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	set := bson.M{"updated_at": at}
	if patch.ExpertiseAreas != nil {
		set["expertise_areas"] = *patch.ExpertiseAreas
	}
	if patch.ExperienceYears != nil {
		set["experience_years"] = *patch.ExperienceYears
	}
	if patch.HourlyRate != nil {
		set["hourly_rate"] = *patch.HourlyRate
	}
	if patch.AvailabilityHours != nil {
		set["availability_hours"] = *patch.AvailabilityHours
	}

	var p domain.ExpertProfile
	err := r.col.FindOneAndUpdate(ctx, bson.M{"_id": userID}, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrProfileNotFound
		}
		return nil, fmt.Errorf("update expert profile: %w", err)
	}
	return &p, nil
}

func (r *ExpertRepository) IncrementCompleted(ctx context.Context, userID string, at time.Time) error {
	return r.updateOne(ctx, userID, bson.M{
		"$inc": bson.M{"completed_services": 1},
		"$set": bson.M{"updated_at": at},
	})
}

func (r *ExpertRepository) SetRating(ctx context.Context, userID string, rating float64, at time.Time) error {
	return r.updateOne(ctx, userID, bson.M{"$set": bson.M{"rating": rating, "updated_at": at}})
}

func (r *ExpertRepository) updateOne(ctx context.Context, userID string, update bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": userID}, update)
	if err != nil {
		return fmt.Errorf("update expert profile: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrProfileNotFound
	}
	return nil
}
