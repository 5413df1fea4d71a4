package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Collection names.
const (
	CollectionUsers             = "users"
	CollectionExpertProfiles    = "expert_profiles"
	CollectionEarnings          = "earnings"
	CollectionRepairRequests    = "repair_requests"
	CollectionRepairSolutions   = "repair_solutions"
	CollectionAcademicQuestions = "academic_questions"
	CollectionAcademicAnswers   = "academic_answers"
	CollectionChatRooms         = "chat_rooms"
	CollectionResources         = "resources"
	CollectionBookmarks         = "resource_bookmarks"
	CollectionReviews           = "reviews"
)

// Config captures the minimal settings required to establish a MongoDB connection.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect establishes a MongoDB client, verifies connectivity with a ping, and
// returns both the client and the selected database. A default timeout is
// applied when none is provided.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("mongo connect: %w", err)
	}

	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("mongo ping: %w", err)
	}

	db := client.Database(cfg.Database)
	return client, db, nil
}

// EnsureIndexes creates every index the repositories rely on. The unique
// indexes back the duplicate guards: one account per email, one room per
// pair, one ledger entry per service, one review per reviewer and service,
// one bookmark per user and resource.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	unique := options.Index().SetUnique(true)
	requestIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "assignee_id", Value: 1}}},
		{Keys: bson.D{{Key: "status", Value: 1}}},
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "idempotency_key", Value: 1}},
			Options: options.Index().SetPartialFilterExpression(bson.M{"idempotency_key": bson.M{"$exists": true}}),
		},
	}
	resolutionIndexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "request_id", Value: 1}, {Key: "created_at", Value: -1}}},
	}

	plan := map[string][]mongo.IndexModel{
		CollectionUsers: {
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "user_type", Value: 1}}},
		},
		CollectionEarnings: {
			{Keys: bson.D{{Key: "service_type", Value: 1}, {Key: "service_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "expert_id", Value: 1}, {Key: "date", Value: -1}}},
		},
		CollectionRepairRequests:    requestIndexes,
		CollectionAcademicQuestions: requestIndexes,
		CollectionRepairSolutions:   resolutionIndexes,
		CollectionAcademicAnswers:   resolutionIndexes,
		CollectionChatRooms: {
			{Keys: bson.D{{Key: "pair_key", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updated_at", Value: -1}}},
		},
		CollectionResources: {
			{Keys: bson.D{{Key: "category", Value: 1}, {Key: "subject", Value: 1}, {Key: "resource_type", Value: 1}}},
			{Keys: bson.D{{Key: "created_at", Value: -1}}},
		},
		CollectionBookmarks: {
			{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "resource_id", Value: 1}}, Options: unique},
		},
		CollectionReviews: {
			{Keys: bson.D{{Key: "reviewer_id", Value: 1}, {Key: "service_type", Value: 1}, {Key: "service_id", Value: 1}}, Options: unique},
			{Keys: bson.D{{Key: "expert_id", Value: 1}, {Key: "created_at", Value: -1}}},
		},
	}

	for name, indexes := range plan {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, indexes); err != nil {
			return fmt.Errorf("ensure indexes on %s: %w", name, err)
		}
	}
	// Transactions cannot create collections implicitly.
	if err := ensureCollection(ctx, db, CollectionExpertProfiles); err != nil {
		return err
	}
	return nil
}

func ensureCollection(ctx context.Context, db *mongo.Database, name string) error {
	names, err := db.ListCollectionNames(ctx, bson.M{"name": name})
	if err != nil {
		return fmt.Errorf("list collections: %w", err)
	}
	if len(names) > 0 {
		return nil
	}
	if err := db.CreateCollection(ctx, name); err != nil {
		return fmt.Errorf("create collection %s: %w", name, err)
	}
	return nil
}
