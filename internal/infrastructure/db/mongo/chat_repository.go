package mongo

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

type ChatRepository struct {
	col *mongo.Collection
}

func NewChatRepository(db *mongo.Database) *ChatRepository {
	return &ChatRepository{col: db.Collection(CollectionChatRooms)}
}

// CreateOrGet upserts on the pair key. Two concurrent upserts for the same
// pair can both miss and race on the unique index; the loser re-reads.
func (r *ChatRepository) CreateOrGet(ctx context.Context, room *domain.ChatRoom) (*domain.ChatRoom, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc, err := toDocument(room)
	if err != nil {
		return nil, false, err
	}
	delete(doc, "pair_key")

	var stored domain.ChatRoom
	err = r.col.FindOneAndUpdate(ctx,
		bson.M{"pair_key": room.PairKey},
		bson.M{"$setOnInsert": doc},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&stored)
	if err != nil {
		if !mongo.IsDuplicateKeyError(err) {
			return nil, false, fmt.Errorf("upsert chat room: %w", err)
		}
		if err := r.col.FindOne(ctx, bson.M{"pair_key": room.PairKey}).Decode(&stored); err != nil {
			return nil, false, fmt.Errorf("find chat room: %w", err)
		}
	}
	return &stored, stored.ID == room.ID, nil
}

func (r *ChatRepository) FindByID(ctx context.Context, id string) (*domain.ChatRoom, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var room domain.ChatRoom
	if err := r.col.FindOne(ctx, bson.M{"_id": id}).Decode(&room); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("find chat room: %w", err)
	}
	return &room, nil
}

func (r *ChatRepository) ListByParticipant(ctx context.Context, userID string) ([]*domain.ChatRoom, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"participants": userID},
		options.Find().SetSort(bson.D{{Key: "updated_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list chat rooms: %w", err)
	}
	rooms := make([]*domain.ChatRoom, 0)
	if err := cur.All(ctx, &rooms); err != nil {
		return nil, fmt.Errorf("decode chat rooms: %w", err)
	}
	return rooms, nil
}

func (r *ChatRepository) AppendMessage(ctx context.Context, roomID string, msg domain.ChatMessage) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": roomID}, bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": msg.Timestamp},
	})
	if err != nil {
		return fmt.Errorf("append chat message: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}

func toDocument(v any) (bson.M, error) {
	raw, err := bson.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal document: %w", err)
	}
	var doc bson.M
	if err := bson.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("unmarshal document: %w", err)
	}
	return doc, nil
}
