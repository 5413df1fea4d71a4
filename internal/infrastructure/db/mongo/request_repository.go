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

// RequestRepository stores the service requests of one marketplace. Repair
// requests and academic questions live in separate collections.
type RequestRepository struct {
	col *mongo.Collection
}

func NewRequestRepository(db *mongo.Database, collection string) *RequestRepository {
	return &RequestRepository{col: db.Collection(collection)}
}

func (r *RequestRepository) Create(ctx context.Context, req *domain.ServiceRequest) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, req); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return &domain.Error{Kind: domain.ErrConflict, Message: "request already exists"}
		}
		return fmt.Errorf("insert request: %w", err)
	}
	return nil
}

func (r *RequestRepository) FindByID(ctx context.Context, id string) (*domain.ServiceRequest, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *RequestRepository) FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.ServiceRequest, error) {
	return r.findOne(ctx, bson.M{"owner_id": ownerID, "idempotency_key": key})
}

func (r *RequestRepository) findOne(ctx context.Context, filter bson.M) (*domain.ServiceRequest, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var req domain.ServiceRequest
	if err := r.col.FindOne(ctx, filter).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrRequestNotFound
		}
		return nil, fmt.Errorf("find request: %w", err)
	}
	return &req, nil
}

func (r *RequestRepository) List(ctx context.Context, filter ports.RequestFilter) ([]*domain.ServiceRequest, error) {
	var or bson.A
	if filter.OwnerID != "" {
		or = append(or, bson.M{"owner_id": filter.OwnerID})
	}
	if filter.AssigneeID != "" {
		or = append(or, bson.M{"assignee_id": filter.AssigneeID})
	}
	if filter.IncludeClaimable {
		or = append(or, unassignedPending())
	}
	if len(or) == 0 {
		return []*domain.ServiceRequest{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx, bson.M{"$or": or},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, fmt.Errorf("list requests: %w", err)
	}
	out := make([]*domain.ServiceRequest, 0)
	if err := cur.All(ctx, &out); err != nil {
		return nil, fmt.Errorf("decode requests: %w", err)
	}
	return out, nil
}

func (r *RequestRepository) Assign(ctx context.Context, id, assigneeID, assigneeName string, note domain.Message) (*domain.ServiceRequest, error) {
	filter := unassignedPending()
	filter["_id"] = id
	update := bson.M{
		"$set": bson.M{
			"assignee_id":   assigneeID,
			"assignee_name": assigneeName,
			"status":        domain.StatusAssigned,
			"updated_at":    note.Timestamp,
		},
		"$push": bson.M{"messages": note},
	}
	return r.conditionalUpdate(ctx, id, filter, update)
}

// Advance moves the request along the lifecycle. A CompletedAt in params
// also requires the stored request to have none, so a request is completed
// at most once.
func (r *RequestRepository) Advance(ctx context.Context, p ports.AdvanceParams) (*domain.ServiceRequest, error) {
	filter := bson.M{
		"_id":         p.ID,
		"assignee_id": p.AssigneeID,
		"status":      bson.M{"$in": p.From},
	}
	set := bson.M{"status": p.To, "updated_at": p.Note.Timestamp}
	if p.CompletedAt != nil {
		filter["completed_at"] = bson.M{"$exists": false}
		set["completed_at"] = *p.CompletedAt
	}
	update := bson.M{"$set": set, "$push": bson.M{"messages": p.Note}}
	return r.conditionalUpdate(ctx, p.ID, filter, update)
}

func (r *RequestRepository) Patch(ctx context.Context, id string, patch domain.RequestPatch, guard ports.PatchGuard, at time.Time) (*domain.ServiceRequest, error) {
	filter := bson.M{"_id": id}
	if guard.OwnerID != "" {
		filter["owner_id"] = guard.OwnerID
	}
	if guard.AssigneeID != "" {
		filter["assignee_id"] = guard.AssigneeID
	}
	if guard.Status != "" {
		filter["status"] = guard.Status
	}

	set := bson.M{"updated_at": at}
	if patch.Title != nil {
		set["title"] = *patch.Title
	}
	if patch.Topic != nil {
		set["topic"] = *patch.Topic
	}
	if patch.Detail != nil {
		set["detail"] = *patch.Detail
	}
	if patch.Body != nil {
		set["body"] = *patch.Body
	}
	if patch.PriceQuote != nil {
		set["price_quote"] = *patch.PriceQuote
	}
	if patch.PaymentStatus != nil {
		set["payment_status"] = *patch.PaymentStatus
	}
	return r.conditionalUpdate(ctx, id, filter, bson.M{"$set": set})
}

func (r *RequestRepository) AppendMessage(ctx context.Context, id string, msg domain.Message) (*domain.ServiceRequest, error) {
	update := bson.M{
		"$push": bson.M{"messages": msg},
		"$set":  bson.M{"updated_at": msg.Timestamp},
	}
	return r.conditionalUpdate(ctx, id, bson.M{"_id": id}, update)
}

// conditionalUpdate applies update to the document matching filter and
// returns it. When nothing matched it tells a missing request apart from one
// whose guard no longer holds.
func (r *RequestRepository) conditionalUpdate(ctx context.Context, id string, filter, update bson.M) (*domain.ServiceRequest, error) {
	uctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var req domain.ServiceRequest
	err := r.col.FindOneAndUpdate(uctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&req)
	if err == nil {
		return &req, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("update request: %w", err)
	}
	if _, err := r.FindByID(ctx, id); err != nil {
		return nil, err
	}
	return nil, domain.ErrStateChanged
}

func unassignedPending() bson.M {
	return bson.M{
		"status":      domain.StatusPending,
		"assignee_id": bson.M{"$in": bson.A{nil, ""}},
	}
}

// ResolutionRepository stores repair solutions or academic answers.
type ResolutionRepository struct {
	col *mongo.Collection
}

func NewResolutionRepository(db *mongo.Database, collection string) *ResolutionRepository {
	return &ResolutionRepository{col: db.Collection(collection)}
}

func (r *ResolutionRepository) Create(ctx context.Context, res *domain.Resolution) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, res); err != nil {
		return fmt.Errorf("insert resolution: %w", err)
	}
	return nil
}

func (r *ResolutionRepository) FindLatest(ctx context.Context, requestID string) (*domain.Resolution, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var res domain.Resolution
	opts := options.FindOne().SetSort(bson.D{{Key: "created_at", Value: -1}})
	if err := r.col.FindOne(ctx, bson.M{"request_id": requestID}, opts).Decode(&res); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrResolutionNotFound
		}
		return nil, fmt.Errorf("find resolution: %w", err)
	}
	return &res, nil
}
