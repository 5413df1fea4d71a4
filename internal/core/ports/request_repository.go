package ports

import (
	"context"
	"time"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// RequestFilter selects the requests visible to a caller. Set fields are
// OR-combined: owned by OwnerID, or assigned to AssigneeID, or (when
// IncludeClaimable) pending with no assignee.
type RequestFilter struct {
	OwnerID          string
	AssigneeID       string
	IncludeClaimable bool
}

// AdvanceParams describes a guarded status transition. The update only
// applies when the stored status is one of From and the stored assignee
// equals AssigneeID.
type AdvanceParams struct {
	ID          string
	AssigneeID  string
	From        []domain.RequestStatus
	To          domain.RequestStatus
	CompletedAt *time.Time
	Note        domain.Message
}

// PatchGuard restricts a field patch to the state the caller was authorized
// against. Empty fields are not checked.
type PatchGuard struct {
	OwnerID    string
	AssigneeID string
	Status     domain.RequestStatus
}

// ServiceRequestRepository persists one domain's service requests. Every
// mutating method is a single conditional update; when the guard no longer
// holds it returns domain.ErrStateChanged.
type ServiceRequestRepository interface {
	Create(ctx context.Context, req *domain.ServiceRequest) error
	FindByID(ctx context.Context, id string) (*domain.ServiceRequest, error)
	FindByIdempotencyKey(ctx context.Context, ownerID, key string) (*domain.ServiceRequest, error)
	List(ctx context.Context, filter RequestFilter) ([]*domain.ServiceRequest, error)

	// Assign sets the assignee iff status is pending and no assignee is set.
	Assign(ctx context.Context, id, assigneeID, assigneeName string, note domain.Message) (*domain.ServiceRequest, error)
	Advance(ctx context.Context, params AdvanceParams) (*domain.ServiceRequest, error)
	Patch(ctx context.Context, id string, patch domain.RequestPatch, guard PatchGuard, at time.Time) (*domain.ServiceRequest, error)
	AppendMessage(ctx context.Context, id string, msg domain.Message) (*domain.ServiceRequest, error)
}

// ResolutionRepository persists solutions or answers for one domain.
type ResolutionRepository interface {
	Create(ctx context.Context, res *domain.Resolution) error
	// FindLatest returns the most recent resolution for the request.
	FindLatest(ctx context.Context, requestID string) (*domain.Resolution, error)
}

// TxRunner runs fn as one unit of work. Repositories called with the context
// passed to fn take part in the same transaction when the backend has one.
type TxRunner interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}
