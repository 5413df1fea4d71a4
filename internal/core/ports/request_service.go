package ports

import (
	"context"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// MediaInput is an attachment supplied by a caller.
type MediaInput struct {
	FileURL     string
	FileType    string
	Description string
}

// CreateRequestInput carries the normalized descriptive fields of a new
// service request.
type CreateRequestInput struct {
	Title          string
	Topic          string
	Detail         string
	Body           string
	Media          []MediaInput
	IdempotencyKey string
}

// CreateRequestResult is returned by Create.
type CreateRequestResult struct {
	Request *domain.ServiceRequest
	// AlreadyExisted is true when the Idempotency-Key matched an existing request.
	AlreadyExisted bool
}

// UpdateRequestInput is a PUT on a request: a field patch plus an optional
// status change routed to Start or Complete.
type UpdateRequestInput struct {
	Patch  domain.RequestPatch
	Status *domain.RequestStatus
}

type MessageInput struct {
	Body     string
	MediaURL string
}

// ResolveInput carries a repair solution or an academic answer.
type ResolveInput struct {
	RequestID   string
	Description string
	Explanation string
	Steps       []string
	Media       []MediaInput
	// Successful is forced to true for domains where a resolution always
	// closes the request.
	Successful bool
}

// RequestService is the lifecycle engine for one service domain.
type RequestService interface {
	Domain() domain.ServiceDomain
	Create(ctx context.Context, actor domain.Actor, input CreateRequestInput) (*CreateRequestResult, error)
	Get(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)
	List(ctx context.Context, actor domain.Actor) ([]*domain.ServiceRequest, error)
	Claim(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)
	Update(ctx context.Context, actor domain.Actor, id string, input UpdateRequestInput) (*domain.ServiceRequest, error)
	Start(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)
	Complete(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error)
	AppendMessage(ctx context.Context, actor domain.Actor, id string, input MessageInput) (*domain.Message, error)
	Resolve(ctx context.Context, actor domain.Actor, input ResolveInput) (*domain.Resolution, error)
	GetResolution(ctx context.Context, actor domain.Actor, requestID string) (*domain.Resolution, error)
}
