package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// RequestService is the lifecycle engine shared by the repair and academic
// marketplaces. One instance serves one domain.
type RequestService struct {
	domain      domain.ServiceDomain
	requests    ports.ServiceRequestRepository
	resolutions ports.ResolutionRepository
	earnings    ports.EarningRepository
	stats       *ExpertStats
	tx          ports.TxRunner
	logger      zerolog.Logger
	now         func() time.Time
}

func NewRequestService(
	d domain.ServiceDomain,
	requests ports.ServiceRequestRepository,
	resolutions ports.ResolutionRepository,
	earnings ports.EarningRepository,
	stats *ExpertStats,
	tx ports.TxRunner,
	logger zerolog.Logger,
) *RequestService {
	return &RequestService{
		domain:      d,
		requests:    requests,
		resolutions: resolutions,
		earnings:    earnings,
		stats:       stats,
		tx:          tx,
		logger:      logger.With().Str("domain", string(d.Kind)).Logger(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

func (s *RequestService) Domain() domain.ServiceDomain { return s.domain }

// Create opens a new pending request. If an idempotency key is provided and
// the owner already used it, the original request is returned unchanged.
func (s *RequestService) Create(ctx context.Context, actor domain.Actor, input ports.CreateRequestInput) (*ports.CreateRequestResult, error) {
	if err := canCreateRequest(s.domain, actor); err != nil {
		return nil, err
	}
	if err := s.validateCreate(&input); err != nil {
		return nil, err
	}

	if input.IdempotencyKey != "" {
		existing, err := s.requests.FindByIdempotencyKey(ctx, actor.ID, input.IdempotencyKey)
		switch {
		case err == nil:
			s.logger.Info().Str("idempotency_key", input.IdempotencyKey).Str("request_id", existing.ID).Msg("idempotent replay")
			return &ports.CreateRequestResult{Request: existing, AlreadyExisted: true}, nil
		case !errors.Is(err, domain.ErrNotFound):
			return nil, err
		}
	}

	now := s.now()
	req := &domain.ServiceRequest{
		ID:             uuid.NewString(),
		Kind:           s.domain.Kind,
		OwnerID:        actor.ID,
		OwnerName:      actor.Name,
		Title:          input.Title,
		Topic:          input.Topic,
		Detail:         input.Detail,
		Body:           input.Body,
		Media:          toMedia(input.Media),
		Messages:       []domain.Message{domain.SystemMessage(s.domain.CreatedNote(), now)},
		Status:         domain.StatusPending,
		PaymentStatus:  domain.PaymentUnpaid,
		IdempotencyKey: input.IdempotencyKey,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.requests.Create(ctx, req); err != nil {
		s.logger.Error().Err(err).Msg("failed to create request")
		return nil, err
	}

	s.logger.Info().Str("request_id", req.ID).Str("owner_id", actor.ID).Msg("request created")
	return &ports.CreateRequestResult{Request: req}, nil
}

func (s *RequestService) Get(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canViewRequest(s.domain, actor, req); err != nil {
		return nil, err
	}
	return req, nil
}

// List returns the owner's requests for requesters, and for experts the
// requests assigned to them plus every request still open for claiming.
func (s *RequestService) List(ctx context.Context, actor domain.Actor) ([]*domain.ServiceRequest, error) {
	if err := canListRequests(s.domain, actor); err != nil {
		return nil, err
	}
	filter := ports.RequestFilter{OwnerID: actor.ID}
	if actor.Role == s.domain.ExpertRole {
		filter = ports.RequestFilter{AssigneeID: actor.ID, IncludeClaimable: true}
	}
	return s.requests.List(ctx, filter)
}

// Claim assigns the calling expert to a pending, unassigned request. When two
// experts race, the storage-level conditional update lets exactly one win.
func (s *RequestService) Claim(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.claim(ctx, actor, req)
}

func (s *RequestService) claim(ctx context.Context, actor domain.Actor, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	if err := canClaimRequest(s.domain, actor, req); err != nil {
		return nil, err
	}
	note := domain.SystemMessage(s.domain.AssignedNote(actor.Name), s.now())
	updated, err := s.requests.Assign(ctx, req.ID, actor.ID, actor.Name, note)
	if err != nil {
		if errors.Is(err, domain.ErrStateChanged) {
			s.logger.Info().Str("request_id", req.ID).Str("expert_id", actor.ID).Msg("claim lost race")
		}
		return nil, err
	}
	s.logger.Info().Str("request_id", req.ID).Str("expert_id", actor.ID).Msg("request claimed")
	return updated, nil
}

// Update applies a PUT: an expert of the domain role touching an open
// request claims it first, then the field patch is applied, then an optional
// status change is routed to Start or Complete. The claim and the patch
// commit together, so a rejected patch leaves the request unclaimed.
func (s *RequestService) Update(ctx context.Context, actor domain.Actor, id string, input ports.UpdateRequestInput) (*domain.ServiceRequest, error) {
	if input.Status != nil {
		if st := *input.Status; st != domain.StatusInProgress && st != s.domain.TerminalStatus {
			return nil, domain.Validationf("status can only be set to %s or %s", domain.StatusInProgress, s.domain.TerminalStatus)
		}
	}
	if err := validatePatch(input.Patch); err != nil {
		return nil, err
	}

	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	claiming := actor.Role == s.domain.ExpertRole && claimable(req)
	if input.Patch.Empty() && input.Status == nil && !claiming {
		return nil, domain.Validation("no fields to update")
	}

	switch {
	case claiming:
		err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
			claimed, err := s.claim(ctx, actor, req)
			if err != nil {
				return err
			}
			if !input.Patch.Empty() {
				claimed, err = s.patch(ctx, actor, claimed, input.Patch)
				if err != nil {
					return err
				}
			}
			req = claimed
			return nil
		})
	case !input.Patch.Empty():
		req, err = s.patch(ctx, actor, req, input.Patch)
	}
	if err != nil {
		return nil, err
	}

	if input.Status == nil {
		return req, nil
	}
	if *input.Status == domain.StatusInProgress {
		// Resending the current status alongside an accepted patch is a no-op.
		if req.Status == domain.StatusInProgress && !input.Patch.Empty() {
			return req, nil
		}
		return s.start(ctx, actor, req)
	}
	return s.complete(ctx, actor, req, s.domain.CompletedNote())
}

func (s *RequestService) patch(ctx context.Context, actor domain.Actor, req *domain.ServiceRequest, patch domain.RequestPatch) (*domain.ServiceRequest, error) {
	if err := canPatchRequest(s.domain, actor, req); err != nil {
		return nil, err
	}
	guard := ports.PatchGuard{AssigneeID: actor.ID}
	if !req.IsAssignee(actor.ID) {
		guard = ports.PatchGuard{OwnerID: actor.ID, Status: domain.StatusPending}
	}
	updated, err := s.requests.Patch(ctx, req.ID, patch, guard, s.now())
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("request_id", req.ID).Str("actor_id", actor.ID).Msg("request updated")
	return updated, nil
}

func (s *RequestService) Start(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.start(ctx, actor, req)
}

func (s *RequestService) start(ctx context.Context, actor domain.Actor, req *domain.ServiceRequest) (*domain.ServiceRequest, error) {
	if err := canStartRequest(s.domain, actor, req); err != nil {
		return nil, err
	}
	updated, err := s.requests.Advance(ctx, ports.AdvanceParams{
		ID:         req.ID,
		AssigneeID: actor.ID,
		From:       []domain.RequestStatus{domain.StatusAssigned},
		To:         domain.StatusInProgress,
		Note:       domain.SystemMessage(s.domain.StartedNote(), s.now()),
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info().Str("request_id", req.ID).Str("expert_id", actor.ID).Msg("request started")
	return updated, nil
}

// Complete moves the request to the domain's terminal success state. The
// status change, counter increment and ledger entry commit together.
func (s *RequestService) Complete(ctx context.Context, actor domain.Actor, id string) (*domain.ServiceRequest, error) {
	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.complete(ctx, actor, req, s.domain.CompletedNote())
}

func (s *RequestService) complete(ctx context.Context, actor domain.Actor, req *domain.ServiceRequest, note string) (*domain.ServiceRequest, error) {
	if err := canCompleteRequest(s.domain, actor, req); err != nil {
		return nil, err
	}

	var updated *domain.ServiceRequest
	err := s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.finish(ctx, actor, req.ID, note)
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to complete request")
		return nil, err
	}

	s.stats.InvalidateDirectory(ctx, s.domain.ExpertRole)
	s.logger.Info().Str("request_id", req.ID).Str("expert_id", actor.ID).Msg("request completed")
	return updated, nil
}

// finish runs the terminal transition and its side effects. It must be
// called inside a transaction. The status update is conditional on the
// request still being active, so a retried call never double-counts.
func (s *RequestService) finish(ctx context.Context, actor domain.Actor, id, note string) (*domain.ServiceRequest, error) {
	now := s.now()
	updated, err := s.requests.Advance(ctx, ports.AdvanceParams{
		ID:          id,
		AssigneeID:  actor.ID,
		From:        s.domain.ActiveStatuses(),
		To:          s.domain.TerminalStatus,
		CompletedAt: &now,
		Note:        domain.SystemMessage(note, now),
	})
	if err != nil {
		return nil, err
	}

	if err := s.stats.RecordCompletion(ctx, actor.ID); err != nil {
		return nil, err
	}

	if updated.PaymentStatus == domain.PaymentPaid && strings.TrimSpace(updated.PriceQuote) != "" {
		record := &domain.EarningRecord{
			ID:          uuid.NewString(),
			ExpertID:    actor.ID,
			Amount:      strings.TrimSpace(updated.PriceQuote),
			ServiceType: s.domain.Kind,
			ServiceID:   updated.ID,
			IsPaid:      true,
			Date:        now,
		}
		if err := s.earnings.Create(ctx, record); err != nil {
			return nil, err
		}
		s.logger.Info().Str("request_id", updated.ID).Str("amount", record.Amount).Msg("earning recorded")
	}
	return updated, nil
}

// AppendMessage adds a message from the owner or the assigned expert.
func (s *RequestService) AppendMessage(ctx context.Context, actor domain.Actor, id string, input ports.MessageInput) (*domain.Message, error) {
	body := strings.TrimSpace(input.Body)
	if body == "" {
		return nil, domain.Validation("message is required")
	}

	req, err := s.requests.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := canMessageRequest(s.domain, actor, req); err != nil {
		return nil, err
	}

	msg := domain.Message{
		SenderID:   actor.ID,
		SenderName: actor.Name,
		SenderType: actor.Role,
		Body:       body,
		MediaURL:   strings.TrimSpace(input.MediaURL),
		Timestamp:  s.now(),
	}
	if _, err := s.requests.AppendMessage(ctx, req.ID, msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// Resolve stores the assigned expert's solution or answer. A successful
// resolution completes the request in the same transaction.
func (s *RequestService) Resolve(ctx context.Context, actor domain.Actor, input ports.ResolveInput) (*domain.Resolution, error) {
	input.Description = strings.TrimSpace(input.Description)
	if input.RequestID == "" {
		return nil, domain.Validation("request id is required")
	}
	if input.Description == "" {
		return nil, domain.Validationf("%s text is required", s.domain.ResolutionNoun)
	}
	if err := validateMedia(input.Media); err != nil {
		return nil, err
	}

	req, err := s.requests.FindByID(ctx, input.RequestID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.Validationf("%s %s not found", s.domain.RequestNoun, input.RequestID)
		}
		return nil, err
	}
	if err := canResolveRequest(s.domain, actor, req); err != nil {
		return nil, err
	}

	successful := input.Successful || s.domain.ResolutionCloses
	res := &domain.Resolution{
		ID:          uuid.NewString(),
		RequestID:   req.ID,
		Kind:        s.domain.Kind,
		ExpertID:    actor.ID,
		Description: input.Description,
		Explanation: strings.TrimSpace(input.Explanation),
		Steps:       nonEmpty(input.Steps),
		Media:       toMedia(input.Media),
		Successful:  successful,
		CreatedAt:   s.now(),
	}

	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if err := s.resolutions.Create(ctx, res); err != nil {
			return err
		}
		if !successful {
			return nil
		}
		_, err := s.finish(ctx, actor, req.ID, s.domain.ResolvedNote())
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Str("request_id", req.ID).Msg("failed to resolve request")
		return nil, err
	}

	if successful {
		s.stats.InvalidateDirectory(ctx, s.domain.ExpertRole)
	}
	s.logger.Info().Str("request_id", req.ID).Bool("successful", successful).Msg("request resolved")
	return res, nil
}

func (s *RequestService) GetResolution(ctx context.Context, actor domain.Actor, requestID string) (*domain.Resolution, error) {
	req, err := s.requests.FindByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := canViewResolution(s.domain, actor, req); err != nil {
		return nil, err
	}
	return s.resolutions.FindLatest(ctx, req.ID)
}

func (s *RequestService) validateCreate(input *ports.CreateRequestInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Topic = strings.TrimSpace(input.Topic)
	input.Detail = strings.TrimSpace(input.Detail)
	input.Body = strings.TrimSpace(input.Body)

	var missing []string
	if input.Title == "" {
		missing = append(missing, "title")
	}
	if input.Topic == "" {
		missing = append(missing, "topic")
	}
	if s.domain.DetailRequired && input.Detail == "" {
		missing = append(missing, "detail")
	}
	if input.Body == "" {
		missing = append(missing, "body")
	}
	if len(missing) > 0 {
		return domain.Validationf("missing required fields: %s", strings.Join(missing, ", "))
	}
	return validateMedia(input.Media)
}

func validatePatch(p domain.RequestPatch) error {
	if p.Title != nil && strings.TrimSpace(*p.Title) == "" {
		return domain.Validation("title cannot be empty")
	}
	if p.Body != nil && strings.TrimSpace(*p.Body) == "" {
		return domain.Validation("description cannot be empty")
	}
	if p.PaymentStatus != nil && !p.PaymentStatus.Valid() {
		return domain.Validationf("payment_status must be %s or %s", domain.PaymentUnpaid, domain.PaymentPaid)
	}
	return nil
}

func validateMedia(media []ports.MediaInput) error {
	for i, m := range media {
		if strings.TrimSpace(m.FileURL) == "" {
			return domain.Validationf("media[%d]: file_url is required", i)
		}
		if m.FileType != domain.MediaImage && m.FileType != domain.MediaVideo {
			return domain.Validationf("media[%d]: file_type must be image or video", i)
		}
	}
	return nil
}

func toMedia(in []ports.MediaInput) []domain.Media {
	out := make([]domain.Media, 0, len(in))
	for _, m := range in {
		out = append(out, domain.Media{
			FileURL:     strings.TrimSpace(m.FileURL),
			FileType:    m.FileType,
			Description: m.Description,
		})
	}
	return out
}

func nonEmpty(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
