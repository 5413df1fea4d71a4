package service

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

var discardLogger = zerolog.Nop()

// ---------------------------------------------------------------------------
// Identity stubs
// ---------------------------------------------------------------------------

type stubUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
}

func newStubUserRepo(users ...*domain.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[string]*domain.User)}
	for _, u := range users {
		clone := *u
		r.users[u.ID] = &clone
	}
	return r
}

func (r *stubUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == user.Email {
			return domain.ErrUserExists
		}
	}
	clone := *user
	r.users[user.ID] = &clone
	return nil
}

func (r *stubUserRepo) FindByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) FindByEmail(_ context.Context, email string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (r *stubUserRepo) UpdateProfile(_ context.Context, id string, patch ports.ProfilePatch, at time.Time) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	if patch.FirstName != nil {
		u.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		u.LastName = *patch.LastName
	}
	if patch.Bio != nil {
		u.Bio = *patch.Bio
	}
	u.UpdatedAt = at
	clone := *u
	return &clone, nil
}

func (r *stubUserRepo) ListByRole(_ context.Context, role string) ([]*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.User
	for _, u := range r.users {
		if u.Role == role {
			clone := *u
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type stubExpertRepo struct {
	mu       sync.Mutex
	profiles map[string]*domain.ExpertProfile
	incErr   error
}

func newStubExpertRepo() *stubExpertRepo {
	return &stubExpertRepo{profiles: make(map[string]*domain.ExpertProfile)}
}

func (r *stubExpertRepo) put(p *domain.ExpertProfile) {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *p
	r.profiles[p.UserID] = &clone
}

func (r *stubExpertRepo) Create(_ context.Context, p *domain.ExpertProfile) error {
	r.put(p)
	return nil
}

func (r *stubExpertRepo) FindByUserID(_ context.Context, userID string) (*domain.ExpertProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	clone := *p
	return &clone, nil
}

func (r *stubExpertRepo) FindByUserIDs(_ context.Context, ids []string) (map[string]*domain.ExpertProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*domain.ExpertProfile)
	for _, id := range ids {
		if p, ok := r.profiles[id]; ok {
			clone := *p
			out[id] = &clone
		}
	}
	return out, nil
}

func (r *stubExpertRepo) Update(_ context.Context, userID string, patch ports.ExpertProfilePatch, at time.Time) (*domain.ExpertProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return nil, domain.ErrProfileNotFound
	}
	if patch.ExpertiseAreas != nil {
		p.ExpertiseAreas = *patch.ExpertiseAreas
	}
	if patch.ExperienceYears != nil {
		p.ExperienceYears = *patch.ExperienceYears
	}
	if patch.HourlyRate != nil {
		p.HourlyRate = *patch.HourlyRate
	}
	if patch.AvailabilityHours != nil {
		p.AvailabilityHours = *patch.AvailabilityHours
	}
	p.UpdatedAt = at
	clone := *p
	return &clone, nil
}

func (r *stubExpertRepo) IncrementCompleted(_ context.Context, userID string, at time.Time) error {
	if r.incErr != nil {
		return r.incErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.CompletedServices++
	p.UpdatedAt = at
	return nil
}

func (r *stubExpertRepo) SetRating(_ context.Context, userID string, rating float64, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.profiles[userID]
	if !ok {
		return domain.ErrProfileNotFound
	}
	p.Rating = rating
	p.UpdatedAt = at
	return nil
}

type stubEarningRepo struct {
	mu      sync.Mutex
	records []*domain.EarningRecord
}

func (r *stubEarningRepo) Create(_ context.Context, rec *domain.EarningRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.records {
		if e.ServiceType == rec.ServiceType && e.ServiceID == rec.ServiceID {
			return domain.ErrDuplicateLedger
		}
	}
	clone := *rec
	r.records = append(r.records, &clone)
	return nil
}

func (r *stubEarningRepo) ListByExpert(_ context.Context, expertID string) ([]*domain.EarningRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.EarningRecord
	for _, e := range r.records {
		if e.ExpertID == expertID {
			clone := *e
			out = append(out, &clone)
		}
	}
	return out, nil
}

type stubDirectoryCache struct {
	entries     map[string][]ports.ExpertListing
	getErr      error
	invalidated []string
}

func newStubDirectoryCache() *stubDirectoryCache {
	return &stubDirectoryCache{entries: make(map[string][]ports.ExpertListing)}
}

func (c *stubDirectoryCache) Get(_ context.Context, role string) ([]ports.ExpertListing, bool, error) {
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	l, ok := c.entries[role]
	return l, ok, nil
}

func (c *stubDirectoryCache) Set(_ context.Context, role string, listings []ports.ExpertListing) error {
	c.entries[role] = listings
	return nil
}

func (c *stubDirectoryCache) Invalidate(_ context.Context, roles ...string) error {
	for _, role := range roles {
		delete(c.entries, role)
		c.invalidated = append(c.invalidated, role)
	}
	return nil
}

// ---------------------------------------------------------------------------
// Lifecycle stubs
// ---------------------------------------------------------------------------

// stubRequestRepo mirrors the conditional updates of the Mongo repository.
// All methods lock, so concurrent claims race exactly like findOneAndUpdate.
type stubRequestRepo struct {
	mu       sync.Mutex
	requests map[string]*domain.ServiceRequest
	patchErr error
}

func newStubRequestRepo() *stubRequestRepo {
	return &stubRequestRepo{requests: make(map[string]*domain.ServiceRequest)}
}

func cloneRequest(r *domain.ServiceRequest) *domain.ServiceRequest {
	clone := *r
	clone.Messages = append([]domain.Message(nil), r.Messages...)
	clone.Media = append([]domain.Media(nil), r.Media...)
	if r.CompletedAt != nil {
		ts := *r.CompletedAt
		clone.CompletedAt = &ts
	}
	return &clone
}

func (r *stubRequestRepo) snapshot() map[string]*domain.ServiceRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]*domain.ServiceRequest, len(r.requests))
	for id, req := range r.requests {
		out[id] = cloneRequest(req)
	}
	return out
}

func (r *stubRequestRepo) restore(snap map[string]*domain.ServiceRequest) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests = snap
}

func (r *stubRequestRepo) Create(_ context.Context, req *domain.ServiceRequest) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *stubRequestRepo) FindByID(_ context.Context, id string) (*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	return cloneRequest(req), nil
}

func (r *stubRequestRepo) FindByIdempotencyKey(_ context.Context, ownerID, key string) (*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, req := range r.requests {
		if req.OwnerID == ownerID && req.IdempotencyKey == key {
			return cloneRequest(req), nil
		}
	}
	return nil, domain.ErrRequestNotFound
}

func (r *stubRequestRepo) List(_ context.Context, f ports.RequestFilter) ([]*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ServiceRequest
	for _, req := range r.requests {
		switch {
		case f.OwnerID != "" && req.OwnerID == f.OwnerID,
			f.AssigneeID != "" && req.AssigneeID == f.AssigneeID,
			f.IncludeClaimable && req.Status == domain.StatusPending && req.AssigneeID == "":
			out = append(out, cloneRequest(req))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (r *stubRequestRepo) Assign(_ context.Context, id, assigneeID, assigneeName string, note domain.Message) (*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok || req.Status != domain.StatusPending || req.AssigneeID != "" {
		return nil, domain.ErrStateChanged
	}
	req.AssigneeID = assigneeID
	req.AssigneeName = assigneeName
	req.Status = domain.StatusAssigned
	req.Messages = append(req.Messages, note)
	req.UpdatedAt = note.Timestamp
	return cloneRequest(req), nil
}

func (r *stubRequestRepo) Advance(_ context.Context, p ports.AdvanceParams) (*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[p.ID]
	if !ok || req.AssigneeID != p.AssigneeID {
		return nil, domain.ErrStateChanged
	}
	allowed := false
	for _, st := range p.From {
		if req.Status == st {
			allowed = true
		}
	}
	if !allowed {
		return nil, domain.ErrStateChanged
	}
	req.Status = p.To
	if p.CompletedAt != nil {
		ts := *p.CompletedAt
		req.CompletedAt = &ts
	}
	req.Messages = append(req.Messages, p.Note)
	req.UpdatedAt = p.Note.Timestamp
	return cloneRequest(req), nil
}

func (r *stubRequestRepo) Patch(_ context.Context, id string, p domain.RequestPatch, g ports.PatchGuard, at time.Time) (*domain.ServiceRequest, error) {
	if r.patchErr != nil {
		return nil, r.patchErr
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok ||
		(g.OwnerID != "" && req.OwnerID != g.OwnerID) ||
		(g.AssigneeID != "" && req.AssigneeID != g.AssigneeID) ||
		(g.Status != "" && req.Status != g.Status) {
		return nil, domain.ErrStateChanged
	}
	if p.Title != nil {
		req.Title = *p.Title
	}
	if p.Topic != nil {
		req.Topic = *p.Topic
	}
	if p.Detail != nil {
		req.Detail = *p.Detail
	}
	if p.Body != nil {
		req.Body = *p.Body
	}
	if p.PriceQuote != nil {
		req.PriceQuote = *p.PriceQuote
	}
	if p.PaymentStatus != nil {
		req.PaymentStatus = *p.PaymentStatus
	}
	req.UpdatedAt = at
	return cloneRequest(req), nil
}

func (r *stubRequestRepo) AppendMessage(_ context.Context, id string, msg domain.Message) (*domain.ServiceRequest, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	req, ok := r.requests[id]
	if !ok {
		return nil, domain.ErrRequestNotFound
	}
	req.Messages = append(req.Messages, msg)
	req.UpdatedAt = msg.Timestamp
	return cloneRequest(req), nil
}

type stubResolutionRepo struct {
	mu    sync.Mutex
	items []*domain.Resolution
}

func (r *stubResolutionRepo) Create(_ context.Context, res *domain.Resolution) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	clone := *res
	r.items = append(r.items, &clone)
	return nil
}

func (r *stubResolutionRepo) FindLatest(_ context.Context, requestID string) (*domain.Resolution, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.items) - 1; i >= 0; i-- {
		if r.items[i].RequestID == requestID {
			clone := *r.items[i]
			return &clone, nil
		}
	}
	return nil, domain.ErrResolutionNotFound
}

// stubTx counts the units of work. When requests is set, a failed unit
// restores the request store to its state before the call.
type stubTx struct {
	calls    int
	requests *stubRequestRepo
}

func (t *stubTx) WithinTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	t.calls++
	var snap map[string]*domain.ServiceRequest
	if t.requests != nil {
		snap = t.requests.snapshot()
	}
	err := fn(ctx)
	if err != nil && snap != nil {
		t.requests.restore(snap)
	}
	return err
}

// ---------------------------------------------------------------------------
// Review stubs
// ---------------------------------------------------------------------------

type stubReviewRepo struct {
	mu      sync.Mutex
	reviews []*domain.Review
}

func (r *stubReviewRepo) Create(_ context.Context, review *domain.Review) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ReviewerID == review.ReviewerID && rv.ServiceType == review.ServiceType && rv.ServiceID == review.ServiceID {
			return domain.ErrDuplicateReview
		}
	}
	clone := *review
	r.reviews = append(r.reviews, &clone)
	return nil
}

func (r *stubReviewRepo) FindByID(_ context.Context, id string) (*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ID == id {
			clone := *rv
			return &clone, nil
		}
	}
	return nil, domain.ErrReviewNotFound
}

func (r *stubReviewRepo) Exists(_ context.Context, reviewerID string, kind domain.ServiceKind, serviceID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, rv := range r.reviews {
		if rv.ReviewerID == reviewerID && rv.ServiceType == kind && rv.ServiceID == serviceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubReviewRepo) List(_ context.Context, f ports.ReviewFilter) ([]*domain.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Review
	for i := len(r.reviews) - 1; i >= 0; i-- {
		rv := r.reviews[i]
		if (f.ReviewerID == "" || rv.ReviewerID == f.ReviewerID) &&
			(f.ExpertID == "" || rv.ExpertID == f.ExpertID) &&
			(f.ServiceType == "" || rv.ServiceType == f.ServiceType) {
			clone := *rv
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubReviewRepo) AverageForExpert(_ context.Context, expertID string) (float64, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	sum, n := 0, 0
	for _, rv := range r.reviews {
		if rv.ExpertID == expertID {
			sum += rv.Rating
			n++
		}
	}
	if n == 0 {
		return 0, 0, nil
	}
	return float64(sum) / float64(n), n, nil
}

// ---------------------------------------------------------------------------
// Chat stubs
// ---------------------------------------------------------------------------

type stubChatRepo struct {
	mu    sync.Mutex
	rooms map[string]*domain.ChatRoom
}

func newStubChatRepo() *stubChatRepo {
	return &stubChatRepo{rooms: make(map[string]*domain.ChatRoom)}
}

func (r *stubChatRepo) CreateOrGet(_ context.Context, room *domain.ChatRoom) (*domain.ChatRoom, bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rooms {
		if existing.PairKey == room.PairKey {
			clone := *existing
			return &clone, false, nil
		}
	}
	clone := *room
	r.rooms[room.ID] = &clone
	out := clone
	return &out, true, nil
}

func (r *stubChatRepo) FindByID(_ context.Context, id string) (*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	clone := *room
	clone.Messages = append([]domain.ChatMessage(nil), room.Messages...)
	return &clone, nil
}

func (r *stubChatRepo) ListByParticipant(_ context.Context, userID string) ([]*domain.ChatRoom, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.ChatRoom
	for _, room := range r.rooms {
		if room.HasParticipant(userID) {
			clone := *room
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubChatRepo) AppendMessage(_ context.Context, roomID string, msg domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	room, ok := r.rooms[roomID]
	if !ok {
		return domain.ErrRoomNotFound
	}
	room.Messages = append(room.Messages, msg)
	room.UpdatedAt = msg.Timestamp
	return nil
}

// ---------------------------------------------------------------------------
// Resource stubs
// ---------------------------------------------------------------------------

type stubResourceRepo struct {
	items map[string]*domain.Resource
}

func newStubResourceRepo(items ...*domain.Resource) *stubResourceRepo {
	r := &stubResourceRepo{items: make(map[string]*domain.Resource)}
	for _, it := range items {
		clone := *it
		r.items[it.ID] = &clone
	}
	return r
}

func (r *stubResourceRepo) newestFirst(keep func(*domain.Resource) bool) []*domain.Resource {
	var out []*domain.Resource
	for _, it := range r.items {
		if keep(it) {
			clone := *it
			out = append(out, &clone)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (r *stubResourceRepo) Create(_ context.Context, res *domain.Resource) error {
	clone := *res
	r.items[res.ID] = &clone
	return nil
}

func (r *stubResourceRepo) FindByID(_ context.Context, id string) (*domain.Resource, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	clone := *it
	return &clone, nil
}

func (r *stubResourceRepo) FindByIDs(_ context.Context, ids []string) ([]*domain.Resource, error) {
	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	return r.newestFirst(func(it *domain.Resource) bool { return want[it.ID] }), nil
}

func (r *stubResourceRepo) List(_ context.Context, f ports.ResourceFilter) ([]*domain.Resource, error) {
	return r.newestFirst(func(it *domain.Resource) bool {
		return (f.Category == "" || it.Category == f.Category) &&
			(f.Subject == "" || it.Subject == f.Subject) &&
			(f.ResourceType == "" || it.ResourceType == f.ResourceType)
	}), nil
}

func (r *stubResourceRepo) Search(_ context.Context, q string) ([]*domain.Resource, error) {
	return r.newestFirst(func(it *domain.Resource) bool { return it.Matches(q) }), nil
}

func (r *stubResourceRepo) IncrementViews(_ context.Context, id string) (*domain.Resource, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	it.Views++
	clone := *it
	return &clone, nil
}

func (r *stubResourceRepo) Update(_ context.Context, id string, p domain.ResourcePatch, at time.Time) (*domain.Resource, error) {
	it, ok := r.items[id]
	if !ok {
		return nil, domain.ErrResourceNotFound
	}
	applyResourcePatch(it, p)
	it.UpdatedAt = at
	clone := *it
	return &clone, nil
}

func (r *stubResourceRepo) Delete(_ context.Context, id string) error {
	if _, ok := r.items[id]; !ok {
		return domain.ErrResourceNotFound
	}
	delete(r.items, id)
	return nil
}

type stubBookmarkRepo struct {
	marks []*domain.Bookmark
}

func (r *stubBookmarkRepo) CreateOrGet(_ context.Context, bm *domain.Bookmark) (*domain.Bookmark, error) {
	for _, m := range r.marks {
		if m.UserID == bm.UserID && m.ResourceID == bm.ResourceID {
			clone := *m
			return &clone, nil
		}
	}
	clone := *bm
	r.marks = append(r.marks, &clone)
	out := clone
	return &out, nil
}

func (r *stubBookmarkRepo) Exists(_ context.Context, userID, resourceID string) (bool, error) {
	for _, m := range r.marks {
		if m.UserID == userID && m.ResourceID == resourceID {
			return true, nil
		}
	}
	return false, nil
}

func (r *stubBookmarkRepo) ListByUser(_ context.Context, userID string) ([]*domain.Bookmark, error) {
	var out []*domain.Bookmark
	for _, m := range r.marks {
		if m.UserID == userID {
			clone := *m
			out = append(out, &clone)
		}
	}
	return out, nil
}

func (r *stubBookmarkRepo) Delete(_ context.Context, userID, resourceID string) error {
	for i, m := range r.marks {
		if m.UserID == userID && m.ResourceID == resourceID {
			r.marks = append(r.marks[:i], r.marks[i+1:]...)
			return nil
		}
	}
	return domain.ErrBookmarkNotFound
}

func (r *stubBookmarkRepo) DeleteByResource(_ context.Context, resourceID string) (int64, error) {
	kept := r.marks[:0]
	for _, m := range r.marks {
		if m.ResourceID != resourceID {
			kept = append(kept, m)
		}
	}
	removed := int64(len(r.marks) - len(kept))
	r.marks = kept
	return removed, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func strPtr(s string) *string { return &s }

func lastMessage(req *domain.ServiceRequest) domain.Message {
	if len(req.Messages) == 0 {
		return domain.Message{}
	}
	return req.Messages[len(req.Messages)-1]
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
