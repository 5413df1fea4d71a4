package domain

import (
	"fmt"
	"strings"
	"time"
)

// ServiceKind names the marketplace a request belongs to.
type ServiceKind string

const (
	KindRepair   ServiceKind = "repair"
	KindAcademic ServiceKind = "academic"
	KindGeneral  ServiceKind = "general"
)

// RequestStatus represents the lifecycle state of a service request.
type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusAnswered   RequestStatus = "answered"
	StatusCancelled  RequestStatus = "cancelled"
)

type PaymentStatus string

const (
	PaymentUnpaid PaymentStatus = "unpaid"
	PaymentPaid   PaymentStatus = "paid"
)

func (p PaymentStatus) Valid() bool { return p == PaymentUnpaid || p == PaymentPaid }

// ServiceDomain parameterizes the request lifecycle. The repair and academic
// marketplaces run the same state machine with different labels and roles.
type ServiceDomain struct {
	Kind           ServiceKind
	RequesterRole  string
	ExpertRole     string
	TerminalStatus RequestStatus
	Cancelable     bool
	// DetailRequired makes the secondary descriptive field mandatory
	// (device model for repairs; grade level is optional for questions).
	DetailRequired bool
	// ResolutionCloses marks domains where every resolution completes the
	// request, regardless of its success flag.
	ResolutionCloses bool

	RequestNoun    string
	ExpertTitle    string
	ResolutionNoun string
}

var RepairDomain = ServiceDomain{
	Kind:           KindRepair,
	RequesterRole:  RoleStudent,
	ExpertRole:     RoleTechnician,
	TerminalStatus: StatusCompleted,
	Cancelable:     true,
	DetailRequired: true,
	RequestNoun:    "repair request",
	ExpertTitle:    "Technician",
	ResolutionNoun: "solution",
}

var AcademicDomain = ServiceDomain{
	Kind:             KindAcademic,
	RequesterRole:    RoleStudent,
	ExpertRole:       RoleTeacher,
	TerminalStatus:   StatusAnswered,
	ResolutionCloses: true,
	RequestNoun:      "academic question",
	ExpertTitle:      "Teacher",
	ResolutionNoun:   "answer",
}

// DomainFor returns the lifecycle configuration for kind.
func DomainFor(kind ServiceKind) (ServiceDomain, bool) {
	switch kind {
	case KindRepair:
		return RepairDomain, true
	case KindAcademic:
		return AcademicDomain, true
	}
	return ServiceDomain{}, false
}

// CanTransition reports whether from → to is a legal step. Transitions only
// move forward; cancelled is reachable from any non-terminal state in
// cancelable domains.
func (d ServiceDomain) CanTransition(from, to RequestStatus) bool {
	if d.IsTerminal(from) {
		return false
	}
	if to == StatusCancelled {
		return d.Cancelable
	}
	switch from {
	case StatusPending:
		return to == StatusAssigned
	case StatusAssigned:
		return to == StatusInProgress || to == d.TerminalStatus
	case StatusInProgress:
		return to == d.TerminalStatus
	}
	return false
}

func (d ServiceDomain) IsTerminal(s RequestStatus) bool {
	return s == d.TerminalStatus || s == StatusCancelled
}

// ActiveStatuses are the states an assigned expert may complete from.
func (d ServiceDomain) ActiveStatuses() []RequestStatus {
	return []RequestStatus{StatusAssigned, StatusInProgress}
}

func (d ServiceDomain) CreatedNote() string {
	return fmt.Sprintf("%s created. Waiting for a %s to assist.", capitalize(d.RequestNoun), d.ExpertRole)
}

func (d ServiceDomain) AssignedNote(expertName string) string {
	return fmt.Sprintf("%s %s has been assigned to this %s.", d.ExpertTitle, expertName, d.RequestNoun)
}

func (d ServiceDomain) StartedNote() string {
	return fmt.Sprintf("The %s is now in progress.", d.ExpertRole)
}

func (d ServiceDomain) CompletedNote() string {
	return fmt.Sprintf("This %s has been marked as %s.", d.RequestNoun, d.TerminalStatus)
}

func (d ServiceDomain) ResolvedNote() string {
	return fmt.Sprintf("%s %s has been provided by the %s.", article(d.ResolutionNoun), d.ResolutionNoun, d.ExpertRole)
}

func article(noun string) string {
	if noun != "" && strings.ContainsRune("aeiou", rune(noun[0])) {
		return "An"
	}
	return "A"
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	if c := s[0]; c >= 'a' && c <= 'z' {
		return string(c-'a'+'A') + s[1:]
	}
	return s
}

const (
	MediaImage = "image"
	MediaVideo = "video"
)

// Media is an attachment on a request or resolution.
type Media struct {
	FileURL     string `json:"file_url" bson:"file_url"`
	FileType    string `json:"file_type" bson:"file_type"`
	Description string `json:"description,omitempty" bson:"description,omitempty"`
}

// SenderSystem marks messages narrated by the lifecycle itself.
const SenderSystem = "system"

// Message is an entry in a request thread. Messages are never edited.
type Message struct {
	SenderID   string    `json:"sender_id" bson:"sender_id"`
	SenderName string    `json:"sender_name" bson:"sender_name"`
	SenderType string    `json:"sender_type" bson:"sender_type"`
	Body       string    `json:"message" bson:"message"`
	MediaURL   string    `json:"media_url,omitempty" bson:"media_url,omitempty"`
	Timestamp  time.Time `json:"timestamp" bson:"timestamp"`
}

func SystemMessage(body string, ts time.Time) Message {
	return Message{
		SenderID:   SenderSystem,
		SenderName: "System",
		SenderType: SenderSystem,
		Body:       body,
		Timestamp:  ts,
	}
}

// ServiceRequest is the aggregate root shared by repair requests and academic
// questions. AssigneeID is empty exactly while the request is pending.
type ServiceRequest struct {
	ID             string        `json:"id" bson:"_id"`
	Kind           ServiceKind   `json:"kind" bson:"kind"`
	OwnerID        string        `json:"owner_id" bson:"owner_id"`
	OwnerName      string        `json:"owner_name" bson:"owner_name"`
	AssigneeID     string        `json:"assignee_id,omitempty" bson:"assignee_id,omitempty"`
	AssigneeName   string        `json:"assignee_name,omitempty" bson:"assignee_name,omitempty"`
	Title          string        `json:"title" bson:"title"`
	Topic          string        `json:"topic" bson:"topic"`
	Detail         string        `json:"detail,omitempty" bson:"detail,omitempty"`
	Body           string        `json:"body" bson:"body"`
	Media          []Media       `json:"media" bson:"media"`
	Messages       []Message     `json:"messages" bson:"messages"`
	Status         RequestStatus `json:"status" bson:"status"`
	PriceQuote     string        `json:"price_quote,omitempty" bson:"price_quote,omitempty"`
	PaymentStatus  PaymentStatus `json:"payment_status" bson:"payment_status"`
	IdempotencyKey string        `json:"-" bson:"idempotency_key,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updated_at"`
	CompletedAt    *time.Time    `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
}

func (r *ServiceRequest) IsAssigned() bool { return r.AssigneeID != "" }

func (r *ServiceRequest) IsOwner(userID string) bool { return r.OwnerID == userID }

func (r *ServiceRequest) IsAssignee(userID string) bool {
	return r.AssigneeID != "" && r.AssigneeID == userID
}

// RequestPatch is a partial update of the mutable request fields. Nil fields
// are left untouched.
type RequestPatch struct {
	Title         *string
	Topic         *string
	Detail        *string
	Body          *string
	PriceQuote    *string
	PaymentStatus *PaymentStatus
}

func (p RequestPatch) Empty() bool {
	return p.Title == nil && p.Topic == nil && p.Detail == nil && p.Body == nil &&
		p.PriceQuote == nil && p.PaymentStatus == nil
}

// Resolution is the expert's write-up that closes a request: a repair
// solution or an academic answer.
type Resolution struct {
	ID          string      `json:"id" bson:"_id"`
	RequestID   string      `json:"request_id" bson:"request_id"`
	Kind        ServiceKind `json:"kind" bson:"kind"`
	ExpertID    string      `json:"expert_id" bson:"expert_id"`
	Description string      `json:"description" bson:"description"`
	Explanation string      `json:"explanation,omitempty" bson:"explanation,omitempty"`
	Steps       []string    `json:"steps" bson:"steps"`
	Media       []Media     `json:"media" bson:"media"`
	Successful  bool        `json:"is_successful" bson:"is_successful"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}
