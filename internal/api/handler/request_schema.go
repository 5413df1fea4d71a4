package handler

import (
	"time"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
)

// --- Shared ---

type mediaRequest struct {
	FileURL     string `json:"file_url"    validate:"required"`
	FileType    string `json:"file_type"   validate:"required,oneof=image video"`
	Description string `json:"description"`
}

type messageRequest struct {
	Message  string `json:"message"   validate:"required"`
	MediaURL string `json:"media_url"`
}

// --- Repair ---

type createRepairRequest struct {
	Title            string         `json:"title"             validate:"required,max=200"`
	DeviceType       string         `json:"device_type"       validate:"required"`
	DeviceModel      string         `json:"device_model"      validate:"required"`
	IssueDescription string         `json:"issue_description" validate:"required"`
	Media            []mediaRequest `json:"media"             validate:"dive"`
}

type updateRepairRequest struct {
	Title            *string `json:"title"             validate:"omitempty,max=200"`
	DeviceType       *string `json:"device_type"`
	DeviceModel      *string `json:"device_model"`
	IssueDescription *string `json:"issue_description"`
	PriceQuote       *string `json:"price_quote"`
	PaymentStatus    *string `json:"payment_status"    validate:"omitempty,oneof=unpaid paid"`
	Status           *string `json:"status"`
}

type createRepairSolutionRequest struct {
	RepairRequest       string         `json:"repair_request"       validate:"required"`
	SolutionDescription string         `json:"solution_description" validate:"required"`
	SolutionSteps       []string       `json:"solution_steps"`
	Media               []mediaRequest `json:"media"                validate:"dive"`
	IsSuccessful        *bool          `json:"is_successful"`
}

type repairRequestResponse struct {
	ID               string               `json:"id"`
	StudentID        string               `json:"student_id"`
	StudentName      string               `json:"student_name"`
	TechnicianID     string               `json:"technician_id,omitempty"`
	TechnicianName   string               `json:"technician_name,omitempty"`
	Title            string               `json:"title"`
	DeviceType       string               `json:"device_type"`
	DeviceModel      string               `json:"device_model"`
	IssueDescription string               `json:"issue_description"`
	Media            []domain.Media       `json:"media"`
	Messages         []domain.Message     `json:"messages"`
	Status           domain.RequestStatus `json:"status"`
	PriceQuote       string               `json:"price_quote,omitempty"`
	PaymentStatus    domain.PaymentStatus `json:"payment_status"`
	CreatedAt        time.Time            `json:"created_at"`
	UpdatedAt        time.Time            `json:"updated_at"`
	CompletedAt      *time.Time           `json:"completed_at,omitempty"`
}

type repairSolutionResponse struct {
	ID                  string         `json:"id"`
	RepairRequest       string         `json:"repair_request"`
	Technician          string         `json:"technician"`
	SolutionDescription string         `json:"solution_description"`
	SolutionSteps       []string       `json:"solution_steps"`
	Media               []domain.Media `json:"media"`
	IsSuccessful        bool           `json:"is_successful"`
	CreatedAt           time.Time      `json:"created_at"`
}

// --- Academic ---

type createAcademicQuestionRequest struct {
	Title        string         `json:"title"         validate:"required,max=200"`
	Subject      string         `json:"subject"       validate:"required"`
	QuestionText string         `json:"question_text" validate:"required"`
	GradeLevel   string         `json:"grade_level"`
	Media        []mediaRequest `json:"media"         validate:"dive"`
}

type updateAcademicQuestionRequest struct {
	Title         *string `json:"title"          validate:"omitempty,max=200"`
	Subject       *string `json:"subject"`
	QuestionText  *string `json:"question_text"`
	GradeLevel    *string `json:"grade_level"`
	PriceQuote    *string `json:"price_quote"`
	PaymentStatus *string `json:"payment_status" validate:"omitempty,oneof=unpaid paid"`
	Status        *string `json:"status"`
}

type createAcademicAnswerRequest struct {
	Question    string         `json:"question"    validate:"required"`
	AnswerText  string         `json:"answer_text" validate:"required"`
	Explanation string         `json:"explanation" validate:"required"`
	References  []string       `json:"references"`
	Media       []mediaRequest `json:"media"       validate:"dive"`
}

type academicQuestionResponse struct {
	ID            string               `json:"id"`
	StudentID     string               `json:"student_id"`
	StudentName   string               `json:"student_name"`
	TeacherID     string               `json:"teacher_id,omitempty"`
	TeacherName   string               `json:"teacher_name,omitempty"`
	Title         string               `json:"title"`
	Subject       string               `json:"subject"`
	QuestionText  string               `json:"question_text"`
	GradeLevel    string               `json:"grade_level,omitempty"`
	Media         []domain.Media       `json:"media"`
	Messages      []domain.Message     `json:"messages"`
	Status        domain.RequestStatus `json:"status"`
	PriceQuote    string               `json:"price_quote,omitempty"`
	PaymentStatus domain.PaymentStatus `json:"payment_status"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
	AnsweredAt    *time.Time           `json:"answered_at,omitempty"`
}

type academicAnswerResponse struct {
	ID          string         `json:"id"`
	Question    string         `json:"question"`
	Teacher     string         `json:"teacher"`
	AnswerText  string         `json:"answer_text"`
	Explanation string         `json:"explanation"`
	References  []string       `json:"references"`
	Media       []domain.Media `json:"media"`
	CreatedAt   time.Time      `json:"created_at"`
}
