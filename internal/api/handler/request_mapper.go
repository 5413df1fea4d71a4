package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/supportplatform/marketplace-api/internal/core/domain"
	"github.com/supportplatform/marketplace-api/internal/core/ports"
)

// requestCodec translates one marketplace's JSON contract to and from the
// shared lifecycle types.
type requestCodec struct {
	decodeCreate  func(c echo.Context) (ports.CreateRequestInput, error)
	decodeUpdate  func(c echo.Context) (ports.UpdateRequestInput, error)
	decodeResolve func(c echo.Context) (ports.ResolveInput, error)
	request       func(r *domain.ServiceRequest) any
	resolution    func(r *domain.Resolution) any
}

var repairCodec = requestCodec{
	decodeCreate: func(c echo.Context) (ports.CreateRequestInput, error) {
		var req createRepairRequest
		if err := bindAndValidate(c, &req); err != nil {
			return ports.CreateRequestInput{}, err
		}
		return ports.CreateRequestInput{
			Title:  req.Title,
			Topic:  req.DeviceType,
			Detail: req.DeviceModel,
			Body:   req.IssueDescription,
			Media:  toMediaInputs(req.Media),
		}, nil
	},
	decodeUpdate: func(c echo.Context) (ports.UpdateRequestInput, error) {
		var req updateRepairRequest
		if err := bindAndValidate(c, &req); err != nil {
			return ports.UpdateRequestInput{}, err
		}
		return ports.UpdateRequestInput{
			Patch: domain.RequestPatch{
				Title:         req.Title,
				Topic:         req.DeviceType,
				Detail:        req.DeviceModel,
				Body:          req.IssueDescription,
				PriceQuote:    req.PriceQuote,
				PaymentStatus: toPaymentStatus(req.PaymentStatus),
			},
			Status: toRequestStatus(req.Status),
		}, nil
	},
	decodeResolve: func(c echo.Context) (ports.ResolveInput, error) {
		var req createRepairSolutionRequest
		if err := bindAndValidate(c, &req); err != nil {
			return ports.ResolveInput{}, err
		}
		successful := true
		if req.IsSuccessful != nil {
			successful = *req.IsSuccessful
		}
		return ports.ResolveInput{
			RequestID:   req.RepairRequest,
			Description: req.SolutionDescription,
			Steps:       req.SolutionSteps,
			Media:       toMediaInputs(req.Media),
			Successful:  successful,
		}, nil
	},
	request: func(r *domain.ServiceRequest) any {
		return repairRequestResponse{
			ID:               r.ID,
			StudentID:        r.OwnerID,
			StudentName:      r.OwnerName,
			TechnicianID:     r.AssigneeID,
			TechnicianName:   r.AssigneeName,
			Title:            r.Title,
			DeviceType:       r.Topic,
			DeviceModel:      r.Detail,
			IssueDescription: r.Body,
			Media:            nonNilMedia(r.Media),
			Messages:         nonNilMessages(r.Messages),
			Status:           r.Status,
			PriceQuote:       r.PriceQuote,
			PaymentStatus:    r.PaymentStatus,
			CreatedAt:        r.CreatedAt.UTC(),
			UpdatedAt:        r.UpdatedAt.UTC(),
			CompletedAt:      r.CompletedAt,
		}
	},
	resolution: func(r *domain.Resolution) any {
		return repairSolutionResponse{
			ID:                  r.ID,
			RepairRequest:       r.RequestID,
			Technician:          r.ExpertID,
			SolutionDescription: r.Description,
			SolutionSteps:       nonNilStrings(r.Steps),
			Media:               nonNilMedia(r.Media),
			IsSuccessful:        r.Successful,
			CreatedAt:           r.CreatedAt.UTC(),
		}
	},
}

var academicCodec = requestCodec{
	decodeCreate: func(c echo.Context) (ports.CreateRequestInput, error) {
		var req createAcademicQuestionRequest
		if err := bindAndValidate(c, &req); err != nil {
			return ports.CreateRequestInput{}, err
		}
		return ports.CreateRequestInput{
			Title:  req.Title,
			Topic:  req.Subject,
			Detail: req.GradeLevel,
			Body:   req.QuestionText,
			Media:  toMediaInputs(req.Media),
		}, nil
	},
	decodeUpdate: func(c echo.Context) (ports.UpdateRequestInput, error) {
		var req updateAcademicQuestionRequest
		if err := bindAndValidate(c, &req); err != nil {
			return ports.UpdateRequestInput{}, err
		}
		return ports.UpdateRequestInput{
			Patch: domain.RequestPatch{
				Title:         req.Title,
				Topic:         req.Subject,
				Detail:        req.GradeLevel,
				Body:          req.QuestionText,
				PriceQuote:    req.PriceQuote,
				PaymentStatus: toPaymentStatus(req.PaymentStatus),
			},
			Status: toRequestStatus(req.Status),
		}, nil
	},
	decodeResolve: func(c echo.Context) (ports.ResolveInput, error) {
		var req createAcademicAnswerRequest
		if err := bindAndValidate(c, &req); err != nil {
			return ports.ResolveInput{}, err
		}
		return ports.ResolveInput{
			RequestID:   req.Question,
			Description: req.AnswerText,
			Explanation: req.Explanation,
			Steps:       req.References,
			Media:       toMediaInputs(req.Media),
			Successful:  true,
		}, nil
	},
	request: func(r *domain.ServiceRequest) any {
		return academicQuestionResponse{
			ID:            r.ID,
			StudentID:     r.OwnerID,
			StudentName:   r.OwnerName,
			TeacherID:     r.AssigneeID,
			TeacherName:   r.AssigneeName,
			Title:         r.Title,
			Subject:       r.Topic,
			QuestionText:  r.Body,
			GradeLevel:    r.Detail,
			Media:         nonNilMedia(r.Media),
			Messages:      nonNilMessages(r.Messages),
			Status:        r.Status,
			PriceQuote:    r.PriceQuote,
			PaymentStatus: r.PaymentStatus,
			CreatedAt:     r.CreatedAt.UTC(),
			UpdatedAt:     r.UpdatedAt.UTC(),
			AnsweredAt:    r.CompletedAt,
		}
	},
	resolution: func(r *domain.Resolution) any {
		return academicAnswerResponse{
			ID:          r.ID,
			Question:    r.RequestID,
			Teacher:     r.ExpertID,
			AnswerText:  r.Description,
			Explanation: r.Explanation,
			References:  nonNilStrings(r.Steps),
			Media:       nonNilMedia(r.Media),
			CreatedAt:   r.CreatedAt.UTC(),
		}
	},
}

func toMediaInputs(items []mediaRequest) []ports.MediaInput {
	out := make([]ports.MediaInput, len(items))
	for i, m := range items {
		out[i] = ports.MediaInput{FileURL: m.FileURL, FileType: m.FileType, Description: m.Description}
	}
	return out
}

func toPaymentStatus(s *string) *domain.PaymentStatus {
	if s == nil {
		return nil
	}
	p := domain.PaymentStatus(*s)
	return &p
}

func toRequestStatus(s *string) *domain.RequestStatus {
	if s == nil {
		return nil
	}
	st := domain.RequestStatus(*s)
	return &st
}

func nonNilMedia(m []domain.Media) []domain.Media {
	if m == nil {
		return []domain.Media{}
	}
	return m
}

func nonNilMessages(m []domain.Message) []domain.Message {
	if m == nil {
		return []domain.Message{}
	}
	return m
}

func nonNilStrings(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
