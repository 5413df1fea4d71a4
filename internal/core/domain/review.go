package domain

import (
	"math"
	"time"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Review is feedback on a finished service. Unique per reviewer and service.
type Review struct {
	ID           string      `json:"id" bson:"_id"`
	ReviewerID   string      `json:"reviewer_id" bson:"reviewer_id"`
	ReviewerName string      `json:"reviewer_name" bson:"reviewer_name"`
	ExpertID     string      `json:"expert_id" bson:"expert_id"`
	ServiceType  ServiceKind `json:"service_type" bson:"service_type"`
	ServiceID    string      `json:"service_id" bson:"service_id"`
	Rating       int         `json:"rating" bson:"rating"`
	Comment      string      `json:"comment" bson:"comment"`
	CreatedAt    time.Time   `json:"created_at" bson:"created_at"`
}

// RoundRating rounds an average rating to one decimal place.
func RoundRating(avg float64) float64 {
	return math.Round(avg*10) / 10
}
