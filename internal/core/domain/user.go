package domain

import (
	"strings"
	"time"
)

const (
	RoleStudent    = "student"
	RoleTeacher    = "teacher"
	RoleTechnician = "technician"
	RoleAdmin      = "admin"
)

// ValidRole reports whether role is one of the known user types.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleTeacher, RoleTechnician, RoleAdmin:
		return true
	}
	return false
}

// IsExpertRole reports whether role may be assigned to service requests.
func IsExpertRole(role string) bool {
	return role == RoleTeacher || role == RoleTechnician
}

// User models an authenticated actor in the system. Role never changes after
// registration.
type User struct {
	ID                string    `json:"id" bson:"_id"`
	Email             string    `json:"email" bson:"email"`
	PasswordHash      string    `json:"-" bson:"password_hash"`
	FirstName         string    `json:"first_name" bson:"first_name"`
	LastName          string    `json:"last_name" bson:"last_name"`
	Role              string    `json:"user_type" bson:"user_type"`
	Bio               string    `json:"bio,omitempty" bson:"bio,omitempty"`
	ProfilePictureURL string    `json:"profile_picture,omitempty" bson:"profile_picture_url,omitempty"`
	IsActive          bool      `json:"is_active" bson:"is_active"`
	CreatedAt         time.Time `json:"date_joined" bson:"created_at"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Actor is the authenticated caller of a use case, as carried by the token.
type Actor struct {
	ID   string
	Role string
	Name string
}

// ExpertProfile holds the mutable metrics of a teacher or technician. It is
// keyed by the owning user's id.
type ExpertProfile struct {
	UserID            string    `json:"user_id" bson:"_id"`
	Role              string    `json:"user_type" bson:"user_type"`
	ExpertiseAreas    string    `json:"expertise_areas" bson:"expertise_areas"`
	ExperienceYears   int       `json:"experience_years" bson:"experience_years"`
	HourlyRate        string    `json:"hourly_rate" bson:"hourly_rate"`
	AvailabilityHours string    `json:"availability_hours" bson:"availability_hours"`
	CompletedServices int       `json:"completed_services" bson:"completed_services"`
	Rating            float64   `json:"rating" bson:"rating"`
	UpdatedAt         time.Time `json:"updated_at" bson:"updated_at"`
}

// NewExpertProfile returns the profile created alongside an expert account.
func NewExpertProfile(userID, role string, now time.Time) *ExpertProfile {
	return &ExpertProfile{
		UserID:            userID,
		Role:              role,
		HourlyRate:        "0",
		AvailabilityHours: "9-17",
		UpdatedAt:         now,
	}
}

// EarningRecord is an immutable ledger entry written when a paid service
// reaches its terminal success state.
type EarningRecord struct {
	ID          string      `json:"id" bson:"_id"`
	ExpertID    string      `json:"expert_id" bson:"expert_id"`
	Amount      string      `json:"amount" bson:"amount"`
	ServiceType ServiceKind `json:"service_type" bson:"service_type"`
	ServiceID   string      `json:"service_id" bson:"service_id"`
	IsPaid      bool        `json:"is_paid" bson:"is_paid"`
	Date        time.Time   `json:"date" bson:"date"`
}
