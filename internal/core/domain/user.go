package domain

import (
	"time"
)

// Role is the immutable user type chosen at signup
type Role string

const (
	RoleElder     Role = "elder"
	RoleCaretaker Role = "caretaker"
)

// Valid reports whether r is one of the two supported roles
func (r Role) Valid() bool {
	return r == RoleElder || r == RoleCaretaker
}

// User is an authenticated account. Exactly one profile row exists per user,
// matching its role.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	FullName     string    `json:"full_name"`
	Phone        string    `json:"phone,omitempty"`
	UserType     Role      `json:"user_type"`
	CreatedAt    time.Time `json:"created_at"`
}

// ElderProfile is the scope owner of every domain record.
// CaretakerID holds the linked caretaker's user id, nil when unlinked.
type ElderProfile struct {
	ID                int64      `json:"id"`
	UserID            int64      `json:"user_id"`
	CaretakerID       *int64     `json:"caretaker_id"`
	DateOfBirth       *time.Time `json:"date_of_birth,omitempty"`
	Address           string     `json:"address,omitempty"`
	EmergencyContact  string     `json:"emergency_contact,omitempty"`
	MedicalConditions string     `json:"medical_conditions,omitempty"`

	// FullName is joined from the owning user row
	FullName string `json:"full_name"`
}

// CaretakerProfile holds caretaker specific details
type CaretakerProfile struct {
	ID              int64  `json:"id"`
	UserID          int64  `json:"user_id"`
	Specialization  string `json:"specialization,omitempty"`
	ExperienceYears *int   `json:"experience_years,omitempty"`
	Certification   string `json:"certification,omitempty"`
}
