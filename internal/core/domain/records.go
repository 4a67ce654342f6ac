package domain

import "time"

// HealthRecord is a single vital reading. RecordType is free-form
// (blood_pressure, heart_rate, temperature, weight, ...).
type HealthRecord struct {
	ID         int64     `json:"id"`
	ElderID    int64     `json:"elder_id"`
	RecordType string    `json:"type"`
	Value      string    `json:"value"`
	Unit       string    `json:"unit"`
	Notes      string    `json:"notes"`
	RecordedAt time.Time `json:"recorded_at"`
}

// Meal is a planned or consumed meal
type Meal struct {
	ID            int64      `json:"id"`
	ElderID       int64      `json:"elder_id"`
	MealType      string     `json:"meal_type"` // breakfast, lunch, dinner, snack
	MealName      string     `json:"meal_name"`
	Calories      *int       `json:"calories"`
	Protein       *float64   `json:"protein"`
	Carbs         *float64   `json:"carbs"`
	Fats          *float64   `json:"fats"`
	Consumed      bool       `json:"consumed"`
	ConsumedAt    *time.Time `json:"consumed_at"`
	ScheduledTime *time.Time `json:"scheduled_time"`
	Notes         string     `json:"notes"`
	CreatedAt     time.Time  `json:"created_at"`
}

// AppointmentStatus tracks an appointment's lifecycle
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// IsValidAppointmentStatus checks if s is scheduled, completed or cancelled
func IsValidAppointmentStatus(s AppointmentStatus) bool {
	switch s {
	case AppointmentScheduled, AppointmentCompleted, AppointmentCancelled:
		return true
	}
	return false
}

// DefaultAppointmentDuration is used when a create request omits the duration
const DefaultAppointmentDuration = 30

type Appointment struct {
	ID              int64             `json:"id"`
	ElderID         int64             `json:"elder_id"`
	ElderName       string            `json:"elder_name,omitempty"`
	Title           string            `json:"title"`
	DoctorName      string            `json:"doctor_name"`
	Location        string            `json:"location"`
	AppointmentDate time.Time         `json:"appointment_date"`
	DurationMinutes int               `json:"duration_minutes"`
	Status          AppointmentStatus `json:"status"`
	Notes           string            `json:"notes"`
	CreatedAt       time.Time         `json:"created_at"`
}

type EmergencyContact struct {
	ID           int64  `json:"id"`
	ElderID      int64  `json:"elder_id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	IsPrimary    bool   `json:"is_primary"`
}

// Notification is addressed to exactly one recipient user
type Notification struct {
	ID               int64     `json:"id"`
	ElderID          *int64    `json:"elder_id,omitempty"`
	RecipientUserID  int64     `json:"recipient_user_id"`
	Title            string    `json:"title"`
	Message          string    `json:"message"`
	NotificationType string    `json:"type"` // medication, appointment, health, emergency
	IsRead           bool      `json:"is_read"`
	CreatedAt        time.Time `json:"created_at"`
}

// LocationLog is one point of an append-only location series.
// The current location is the entry with the latest RecordedAt.
type LocationLog struct {
	ID         int64     `json:"id"`
	ElderID    int64     `json:"elder_id"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Accuracy   *float64  `json:"accuracy"`
	RecordedAt time.Time `json:"recorded_at"`
}
