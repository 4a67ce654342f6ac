package ports

import (
	"context"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
)

// ScopeResolver turns an authenticated user id into a Caller with its elder scope
type ScopeResolver interface {
	ResolveCaller(ctx context.Context, userID int64) (domain.Caller, error)
}

// AuthService handles signup, login and caretaker linkage
type AuthService interface {
	Signup(ctx context.Context, req SignupRequest) (*AuthResult, error)
	Login(ctx context.Context, email, password string) (*AuthResult, error)
	// LinkCaretaker links the calling elder to the caretaker with the given email
	LinkCaretaker(ctx context.Context, caller domain.Caller, caretakerEmail string) (*domain.User, error)
}

type MedicationService interface {
	ListMedications(ctx context.Context, caller domain.Caller, filter MedicationFilter) ([]*domain.Medication, error)
	CreateMedication(ctx context.Context, caller domain.Caller, req CreateMedicationRequest) (*domain.Medication, error)
	UpdateMedication(ctx context.Context, caller domain.Caller, medicationID int64, req UpdateMedicationRequest) (*domain.Medication, error)
	// DeactivateMedication is a soft delete: the log history is kept
	DeactivateMedication(ctx context.Context, caller domain.Caller, medicationID int64) error
	LogMedication(ctx context.Context, caller domain.Caller, medicationID int64, req LogMedicationRequest) (*domain.MedicationLog, error)
	ListMedicationLogs(ctx context.Context, caller domain.Caller, medicationID int64) ([]*domain.MedicationLog, error)
}

type HealthRecordService interface {
	ListHealthRecords(ctx context.Context, caller domain.Caller, filter HealthRecordQuery) ([]*domain.HealthRecord, error)
	CreateHealthRecord(ctx context.Context, caller domain.Caller, req CreateHealthRecordRequest) (*domain.HealthRecord, error)
}

type MealService interface {
	ListMeals(ctx context.Context, caller domain.Caller, filter MealQuery) ([]*domain.Meal, error)
	CreateMeal(ctx context.Context, caller domain.Caller, req CreateMealRequest) (*domain.Meal, error)
	ConsumeMeal(ctx context.Context, caller domain.Caller, mealID int64) (*domain.Meal, error)
}

type AppointmentService interface {
	ListAppointments(ctx context.Context, caller domain.Caller, elderID *int64) ([]*domain.Appointment, error)
	CreateAppointment(ctx context.Context, caller domain.Caller, req CreateAppointmentRequest) (*domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, caller domain.Caller, appointmentID int64, status string) (*domain.Appointment, error)
}

type EmergencyContactService interface {
	ListEmergencyContacts(ctx context.Context, caller domain.Caller, elderID *int64) ([]*domain.EmergencyContact, error)
	CreateEmergencyContact(ctx context.Context, caller domain.Caller, req CreateEmergencyContactRequest) (*domain.EmergencyContact, error)
}

type NotificationService interface {
	ListNotifications(ctx context.Context, caller domain.Caller) ([]*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, caller domain.Caller, notificationID int64) error
}

type LocationService interface {
	UpdateLocation(ctx context.Context, caller domain.Caller, req UpdateLocationRequest) (*domain.LocationLog, error)
	GetLatestLocation(ctx context.Context, caller domain.Caller, elderID int64) (*domain.LocationLog, error)
}

// AssistantService is the conversational and voice bridge. It is not scoped
// by caller identity.
type AssistantService interface {
	Chat(ctx context.Context, sessionID string, message string) (string, error)
	Transcribe(ctx context.Context, audio []byte) (string, error)
	Speak(ctx context.Context, text string) ([]byte, error)
}

// SignupRequest is the input for creating an account
type SignupRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Phone    string `json:"phone"`
	UserType string `json:"user_type"`
}

// AuthResult is returned by signup and login
type AuthResult struct {
	AccessToken string         `json:"access_token"`
	User        *domain.User   `json:"-"`
	Profile     map[string]any `json:"-"`
}

type MedicationFilter struct {
	ElderID         *int64
	IncludeInactive bool
}

type CreateMedicationRequest struct {
	ElderID      *int64 `json:"elder_id"`
	Name         string `json:"name"`
	Dosage       string `json:"dosage"`
	Frequency    string `json:"frequency"`
	Time         string `json:"time"`
	Instructions string `json:"instructions"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
}

// UpdateMedicationRequest carries only the fields present in the request body
type UpdateMedicationRequest struct {
	Name         *string `json:"name"`
	Dosage       *string `json:"dosage"`
	Frequency    *string `json:"frequency"`
	Time         *string `json:"time"`
	Instructions *string `json:"instructions"`
	IsActive     *bool   `json:"is_active"`
}

type LogMedicationRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

type HealthRecordQuery struct {
	ElderID    *int64
	RecordType string
	Days       int
}

type CreateHealthRecordRequest struct {
	ElderID *int64 `json:"elder_id"`
	Type    string `json:"type"`
	Value   string `json:"value"`
	Unit    string `json:"unit"`
	Notes   string `json:"notes"`
}

type MealQuery struct {
	ElderID *int64
	Date    string
}

type CreateMealRequest struct {
	ElderID       *int64   `json:"elder_id"`
	MealType      string   `json:"meal_type"`
	MealName      string   `json:"meal_name"`
	Calories      *int     `json:"calories"`
	Protein       *float64 `json:"protein"`
	Carbs         *float64 `json:"carbs"`
	Fats          *float64 `json:"fats"`
	ScheduledTime string   `json:"scheduled_time"`
	Notes         string   `json:"notes"`
}

type CreateAppointmentRequest struct {
	ElderID         *int64 `json:"elder_id"`
	Title           string `json:"title"`
	DoctorName      string `json:"doctor_name"`
	Location        string `json:"location"`
	AppointmentDate string `json:"appointment_date"`
	DurationMinutes *int   `json:"duration_minutes"`
	Notes           string `json:"notes"`
}

type CreateEmergencyContactRequest struct {
	ElderID      *int64 `json:"elder_id"`
	Name         string `json:"name"`
	Relationship string `json:"relationship"`
	Phone        string `json:"phone"`
	Email        string `json:"email"`
	IsPrimary    bool   `json:"is_primary"`
}

type UpdateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Accuracy  *float64 `json:"accuracy"`
}
