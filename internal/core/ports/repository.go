package ports

import (
	"context"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
)

// UserRepository persists users, their role profiles and caretaker linkage
type UserRepository interface {
	// CreateUser inserts the user and its role profile in one transaction.
	// Returns domain.ErrConflict if the email is already registered.
	CreateUser(ctx context.Context, user *domain.User) error

	GetUserByID(ctx context.Context, userID int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// GetCaretakerByEmail only resolves users whose role is caretaker
	GetCaretakerByEmail(ctx context.Context, email string) (*domain.User, error)

	GetElderProfileByUserID(ctx context.Context, userID int64) (*domain.ElderProfile, error)
	GetElderProfile(ctx context.Context, elderID int64) (*domain.ElderProfile, error)
	GetCaretakerProfileByUserID(ctx context.Context, userID int64) (*domain.CaretakerProfile, error)

	// ListElderProfilesByCaretaker returns every elder whose caretaker_id is caretakerUserID
	ListElderProfilesByCaretaker(ctx context.Context, caretakerUserID int64) ([]*domain.ElderProfile, error)

	LinkCaretaker(ctx context.Context, elderID int64, caretakerUserID int64) error
}

// MedicationRepository persists medications and their log history
type MedicationRepository interface {
	CreateMedication(ctx context.Context, medication *domain.Medication) error
	GetMedication(ctx context.Context, medicationID int64) (*domain.Medication, error)
	ListMedications(ctx context.Context, elderIDs []int64, includeInactive bool) ([]*domain.Medication, error)
	UpdateMedication(ctx context.Context, medication *domain.Medication) error

	// ListMedicationLogs returns logs of the given medications ordered by taken_at ascending
	ListMedicationLogs(ctx context.Context, medicationIDs []int64) ([]*domain.MedicationLog, error)

	// LogMedication inserts the log and, when notification is non-nil, the
	// notification row in the same transaction
	LogMedication(ctx context.Context, log *domain.MedicationLog, notification *domain.Notification) error
}

// HealthRecordFilter narrows a health record listing
type HealthRecordFilter struct {
	ElderIDs   []int64
	RecordType string
	Since      time.Time
}

type HealthRecordRepository interface {
	CreateHealthRecord(ctx context.Context, record *domain.HealthRecord) error
	ListHealthRecords(ctx context.Context, filter HealthRecordFilter) ([]*domain.HealthRecord, error)
}

type MealRepository interface {
	CreateMeal(ctx context.Context, meal *domain.Meal) error
	GetMeal(ctx context.Context, mealID int64) (*domain.Meal, error)
	// ListMeals filters by creation date when date is non-nil
	ListMeals(ctx context.Context, elderIDs []int64, date *time.Time) ([]*domain.Meal, error)
	ConsumeMeal(ctx context.Context, mealID int64, consumedAt time.Time) error
}

type AppointmentRepository interface {
	CreateAppointment(ctx context.Context, appointment *domain.Appointment) error
	GetAppointment(ctx context.Context, appointmentID int64) (*domain.Appointment, error)
	ListAppointments(ctx context.Context, elderIDs []int64) ([]*domain.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status domain.AppointmentStatus) error
}

type EmergencyContactRepository interface {
	CreateEmergencyContact(ctx context.Context, contact *domain.EmergencyContact) error
	ListEmergencyContacts(ctx context.Context, elderIDs []int64) ([]*domain.EmergencyContact, error)
}

type NotificationRepository interface {
	ListNotifications(ctx context.Context, recipientUserID int64, limit int) ([]*domain.Notification, error)
	GetNotification(ctx context.Context, notificationID int64) (*domain.Notification, error)
	MarkNotificationRead(ctx context.Context, notificationID int64) error
}

type LocationRepository interface {
	CreateLocation(ctx context.Context, location *domain.LocationLog) error
	// LatestLocation returns domain.ErrNotFound when the elder has no history
	LatestLocation(ctx context.Context, elderID int64) (*domain.LocationLog, error)
}

// EventEmitter pushes a real-time event to the room of recipientUserID.
// Delivery is best-effort and at-most-once: Emit never blocks on the
// recipient, never reports failures, and a disconnected recipient simply
// misses the event. There is no acknowledgment and no replay.
type EventEmitter interface {
	Emit(ctx context.Context, recipientUserID int64, event domain.Event)
}

// ConversationStore keeps the assistant transcript of each chat session
type ConversationStore interface {
	// History returns the retained transcript lines, oldest first
	History(ctx context.Context, sessionID string) ([]string, error)
	// Append adds lines and trims the session to its retention limit
	Append(ctx context.Context, sessionID string, lines ...string) error
}

// TextGenerator is the external generative model backing chat replies
type TextGenerator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// SpeechRecognizer turns a raw audio payload into text
type SpeechRecognizer interface {
	Recognize(ctx context.Context, audio []byte) (string, error)
}

// SpeechSynthesizer turns text into raw audio bytes
type SpeechSynthesizer interface {
	Synthesize(ctx context.Context, text string) ([]byte, error)
}

// TokenIssuer signs bearer tokens for a user
type TokenIssuer interface {
	IssueToken(user *domain.User) (string, error)
}
