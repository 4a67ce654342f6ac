package services_test

import (
	"context"
	"sync"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockUserRepository is a mock implementation of UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) CreateUser(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) GetUserByID(ctx context.Context, userID int64) (*domain.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetCaretakerByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepository) GetElderProfileByUserID(ctx context.Context, userID int64) (*domain.ElderProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ElderProfile), args.Error(1)
}

func (m *MockUserRepository) GetElderProfile(ctx context.Context, elderID int64) (*domain.ElderProfile, error) {
	args := m.Called(ctx, elderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.ElderProfile), args.Error(1)
}

func (m *MockUserRepository) GetCaretakerProfileByUserID(ctx context.Context, userID int64) (*domain.CaretakerProfile, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.CaretakerProfile), args.Error(1)
}

func (m *MockUserRepository) ListElderProfilesByCaretaker(ctx context.Context, caretakerUserID int64) ([]*domain.ElderProfile, error) {
	args := m.Called(ctx, caretakerUserID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.ElderProfile), args.Error(1)
}

func (m *MockUserRepository) LinkCaretaker(ctx context.Context, elderID int64, caretakerUserID int64) error {
	args := m.Called(ctx, elderID, caretakerUserID)
	return args.Error(0)
}

// MockMedicationRepository is a mock implementation of MedicationRepository
type MockMedicationRepository struct {
	mock.Mock
}

func (m *MockMedicationRepository) CreateMedication(ctx context.Context, medication *domain.Medication) error {
	args := m.Called(ctx, medication)
	return args.Error(0)
}

func (m *MockMedicationRepository) GetMedication(ctx context.Context, medicationID int64) (*domain.Medication, error) {
	args := m.Called(ctx, medicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Medication), args.Error(1)
}

func (m *MockMedicationRepository) ListMedications(ctx context.Context, elderIDs []int64, includeInactive bool) ([]*domain.Medication, error) {
	args := m.Called(ctx, elderIDs, includeInactive)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Medication), args.Error(1)
}

func (m *MockMedicationRepository) UpdateMedication(ctx context.Context, medication *domain.Medication) error {
	args := m.Called(ctx, medication)
	return args.Error(0)
}

func (m *MockMedicationRepository) ListMedicationLogs(ctx context.Context, medicationIDs []int64) ([]*domain.MedicationLog, error) {
	args := m.Called(ctx, medicationIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MedicationLog), args.Error(1)
}

func (m *MockMedicationRepository) LogMedication(ctx context.Context, log *domain.MedicationLog, notification *domain.Notification) error {
	args := m.Called(ctx, log, notification)
	return args.Error(0)
}

// MockHealthRecordRepository is a mock implementation of HealthRecordRepository
type MockHealthRecordRepository struct {
	mock.Mock
}

func (m *MockHealthRecordRepository) CreateHealthRecord(ctx context.Context, record *domain.HealthRecord) error {
	args := m.Called(ctx, record)
	return args.Error(0)
}

func (m *MockHealthRecordRepository) ListHealthRecords(ctx context.Context, filter ports.HealthRecordFilter) ([]*domain.HealthRecord, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HealthRecord), args.Error(1)
}

// MockMealRepository is a mock implementation of MealRepository
type MockMealRepository struct {
	mock.Mock
}

func (m *MockMealRepository) CreateMeal(ctx context.Context, meal *domain.Meal) error {
	args := m.Called(ctx, meal)
	return args.Error(0)
}

func (m *MockMealRepository) GetMeal(ctx context.Context, mealID int64) (*domain.Meal, error) {
	args := m.Called(ctx, mealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meal), args.Error(1)
}

func (m *MockMealRepository) ListMeals(ctx context.Context, elderIDs []int64, date *time.Time) ([]*domain.Meal, error) {
	args := m.Called(ctx, elderIDs, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Meal), args.Error(1)
}

func (m *MockMealRepository) ConsumeMeal(ctx context.Context, mealID int64, consumedAt time.Time) error {
	args := m.Called(ctx, mealID, consumedAt)
	return args.Error(0)
}

// MockAppointmentRepository is a mock implementation of AppointmentRepository
type MockAppointmentRepository struct {
	mock.Mock
}

func (m *MockAppointmentRepository) CreateAppointment(ctx context.Context, appointment *domain.Appointment) error {
	args := m.Called(ctx, appointment)
	return args.Error(0)
}

func (m *MockAppointmentRepository) GetAppointment(ctx context.Context, appointmentID int64) (*domain.Appointment, error) {
	args := m.Called(ctx, appointmentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) ListAppointments(ctx context.Context, elderIDs []int64) ([]*domain.Appointment, error) {
	args := m.Called(ctx, elderIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentRepository) UpdateAppointmentStatus(ctx context.Context, appointmentID int64, status domain.AppointmentStatus) error {
	args := m.Called(ctx, appointmentID, status)
	return args.Error(0)
}

// MockNotificationRepository is a mock implementation of NotificationRepository
type MockNotificationRepository struct {
	mock.Mock
}

func (m *MockNotificationRepository) ListNotifications(ctx context.Context, recipientUserID int64, limit int) ([]*domain.Notification, error) {
	args := m.Called(ctx, recipientUserID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) GetNotification(ctx context.Context, notificationID int64) (*domain.Notification, error) {
	args := m.Called(ctx, notificationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Notification), args.Error(1)
}

func (m *MockNotificationRepository) MarkNotificationRead(ctx context.Context, notificationID int64) error {
	args := m.Called(ctx, notificationID)
	return args.Error(0)
}

// MockLocationRepository is a mock implementation of LocationRepository
type MockLocationRepository struct {
	mock.Mock
}

func (m *MockLocationRepository) CreateLocation(ctx context.Context, location *domain.LocationLog) error {
	args := m.Called(ctx, location)
	return args.Error(0)
}

func (m *MockLocationRepository) LatestLocation(ctx context.Context, elderID int64) (*domain.LocationLog, error) {
	args := m.Called(ctx, elderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LocationLog), args.Error(1)
}

// recordingEmitter captures emitted events
type recordingEmitter struct {
	mu     sync.Mutex
	events []emitted
}

type emitted struct {
	recipient int64
	event     domain.Event
}

func (r *recordingEmitter) Emit(_ context.Context, recipientUserID int64, event domain.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emitted{recipient: recipientUserID, event: event})
}

func (r *recordingEmitter) all() []emitted {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]emitted, len(r.events))
	copy(out, r.events)
	return out
}

// stubTokens issues a fixed token
type stubTokens struct{}

func (stubTokens) IssueToken(user *domain.User) (string, error) {
	return "token-for-" + user.Email, nil
}

func int64Ptr(v int64) *int64 { return &v }

// elderA is an elder linked to caretaker user 20
func elderA() domain.ElderCaller {
	return domain.ElderCaller{ID: 10, FullName: "Alice", ElderID: 1, CaretakerID: int64Ptr(20)}
}

// lonelyElder has no caretaker
func lonelyElder() domain.ElderCaller {
	return domain.ElderCaller{ID: 11, FullName: "Bert", ElderID: 2}
}

// caretakerB is linked to elder profile 1 only
func caretakerB() domain.CaretakerCaller {
	return domain.CaretakerCaller{ID: 20, FullName: "Beth", ElderIDs: []int64{1}}
}
