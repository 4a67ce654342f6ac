package handler_test

import (
	"context"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"github.com/stretchr/testify/mock"
)

// MockAuthService is a mock implementation of ports.AuthService
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, req ports.SignupRequest) (*ports.AuthResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.AuthResult), args.Error(1)
}

func (m *MockAuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ports.AuthResult), args.Error(1)
}

func (m *MockAuthService) LinkCaretaker(ctx context.Context, caller domain.Caller, caretakerEmail string) (*domain.User, error) {
	args := m.Called(ctx, caller, caretakerEmail)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

// MockMedicationService is a mock implementation of ports.MedicationService
type MockMedicationService struct {
	mock.Mock
}

func (m *MockMedicationService) ListMedications(ctx context.Context, caller domain.Caller, filter ports.MedicationFilter) ([]*domain.Medication, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Medication), args.Error(1)
}

func (m *MockMedicationService) CreateMedication(ctx context.Context, caller domain.Caller, req ports.CreateMedicationRequest) (*domain.Medication, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Medication), args.Error(1)
}

func (m *MockMedicationService) UpdateMedication(ctx context.Context, caller domain.Caller, medicationID int64, req ports.UpdateMedicationRequest) (*domain.Medication, error) {
	args := m.Called(ctx, caller, medicationID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Medication), args.Error(1)
}

func (m *MockMedicationService) DeactivateMedication(ctx context.Context, caller domain.Caller, medicationID int64) error {
	args := m.Called(ctx, caller, medicationID)
	return args.Error(0)
}

func (m *MockMedicationService) LogMedication(ctx context.Context, caller domain.Caller, medicationID int64, req ports.LogMedicationRequest) (*domain.MedicationLog, error) {
	args := m.Called(ctx, caller, medicationID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.MedicationLog), args.Error(1)
}

func (m *MockMedicationService) ListMedicationLogs(ctx context.Context, caller domain.Caller, medicationID int64) ([]*domain.MedicationLog, error) {
	args := m.Called(ctx, caller, medicationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.MedicationLog), args.Error(1)
}

// MockHealthRecordService is a mock implementation of ports.HealthRecordService
type MockHealthRecordService struct {
	mock.Mock
}

func (m *MockHealthRecordService) ListHealthRecords(ctx context.Context, caller domain.Caller, filter ports.HealthRecordQuery) ([]*domain.HealthRecord, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.HealthRecord), args.Error(1)
}

func (m *MockHealthRecordService) CreateHealthRecord(ctx context.Context, caller domain.Caller, req ports.CreateHealthRecordRequest) (*domain.HealthRecord, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.HealthRecord), args.Error(1)
}

// MockMealService is a mock implementation of ports.MealService
type MockMealService struct {
	mock.Mock
}

func (m *MockMealService) ListMeals(ctx context.Context, caller domain.Caller, filter ports.MealQuery) ([]*domain.Meal, error) {
	args := m.Called(ctx, caller, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Meal), args.Error(1)
}

func (m *MockMealService) CreateMeal(ctx context.Context, caller domain.Caller, req ports.CreateMealRequest) (*domain.Meal, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meal), args.Error(1)
}

func (m *MockMealService) ConsumeMeal(ctx context.Context, caller domain.Caller, mealID int64) (*domain.Meal, error) {
	args := m.Called(ctx, caller, mealID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Meal), args.Error(1)
}

// MockAppointmentService is a mock implementation of ports.AppointmentService
type MockAppointmentService struct {
	mock.Mock
}

func (m *MockAppointmentService) ListAppointments(ctx context.Context, caller domain.Caller, elderID *int64) ([]*domain.Appointment, error) {
	args := m.Called(ctx, caller, elderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentService) CreateAppointment(ctx context.Context, caller domain.Caller, req ports.CreateAppointmentRequest) (*domain.Appointment, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

func (m *MockAppointmentService) UpdateAppointmentStatus(ctx context.Context, caller domain.Caller, appointmentID int64, status string) (*domain.Appointment, error) {
	args := m.Called(ctx, caller, appointmentID, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Appointment), args.Error(1)
}

// MockEmergencyContactService is a mock implementation of ports.EmergencyContactService
type MockEmergencyContactService struct {
	mock.Mock
}

func (m *MockEmergencyContactService) ListEmergencyContacts(ctx context.Context, caller domain.Caller, elderID *int64) ([]*domain.EmergencyContact, error) {
	args := m.Called(ctx, caller, elderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.EmergencyContact), args.Error(1)
}

func (m *MockEmergencyContactService) CreateEmergencyContact(ctx context.Context, caller domain.Caller, req ports.CreateEmergencyContactRequest) (*domain.EmergencyContact, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.EmergencyContact), args.Error(1)
}

// MockNotificationService is a mock implementation of ports.NotificationService
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) ListNotifications(ctx context.Context, caller domain.Caller) ([]*domain.Notification, error) {
	args := m.Called(ctx, caller)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkNotificationRead(ctx context.Context, caller domain.Caller, notificationID int64) error {
	args := m.Called(ctx, caller, notificationID)
	return args.Error(0)
}

// MockLocationService is a mock implementation of ports.LocationService
type MockLocationService struct {
	mock.Mock
}

func (m *MockLocationService) UpdateLocation(ctx context.Context, caller domain.Caller, req ports.UpdateLocationRequest) (*domain.LocationLog, error) {
	args := m.Called(ctx, caller, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LocationLog), args.Error(1)
}

func (m *MockLocationService) GetLatestLocation(ctx context.Context, caller domain.Caller, elderID int64) (*domain.LocationLog, error) {
	args := m.Called(ctx, caller, elderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.LocationLog), args.Error(1)
}

// MockAssistantService is a mock implementation of ports.AssistantService
type MockAssistantService struct {
	mock.Mock
}

func (m *MockAssistantService) Chat(ctx context.Context, sessionID string, message string) (string, error) {
	args := m.Called(ctx, sessionID, message)
	return args.String(0), args.Error(1)
}

func (m *MockAssistantService) Transcribe(ctx context.Context, audio []byte) (string, error) {
	args := m.Called(ctx, audio)
	return args.String(0), args.Error(1)
}

func (m *MockAssistantService) Speak(ctx context.Context, text string) ([]byte, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
