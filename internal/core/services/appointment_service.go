package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
)

// AppointmentService implements appointment scheduling
type AppointmentService struct {
	apptRepo ports.AppointmentRepository
	notifier *Notifier
}

// NewAppointmentService creates a new appointment service
func NewAppointmentService(apptRepo ports.AppointmentRepository, notifier *Notifier) *AppointmentService {
	return &AppointmentService{apptRepo: apptRepo, notifier: notifier}
}

// ListAppointments returns appointments in scope ordered by date
func (s *AppointmentService) ListAppointments(ctx context.Context, caller domain.Caller, elderID *int64) ([]*domain.Appointment, error) {
	elderIDs, err := domain.ReadScope(caller, elderID)
	if err != nil {
		return nil, err
	}
	if len(elderIDs) == 0 {
		return []*domain.Appointment{}, nil
	}
	appts, err := s.apptRepo.ListAppointments(ctx, elderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appts, nil
}

// CreateAppointment schedules an appointment and pushes appointment_added
func (s *AppointmentService) CreateAppointment(ctx context.Context, caller domain.Caller, req ports.CreateAppointmentRequest) (*domain.Appointment, error) {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.AppointmentDate) == "" {
		return nil, fmt.Errorf("%w: title and appointment_date are required", domain.ErrValidation)
	}
	date, err := domain.ParseTimestamp(req.AppointmentDate)
	if err != nil {
		return nil, err
	}
	duration := domain.DefaultAppointmentDuration
	if req.DurationMinutes != nil {
		if *req.DurationMinutes <= 0 {
			return nil, fmt.Errorf("%w: duration_minutes must be positive", domain.ErrValidation)
		}
		duration = *req.DurationMinutes
	}
	elderID, err := domain.TargetElder(caller, req.ElderID)
	if err != nil {
		return nil, err
	}

	appt := &domain.Appointment{
		ElderID:         elderID,
		Title:           strings.TrimSpace(req.Title),
		DoctorName:      req.DoctorName,
		Location:        req.Location,
		AppointmentDate: date,
		DurationMinutes: duration,
		Status:          domain.AppointmentScheduled,
		Notes:           req.Notes,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.apptRepo.CreateAppointment(ctx, appt); err != nil {
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.notifier.pushForActor(ctx, caller, elderID, func(_ *domain.ElderProfile) domain.Event {
		return domain.Event{
			Name: domain.EventAppointmentAdded,
			Data: domain.AppointmentAddedPayload{
				AppointmentID: appt.ID,
				ElderID:       elderID,
				Title:         appt.Title,
				Date:          appt.AppointmentDate,
			},
		}
	})
	return appt, nil
}

// UpdateAppointmentStatus moves an appointment to scheduled, completed or cancelled
func (s *AppointmentService) UpdateAppointmentStatus(ctx context.Context, caller domain.Caller, appointmentID int64, status string) (*domain.Appointment, error) {
	next := domain.AppointmentStatus(strings.TrimSpace(status))
	if !domain.IsValidAppointmentStatus(next) {
		return nil, fmt.Errorf("%w: status must be scheduled, completed or cancelled", domain.ErrValidation)
	}

	appt, err := s.apptRepo.GetAppointment(ctx, appointmentID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: appointment not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	if err := domain.CheckScope(caller, appt.ElderID, "appointment"); err != nil {
		return nil, err
	}

	if err := s.apptRepo.UpdateAppointmentStatus(ctx, appt.ID, next); err != nil {
		return nil, fmt.Errorf("failed to update appointment: %w", err)
	}
	appt.Status = next
	return appt, nil
}
