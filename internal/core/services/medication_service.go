package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"go.uber.org/zap"
)

// MedicationService implements medication CRUD, dose logging and status projection
type MedicationService struct {
	medRepo  ports.MedicationRepository
	notifier *Notifier
	logger   *zap.Logger
}

// NewMedicationService creates a new medication service
func NewMedicationService(medRepo ports.MedicationRepository, notifier *Notifier, logger *zap.Logger) *MedicationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MedicationService{medRepo: medRepo, notifier: notifier, logger: logger}
}

// ListMedications returns the medications in the caller's scope with their
// derived status. Inactive ones are hidden unless asked for.
func (s *MedicationService) ListMedications(ctx context.Context, caller domain.Caller, filter ports.MedicationFilter) ([]*domain.Medication, error) {
	elderIDs, err := domain.ReadScope(caller, filter.ElderID)
	if err != nil {
		return nil, err
	}
	if len(elderIDs) == 0 {
		return []*domain.Medication{}, nil
	}

	meds, err := s.medRepo.ListMedications(ctx, elderIDs, filter.IncludeInactive)
	if err != nil {
		return nil, fmt.Errorf("failed to list medications: %w", err)
	}
	if err := s.project(ctx, meds...); err != nil {
		return nil, err
	}
	return meds, nil
}

// project fills the derived status of meds from one batched log query
func (s *MedicationService) project(ctx context.Context, meds ...*domain.Medication) error {
	if len(meds) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(meds))
	for _, m := range meds {
		ids = append(ids, m.ID)
	}
	logs, err := s.medRepo.ListMedicationLogs(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to load medication logs: %w", err)
	}
	byMed := make(map[int64][]*domain.MedicationLog, len(meds))
	for _, l := range logs {
		byMed[l.MedicationID] = append(byMed[l.MedicationID], l)
	}
	for _, m := range meds {
		m.ApplyProjection(byMed[m.ID])
	}
	return nil
}

// CreateMedication adds a medication to the target elder
func (s *MedicationService) CreateMedication(ctx context.Context, caller domain.Caller, req ports.CreateMedicationRequest) (*domain.Medication, error) {
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	elderID, err := domain.TargetElder(caller, req.ElderID)
	if err != nil {
		return nil, err
	}

	med := &domain.Medication{
		ElderID:      elderID,
		Name:         strings.TrimSpace(req.Name),
		Dosage:       req.Dosage,
		Frequency:    req.Frequency,
		Time:         req.Time,
		Instructions: req.Instructions,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}
	if med.StartDate, err = optionalDate(req.StartDate); err != nil {
		return nil, err
	}
	if med.EndDate, err = optionalDate(req.EndDate); err != nil {
		return nil, err
	}
	if med.StartDate != nil && med.EndDate != nil && med.EndDate.Before(med.StartDate.Time) {
		return nil, fmt.Errorf("%w: end_date is before start_date", domain.ErrValidation)
	}

	if err := s.medRepo.CreateMedication(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to create medication: %w", err)
	}
	med.ApplyProjection(nil)

	s.notifier.pushForActor(ctx, caller, elderID, func(_ *domain.ElderProfile) domain.Event {
		return domain.Event{
			Name: domain.EventMedicationAdded,
			Data: domain.MedicationAddedPayload{MedicationID: med.ID, ElderID: elderID, Name: med.Name},
		}
	})
	return med, nil
}

// loadScoped fetches a medication and hides it when it is outside the caller's scope
func (s *MedicationService) loadScoped(ctx context.Context, caller domain.Caller, medicationID int64) (*domain.Medication, error) {
	med, err := s.medRepo.GetMedication(ctx, medicationID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: medication not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get medication: %w", err)
	}
	if err := domain.CheckScope(caller, med.ElderID, "medication"); err != nil {
		return nil, err
	}
	return med, nil
}

// UpdateMedication applies the provided fields only
func (s *MedicationService) UpdateMedication(ctx context.Context, caller domain.Caller, medicationID int64, req ports.UpdateMedicationRequest) (*domain.Medication, error) {
	med, err := s.loadScoped(ctx, caller, medicationID)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		if strings.TrimSpace(*req.Name) == "" {
			return nil, fmt.Errorf("%w: name cannot be empty", domain.ErrValidation)
		}
		med.Name = strings.TrimSpace(*req.Name)
	}
	if req.Dosage != nil {
		med.Dosage = *req.Dosage
	}
	if req.Frequency != nil {
		med.Frequency = *req.Frequency
	}
	if req.Time != nil {
		med.Time = *req.Time
	}
	if req.Instructions != nil {
		med.Instructions = *req.Instructions
	}
	if req.IsActive != nil {
		med.IsActive = *req.IsActive
	}

	if err := s.medRepo.UpdateMedication(ctx, med); err != nil {
		return nil, fmt.Errorf("failed to update medication: %w", err)
	}
	if err := s.project(ctx, med); err != nil {
		return nil, err
	}
	return med, nil
}

// DeactivateMedication marks a medication inactive. Logs are left untouched.
func (s *MedicationService) DeactivateMedication(ctx context.Context, caller domain.Caller, medicationID int64) error {
	med, err := s.loadScoped(ctx, caller, medicationID)
	if err != nil {
		return err
	}
	if !med.IsActive {
		return nil
	}
	med.IsActive = false
	if err := s.medRepo.UpdateMedication(ctx, med); err != nil {
		return fmt.Errorf("failed to deactivate medication: %w", err)
	}
	s.logger.Info("medication deactivated", zap.Int64("medication_id", med.ID), zap.Int64("elder_id", med.ElderID))
	return nil
}

// LogMedication records a dose outcome. When the elder has a caretaker the
// notification row is written in the same transaction and the caretaker is
// pushed a medication_logged event after commit.
func (s *MedicationService) LogMedication(ctx context.Context, caller domain.Caller, medicationID int64, req ports.LogMedicationRequest) (*domain.MedicationLog, error) {
	status := domain.LogStatus(strings.TrimSpace(req.Status))
	if status == "" {
		status = domain.LogStatusTaken
	}
	if !domain.IsValidLogStatus(status) {
		return nil, fmt.Errorf("%w: status must be taken, missed or skipped", domain.ErrValidation)
	}

	med, err := s.loadScoped(ctx, caller, medicationID)
	if err != nil {
		return nil, err
	}
	elder, err := s.notifier.Elder(ctx, caller, med.ElderID)
	if err != nil {
		return nil, err
	}

	entry := &domain.MedicationLog{
		MedicationID: med.ID,
		TakenAt:      time.Now().UTC(),
		Status:       status,
		Notes:        req.Notes,
	}

	var notification *domain.Notification
	if recipient, ok := Recipient(elder); ok {
		elderID := med.ElderID
		notification = &domain.Notification{
			ElderID:          &elderID,
			RecipientUserID:  recipient,
			Title:            domain.LogNotificationTitle(status),
			Message:          domain.LogNotificationMessage(elder.FullName, med.Name, status),
			NotificationType: "medication",
			CreatedAt:        entry.TakenAt,
		}
	}

	if err := s.medRepo.LogMedication(ctx, entry, notification); err != nil {
		return nil, fmt.Errorf("failed to log medication: %w", err)
	}

	s.logger.Info("medication logged",
		zap.Int64("medication_id", med.ID),
		zap.Int64("log_id", entry.ID),
		zap.String("status", string(status)))

	s.notifier.Push(ctx, caller, elder, domain.Event{
		Name: domain.EventMedicationLogged,
		Data: domain.MedicationLoggedPayload{
			MedicationID:   med.ID,
			ElderID:        med.ElderID,
			ElderName:      elder.FullName,
			MedicationName: med.Name,
			Status:         status,
			Time:           entry.TakenAt,
		},
	})
	return entry, nil
}

// ListMedicationLogs returns the full history, also for inactive medications
func (s *MedicationService) ListMedicationLogs(ctx context.Context, caller domain.Caller, medicationID int64) ([]*domain.MedicationLog, error) {
	med, err := s.loadScoped(ctx, caller, medicationID)
	if err != nil {
		return nil, err
	}
	logs, err := s.medRepo.ListMedicationLogs(ctx, []int64{med.ID})
	if err != nil {
		return nil, fmt.Errorf("failed to list medication logs: %w", err)
	}
	return logs, nil
}

func optionalDate(s string) (*domain.Date, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	t, err := domain.ParseDate(s)
	if err != nil {
		return nil, err
	}
	return &domain.Date{Time: t}, nil
}
