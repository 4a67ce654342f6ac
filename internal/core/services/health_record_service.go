package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
)

// DefaultHealthRecordDays is the lookback window when the query omits days
const DefaultHealthRecordDays = 30

// HealthRecordService implements vital reading storage and lookup
type HealthRecordService struct {
	recordRepo ports.HealthRecordRepository
	notifier   *Notifier
	now        func() time.Time
}

// NewHealthRecordService creates a new health record service
func NewHealthRecordService(recordRepo ports.HealthRecordRepository, notifier *Notifier) *HealthRecordService {
	return &HealthRecordService{recordRepo: recordRepo, notifier: notifier, now: time.Now}
}

// ListHealthRecords returns readings within the lookback window, newest first
func (s *HealthRecordService) ListHealthRecords(ctx context.Context, caller domain.Caller, query ports.HealthRecordQuery) ([]*domain.HealthRecord, error) {
	elderIDs, err := domain.ReadScope(caller, query.ElderID)
	if err != nil {
		return nil, err
	}
	if len(elderIDs) == 0 {
		return []*domain.HealthRecord{}, nil
	}
	days := query.Days
	if days < 0 {
		return nil, fmt.Errorf("%w: days must not be negative", domain.ErrValidation)
	}
	if days == 0 {
		days = DefaultHealthRecordDays
	}

	records, err := s.recordRepo.ListHealthRecords(ctx, ports.HealthRecordFilter{
		ElderIDs:   elderIDs,
		RecordType: strings.TrimSpace(query.RecordType),
		Since:      s.now().UTC().AddDate(0, 0, -days),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list health records: %w", err)
	}
	return records, nil
}

// CreateHealthRecord stores a reading and pushes health_record_added
func (s *HealthRecordService) CreateHealthRecord(ctx context.Context, caller domain.Caller, req ports.CreateHealthRecordRequest) (*domain.HealthRecord, error) {
	if strings.TrimSpace(req.Type) == "" || strings.TrimSpace(req.Value) == "" {
		return nil, fmt.Errorf("%w: type and value are required", domain.ErrValidation)
	}
	elderID, err := domain.TargetElder(caller, req.ElderID)
	if err != nil {
		return nil, err
	}

	record := &domain.HealthRecord{
		ElderID:    elderID,
		RecordType: strings.TrimSpace(req.Type),
		Value:      strings.TrimSpace(req.Value),
		Unit:       req.Unit,
		Notes:      req.Notes,
		RecordedAt: s.now().UTC(),
	}
	if err := s.recordRepo.CreateHealthRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("failed to create health record: %w", err)
	}

	s.notifier.pushForActor(ctx, caller, elderID, func(elder *domain.ElderProfile) domain.Event {
		return domain.Event{
			Name: domain.EventHealthRecordAdded,
			Data: domain.HealthRecordAddedPayload{
				ElderID:   elderID,
				ElderName: elder.FullName,
				Type:      record.RecordType,
				Value:     record.Value,
				Unit:      record.Unit,
			},
		}
	})
	return record, nil
}
