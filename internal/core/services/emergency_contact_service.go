package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
)

// EmergencyContactService manages an elder's emergency contacts
type EmergencyContactService struct {
	contactRepo ports.EmergencyContactRepository
}

// NewEmergencyContactService creates a new emergency contact service
func NewEmergencyContactService(contactRepo ports.EmergencyContactRepository) *EmergencyContactService {
	return &EmergencyContactService{contactRepo: contactRepo}
}

func (s *EmergencyContactService) ListEmergencyContacts(ctx context.Context, caller domain.Caller, elderID *int64) ([]*domain.EmergencyContact, error) {
	elderIDs, err := domain.ReadScope(caller, elderID)
	if err != nil {
		return nil, err
	}
	if len(elderIDs) == 0 {
		return []*domain.EmergencyContact{}, nil
	}
	contacts, err := s.contactRepo.ListEmergencyContacts(ctx, elderIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list emergency contacts: %w", err)
	}
	return contacts, nil
}

func (s *EmergencyContactService) CreateEmergencyContact(ctx context.Context, caller domain.Caller, req ports.CreateEmergencyContactRequest) (*domain.EmergencyContact, error) {
	if strings.TrimSpace(req.Name) == "" || strings.TrimSpace(req.Phone) == "" {
		return nil, fmt.Errorf("%w: name and phone are required", domain.ErrValidation)
	}
	elderID, err := domain.TargetElder(caller, req.ElderID)
	if err != nil {
		return nil, err
	}

	contact := &domain.EmergencyContact{
		ElderID:      elderID,
		Name:         strings.TrimSpace(req.Name),
		Relationship: req.Relationship,
		Phone:        strings.TrimSpace(req.Phone),
		Email:        req.Email,
		IsPrimary:    req.IsPrimary,
	}
	if err := s.contactRepo.CreateEmergencyContact(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create emergency contact: %w", err)
	}
	return contact, nil
}
