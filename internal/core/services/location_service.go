package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
)

// LocationService records the elder's position and serves the latest one
type LocationService struct {
	locationRepo ports.LocationRepository
	notifier     *Notifier
}

// NewLocationService creates a new location service
func NewLocationService(locationRepo ports.LocationRepository, notifier *Notifier) *LocationService {
	return &LocationService{locationRepo: locationRepo, notifier: notifier}
}

// UpdateLocation appends a position for the calling elder and pushes location_updated
func (s *LocationService) UpdateLocation(ctx context.Context, caller domain.Caller, req ports.UpdateLocationRequest) (*domain.LocationLog, error) {
	elder, ok := caller.(domain.ElderCaller)
	if !ok {
		return nil, fmt.Errorf("%w: only elders can update location", domain.ErrInvalidRole)
	}
	if req.Latitude == nil || req.Longitude == nil {
		return nil, fmt.Errorf("%w: latitude and longitude are required", domain.ErrValidation)
	}
	if math.Abs(*req.Latitude) > 90 || math.Abs(*req.Longitude) > 180 {
		return nil, fmt.Errorf("%w: coordinates out of range", domain.ErrValidation)
	}

	loc := &domain.LocationLog{
		ElderID:    elder.ElderID,
		Latitude:   *req.Latitude,
		Longitude:  *req.Longitude,
		Accuracy:   req.Accuracy,
		RecordedAt: time.Now().UTC(),
	}
	if err := s.locationRepo.CreateLocation(ctx, loc); err != nil {
		return nil, fmt.Errorf("failed to record location: %w", err)
	}

	s.notifier.pushForActor(ctx, caller, elder.ElderID, func(profile *domain.ElderProfile) domain.Event {
		return domain.Event{
			Name: domain.EventLocationUpdated,
			Data: domain.LocationUpdatedPayload{
				ElderID:   elder.ElderID,
				ElderName: profile.FullName,
				Latitude:  loc.Latitude,
				Longitude: loc.Longitude,
				Accuracy:  loc.Accuracy,
				Timestamp: loc.RecordedAt,
			},
		}
	})
	return loc, nil
}

// GetLatestLocation returns the most recent position of an elder in scope
func (s *LocationService) GetLatestLocation(ctx context.Context, caller domain.Caller, elderID int64) (*domain.LocationLog, error) {
	if err := domain.CheckScope(caller, elderID, "elder"); err != nil {
		return nil, err
	}
	loc, err := s.locationRepo.LatestLocation(ctx, elderID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: no location data found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get location: %w", err)
	}
	return loc, nil
}
