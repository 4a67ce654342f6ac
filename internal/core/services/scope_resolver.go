package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
)

// ScopeResolver builds the Caller for an authenticated user id.
// Runs once per request, right after the token is verified.
type ScopeResolver struct {
	userRepo ports.UserRepository
}

// NewScopeResolver creates a new scope resolver
func NewScopeResolver(userRepo ports.UserRepository) *ScopeResolver {
	return &ScopeResolver{userRepo: userRepo}
}

// ResolveCaller loads the user and its role profile.
// A missing user or a missing profile for the declared role is NotFound.
func (r *ScopeResolver) ResolveCaller(ctx context.Context, userID int64) (domain.Caller, error) {
	user, err := r.userRepo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: user not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	switch user.UserType {
	case domain.RoleElder:
		profile, err := r.userRepo.GetElderProfileByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: elder profile not found", domain.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to load elder profile: %w", err)
		}
		return domain.ElderCaller{
			ID:          user.ID,
			FullName:    user.FullName,
			ElderID:     profile.ID,
			CaretakerID: profile.CaretakerID,
		}, nil

	case domain.RoleCaretaker:
		if _, err := r.userRepo.GetCaretakerProfileByUserID(ctx, user.ID); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, fmt.Errorf("%w: caretaker profile not found", domain.ErrNotFound)
			}
			return nil, fmt.Errorf("failed to load caretaker profile: %w", err)
		}
		elders, err := r.userRepo.ListElderProfilesByCaretaker(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list linked elders: %w", err)
		}
		ids := make([]int64, 0, len(elders))
		for _, e := range elders {
			ids = append(ids, e.ID)
		}
		return domain.CaretakerCaller{
			ID:       user.ID,
			FullName: user.FullName,
			ElderIDs: ids,
		}, nil
	}

	return nil, fmt.Errorf("%w: unknown user type %q", domain.ErrInvalidRole, user.UserType)
}
