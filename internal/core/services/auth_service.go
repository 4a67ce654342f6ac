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
	"golang.org/x/crypto/bcrypt"
)

// AuthService implements signup, login and caretaker linkage
type AuthService struct {
	userRepo ports.UserRepository
	tokens   ports.TokenIssuer
	notifier *Notifier
	logger   *zap.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(userRepo ports.UserRepository, tokens ports.TokenIssuer, notifier *Notifier, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{userRepo: userRepo, tokens: tokens, notifier: notifier, logger: logger}
}

// Signup creates a user and its role profile, then issues a token
func (s *AuthService) Signup(ctx context.Context, req ports.SignupRequest) (*ports.AuthResult, error) {
	email := strings.TrimSpace(strings.ToLower(req.Email))
	if email == "" || req.Password == "" || strings.TrimSpace(req.FullName) == "" || req.UserType == "" {
		return nil, fmt.Errorf("%w: email, password, full_name and user_type are required", domain.ErrValidation)
	}
	role := domain.Role(req.UserType)
	if !role.Valid() {
		return nil, fmt.Errorf("%w: user_type must be elder or caretaker", domain.ErrValidation)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &domain.User{
		Email:        email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Phone:        req.Phone,
		UserType:     role,
		CreatedAt:    time.Now().UTC(),
	}
	if err := s.userRepo.CreateUser(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("user signed up", zap.Int64("user_id", user.ID), zap.String("user_type", string(role)))
	return &ports.AuthResult{AccessToken: token, User: user}, nil
}

// Login verifies credentials and returns a token with a profile summary.
// Unknown email and wrong password answer the same error.
func (s *AuthService) Login(ctx context.Context, email, password string) (*ports.AuthResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, fmt.Errorf("%w: email and password are required", domain.ErrValidation)
	}

	user, err := s.userRepo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)) != nil {
		return nil, fmt.Errorf("%w: invalid email or password", domain.ErrUnauthorized)
	}

	profile, err := s.profileSummary(ctx, user)
	if err != nil {
		return nil, err
	}

	token, err := s.tokens.IssueToken(user)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &ports.AuthResult{AccessToken: token, User: user, Profile: profile}, nil
}

// profileSummary returns the role specific part of the login response.
// elder: caretaker_id, emergency_contact. caretaker: elder_count, elders.
func (s *AuthService) profileSummary(ctx context.Context, user *domain.User) (map[string]any, error) {
	switch user.UserType {
	case domain.RoleElder:
		profile, err := s.userRepo.GetElderProfileByUserID(ctx, user.ID)
		if err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				return nil, nil
			}
			return nil, fmt.Errorf("failed to load elder profile: %w", err)
		}
		return map[string]any{
			"caretaker_id":      profile.CaretakerID,
			"emergency_contact": profile.EmergencyContact,
		}, nil

	case domain.RoleCaretaker:
		elders, err := s.userRepo.ListElderProfilesByCaretaker(ctx, user.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to list linked elders: %w", err)
		}
		summaries := make([]map[string]any, 0, len(elders))
		for _, e := range elders {
			summaries = append(summaries, map[string]any{"id": e.ID, "name": e.FullName})
		}
		return map[string]any{
			"elder_count": len(elders),
			"elders":      summaries,
		}, nil
	}
	return nil, nil
}

// LinkCaretaker sets the calling elder's caretaker and tells the caretaker.
// Relinking replaces the previous caretaker.
func (s *AuthService) LinkCaretaker(ctx context.Context, caller domain.Caller, caretakerEmail string) (*domain.User, error) {
	elder, ok := caller.(domain.ElderCaller)
	if !ok {
		return nil, fmt.Errorf("%w: only elders can link a caretaker", domain.ErrInvalidRole)
	}
	caretakerEmail = strings.TrimSpace(strings.ToLower(caretakerEmail))
	if caretakerEmail == "" {
		return nil, fmt.Errorf("%w: caretaker_email is required", domain.ErrValidation)
	}

	caretaker, err := s.userRepo.GetCaretakerByEmail(ctx, caretakerEmail)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: caretaker not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to load caretaker: %w", err)
	}

	if err := s.userRepo.LinkCaretaker(ctx, elder.ElderID, caretaker.ID); err != nil {
		return nil, fmt.Errorf("failed to link caretaker: %w", err)
	}

	s.logger.Info("caretaker linked",
		zap.Int64("elder_id", elder.ElderID), zap.Int64("caretaker_id", caretaker.ID))

	s.notifier.PushTo(ctx, caretaker.ID, domain.Event{
		Name: domain.EventElderLinked,
		Data: domain.ElderLinkedPayload{ElderID: elder.ElderID, ElderName: elder.FullName},
	})

	return caretaker, nil
}
