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

// MealService implements meal planning and consumption tracking
type MealService struct {
	mealRepo ports.MealRepository
	notifier *Notifier
}

// NewMealService creates a new meal service
func NewMealService(mealRepo ports.MealRepository, notifier *Notifier) *MealService {
	return &MealService{mealRepo: mealRepo, notifier: notifier}
}

// ListMeals returns meals in scope, optionally those created on one day
func (s *MealService) ListMeals(ctx context.Context, caller domain.Caller, query ports.MealQuery) ([]*domain.Meal, error) {
	elderIDs, err := domain.ReadScope(caller, query.ElderID)
	if err != nil {
		return nil, err
	}
	var day *time.Time
	if strings.TrimSpace(query.Date) != "" {
		d, err := domain.ParseDate(query.Date)
		if err != nil {
			return nil, err
		}
		day = &d
	}
	if len(elderIDs) == 0 {
		return []*domain.Meal{}, nil
	}

	meals, err := s.mealRepo.ListMeals(ctx, elderIDs, day)
	if err != nil {
		return nil, fmt.Errorf("failed to list meals: %w", err)
	}
	return meals, nil
}

// CreateMeal plans a meal for the target elder
func (s *MealService) CreateMeal(ctx context.Context, caller domain.Caller, req ports.CreateMealRequest) (*domain.Meal, error) {
	if strings.TrimSpace(req.MealType) == "" && strings.TrimSpace(req.MealName) == "" {
		return nil, fmt.Errorf("%w: meal_type or meal_name is required", domain.ErrValidation)
	}
	elderID, err := domain.TargetElder(caller, req.ElderID)
	if err != nil {
		return nil, err
	}

	meal := &domain.Meal{
		ElderID:   elderID,
		MealType:  strings.TrimSpace(req.MealType),
		MealName:  strings.TrimSpace(req.MealName),
		Calories:  req.Calories,
		Protein:   req.Protein,
		Carbs:     req.Carbs,
		Fats:      req.Fats,
		Notes:     req.Notes,
		CreatedAt: time.Now().UTC(),
	}
	if strings.TrimSpace(req.ScheduledTime) != "" {
		t, err := domain.ParseTimestamp(req.ScheduledTime)
		if err != nil {
			return nil, err
		}
		meal.ScheduledTime = &t
	}

	if err := s.mealRepo.CreateMeal(ctx, meal); err != nil {
		return nil, fmt.Errorf("failed to create meal: %w", err)
	}
	return meal, nil
}

// ConsumeMeal marks a meal consumed and pushes meal_consumed
func (s *MealService) ConsumeMeal(ctx context.Context, caller domain.Caller, mealID int64) (*domain.Meal, error) {
	meal, err := s.mealRepo.GetMeal(ctx, mealID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, fmt.Errorf("%w: meal not found", domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get meal: %w", err)
	}
	if err := domain.CheckScope(caller, meal.ElderID, "meal"); err != nil {
		return nil, err
	}

	consumedAt := time.Now().UTC()
	if err := s.mealRepo.ConsumeMeal(ctx, meal.ID, consumedAt); err != nil {
		return nil, fmt.Errorf("failed to consume meal: %w", err)
	}
	meal.Consumed = true
	meal.ConsumedAt = &consumedAt

	s.notifier.pushForActor(ctx, caller, meal.ElderID, func(elder *domain.ElderProfile) domain.Event {
		return domain.Event{
			Name: domain.EventMealConsumed,
			Data: domain.MealConsumedPayload{
				MealID:    meal.ID,
				ElderID:   meal.ElderID,
				ElderName: elder.FullName,
				MealType:  meal.MealType,
				MealName:  meal.MealName,
			},
		}
	})
	return meal, nil
}
