package services

import (
	"context"
	"fmt"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
	"github.com/IANDYI/eldercare-service/internal/core/ports"
	"go.uber.org/zap"
)

// Notifier decides who hears about a mutation and pushes the event.
// The only recipient is the elder's linked caretaker. Elders never receive
// events and an actor never receives its own event.
type Notifier struct {
	userRepo ports.UserRepository
	emitter  ports.EventEmitter
	logger   *zap.Logger
}

// NewNotifier creates a new notifier. A nil emitter disables pushes.
func NewNotifier(userRepo ports.UserRepository, emitter ports.EventEmitter, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{userRepo: userRepo, emitter: emitter, logger: logger}
}

// Elder returns the profile of elderID as seen by actor.
// Elder callers are answered from the resolved caller without a lookup.
func (n *Notifier) Elder(ctx context.Context, actor domain.Caller, elderID int64) (*domain.ElderProfile, error) {
	if c, ok := actor.(domain.ElderCaller); ok && c.ElderID == elderID {
		return &domain.ElderProfile{
			ID:          c.ElderID,
			UserID:      c.ID,
			CaretakerID: c.CaretakerID,
			FullName:    c.FullName,
		}, nil
	}
	profile, err := n.userRepo.GetElderProfile(ctx, elderID)
	if err != nil {
		return nil, fmt.Errorf("failed to load elder profile: %w", err)
	}
	return profile, nil
}

// Recipient returns the caretaker user id that should hear about changes to elder
func Recipient(elder *domain.ElderProfile) (int64, bool) {
	if elder == nil || elder.CaretakerID == nil {
		return 0, false
	}
	return *elder.CaretakerID, true
}

// Push emits event to the elder's caretaker after the change is committed.
// Unlinked elders and self-addressed events are silently dropped.
func (n *Notifier) Push(ctx context.Context, actor domain.Caller, elder *domain.ElderProfile, event domain.Event) {
	recipient, ok := Recipient(elder)
	if !ok {
		n.logger.Debug("no caretaker linked, event skipped",
			zap.String("event", event.Name), zap.Int64("elder_id", elder.ID))
		return
	}
	if actor != nil && recipient == actor.UserID() {
		return
	}
	n.PushTo(ctx, recipient, event)
}

// PushTo emits event to one user's room
func (n *Notifier) PushTo(ctx context.Context, recipientUserID int64, event domain.Event) {
	if n.emitter == nil {
		return
	}
	n.emitter.Emit(ctx, recipientUserID, event)
	n.logger.Debug("event emitted",
		zap.String("event", event.Name), zap.Int64("recipient_user_id", recipientUserID))
}

// pushForActor resolves the elder profile and pushes the event built from it.
// Lookup failures are logged and never surface to the request.
func (n *Notifier) pushForActor(ctx context.Context, actor domain.Caller, elderID int64, build func(elder *domain.ElderProfile) domain.Event) {
	// caretakers only act on their own elders, so the recipient would be themselves
	if _, ok := actor.(domain.CaretakerCaller); ok {
		return
	}
	elder, err := n.Elder(ctx, actor, elderID)
	if err != nil {
		n.logger.Warn("event skipped, elder lookup failed", zap.Int64("elder_id", elderID), zap.Error(err))
		return
	}
	n.Push(ctx, actor, elder, build(elder))
}
