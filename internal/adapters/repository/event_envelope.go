package repository

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/IANDYI/eldercare-service/internal/core/domain"
)

// EventEnvelope is the broker message carrying one real-time event to every replica
type EventEnvelope struct {
	RecipientUserID int64           `json:"recipient_user_id"`
	Event           string          `json:"event"`
	Data            json.RawMessage `json:"data"`
	PublishedAt     time.Time       `json:"published_at"`
}

func encodeEnvelope(recipientUserID int64, event domain.Event) ([]byte, error) {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event data: %w", err)
	}
	return json.Marshal(EventEnvelope{
		RecipientUserID: recipientUserID,
		Event:           event.Name,
		Data:            data,
		PublishedAt:     time.Now().UTC(),
	})
}

// decodeEnvelope returns the recipient and the event. The payload stays raw
// so it reaches the websocket client exactly as it was published.
func decodeEnvelope(body []byte) (int64, domain.Event, error) {
	var env EventEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return 0, domain.Event{}, fmt.Errorf("failed to unmarshal event envelope: %w", err)
	}
	if env.RecipientUserID <= 0 {
		return 0, domain.Event{}, errors.New("event envelope has no recipient")
	}
	if env.Event == "" {
		return 0, domain.Event{}, errors.New("event envelope has no event name")
	}
	if len(env.Data) == 0 {
		env.Data = json.RawMessage("null")
	}
	return env.RecipientUserID, domain.Event{Name: env.Event, Data: env.Data}, nil
}
