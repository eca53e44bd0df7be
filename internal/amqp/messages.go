package amqp

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type EventType string

const (
	SubscriptionCreated EventType = "subscription.created"
	SubscriptionUpdated EventType = "subscription.updated"
	SubscriptionDeleted EventType = "subscription.deleted"
)

func (t EventType) IsValid() bool {
	switch t {
	case SubscriptionCreated, SubscriptionUpdated, SubscriptionDeleted:
		return true
	default:
		return false
	}
}

// SubscriptionEvent carries ids only; consumers read current state from the store.
type SubscriptionEvent struct {
	ID             string    `json:"id"`
	Type           EventType `json:"type"`
	SubscriptionID int64     `json:"subscription_id"`
	OwnerID        int64     `json:"owner_id"`
	Timestamp      time.Time `json:"timestamp"`
}

func NewSubscriptionEvent(t EventType, subscriptionID, ownerID int64) *SubscriptionEvent {
	return &SubscriptionEvent{
		ID:             uuid.NewString(),
		Type:           t,
		SubscriptionID: subscriptionID,
		OwnerID:        ownerID,
		Timestamp:      time.Now().UTC(),
	}
}

func (e *SubscriptionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

func SubscriptionEventFromJSON(data []byte) (*SubscriptionEvent, error) {
	var e SubscriptionEvent
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, err
	}
	if !e.Type.IsValid() {
		return nil, fmt.Errorf("unknown event type %q", e.Type)
	}
	if e.SubscriptionID <= 0 {
		return nil, fmt.Errorf("event %s has no subscription id", e.ID)
	}
	return &e, nil
}
