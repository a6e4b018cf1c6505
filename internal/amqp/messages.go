package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventType names what happened to a transaction.
type EventType string

const (
	EventCreated EventType = "created"
	EventPaid    EventType = "paid"
	EventOverdue EventType = "overdue"
)

// TransactionEvent is a lightweight notification about a stored transaction.
// Consumers fetch the full row from the database by ID.
type TransactionEvent struct {
	Type      EventType `json:"type"`
	ID        int64     `json:"id"`
	GroupID   string    `json:"group_id,omitempty"`
	DueDate   string    `json:"due_date"` // YYYY-MM-DD
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent creates an event stamped with the current time.
func NewTransactionEvent(eventType EventType, id int64, groupID, dueDate string) *TransactionEvent {
	return &TransactionEvent{
		Type:      eventType,
		ID:        id,
		GroupID:   groupID,
		DueDate:   dueDate,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// TransactionEventFromJSON decodes an event and rejects unknown types.
func TransactionEventFromJSON(data []byte) (*TransactionEvent, error) {
	var msg TransactionEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	switch msg.Type {
	case EventCreated, EventPaid, EventOverdue:
	default:
		return nil, fmt.Errorf("unknown event type %q", msg.Type)
	}
	return &msg, nil
}
