package amqp

import (
	"encoding/json"
	"fmt"
	"time"
)

// EventKind names what happened to a transaction.
type EventKind string

const (
	EventCreated EventKind = "transaction.created"
	EventUpdated EventKind = "transaction.updated"
)

// Valid reports whether k is a known kind.
func (k EventKind) Valid() bool {
	return k == EventCreated || k == EventUpdated
}

// TransactionEvent announces a written bill row. It carries only the id;
// consumers load the row from the store.
type TransactionEvent struct {
	ID        string    `json:"id"`
	Kind      EventKind `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTransactionEvent stamps an event with the current time.
func NewTransactionEvent(id string, kind EventKind) TransactionEvent {
	return TransactionEvent{
		ID:        id,
		Kind:      kind,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the event to JSON bytes
func (e TransactionEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// TransactionEventFromJSON decodes and checks an event body.
func TransactionEventFromJSON(data []byte) (TransactionEvent, error) {
	var ev TransactionEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return TransactionEvent{}, err
	}
	if ev.ID == "" {
		return TransactionEvent{}, fmt.Errorf("event has no id")
	}
	if !ev.Kind.Valid() {
		return TransactionEvent{}, fmt.Errorf("unknown event kind %q", ev.Kind)
	}
	return ev, nil
}
