package amqp

import (
	"encoding/json"
	"time"
)

// EntrySyncMessage points the worker at an outbox row. It carries only the
// row ID and kind; the worker reads the full entry from SQLite, so a stale
// or replayed message is harmless.
type EntrySyncMessage struct {
	ID        int64     `json:"id"`
	Kind      string    `json:"kind"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(id int64, kind string) *EntrySyncMessage {
	return &EntrySyncMessage{
		ID:        id,
		Kind:      kind,
		Timestamp: time.Now(),
	}
}

func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
