package amqp

import (
	"encoding/json"
	"time"
)

// Entities a change message can refer to. The worker fetches the full row
// from local storage; the message carries only identity and version.
const (
	EntityTransaction = "transaction"
	EntityHabitLog    = "habit_log"
)

// ChangeMessage asks the sync worker to push one locally stored row to the
// remote document store.
type ChangeMessage struct {
	Entity    string    `json:"entity"`
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Deleted   bool      `json:"deleted,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewChangeMessage(entity string, id, version int64) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		ID:        id,
		Version:   version,
		Timestamp: time.Now(),
	}
}

func NewDeleteMessage(entity string, id int64) *ChangeMessage {
	return &ChangeMessage{
		Entity:    entity,
		ID:        id,
		Deleted:   true,
		Timestamp: time.Now(),
	}
}

func (m *ChangeMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func ChangeMessageFromJSON(data []byte) (*ChangeMessage, error) {
	var m ChangeMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return &m, nil
}
