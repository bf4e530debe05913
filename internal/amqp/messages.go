package amqp

import (
	"encoding/json"
	"time"

	"contas/internal/core"
)

// DueReminderMessage carries everything the notifier needs, so the consumer
// never reads the bill store.
type DueReminderMessage struct {
	Reminder  core.DueReminder `json:"reminder"`
	Timestamp time.Time        `json:"timestamp"`
}

func NewDueReminderMessage(r core.DueReminder) *DueReminderMessage {
	return &DueReminderMessage{
		Reminder:  r,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *DueReminderMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// DueReminderMessageFromJSON creates a message from JSON bytes
func DueReminderMessageFromJSON(data []byte) (*DueReminderMessage, error) {
	var msg DueReminderMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
