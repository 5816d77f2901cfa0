package amqp

import (
	"encoding/json"
	"errors"
	"time"
)

// SelectionChangedMessage is published after a session accepts a new category.
type SelectionChangedMessage struct {
	SessionID string    `json:"session_id"`
	Category  string    `json:"category"`
	Timestamp time.Time `json:"timestamp"`
}

// NewSelectionChangedMessage stamps the message with the current UTC time.
func NewSelectionChangedMessage(sessionID, category string) *SelectionChangedMessage {
	return &SelectionChangedMessage{
		SessionID: sessionID,
		Category:  category,
		Timestamp: time.Now().UTC(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *SelectionChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// SelectionChangedMessageFromJSON decodes and validates a message body.
func SelectionChangedMessageFromJSON(data []byte) (*SelectionChangedMessage, error) {
	var msg SelectionChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.SessionID == "" || msg.Category == "" {
		return nil, errors.New("selection message requires session_id and category")
	}
	return &msg, nil
}
