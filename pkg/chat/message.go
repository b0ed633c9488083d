package chat

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Sender identifies who wrote a Message
type Sender string

const (
	// UserSender marks messages typed by the person chatting
	UserSender Sender = "user"
	// BotSender marks messages produced by the assistant
	BotSender Sender = "bot"
)

// Message is a single message exchanged in a Chat
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text"`
	Sender    Sender    `json:"sender"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage creates a Message with a time-ordered ID
func NewMessage(sender Sender, text string, timestamp time.Time) Message {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return Message{
		ID:        id.String(),
		Text:      text,
		Sender:    sender,
		Timestamp: timestamp.UTC(),
	}
}

// IsBlank reports whether text has no content once surrounding whitespace is removed
func IsBlank(text string) bool {
	return strings.TrimSpace(text) == ""
}

// Envelope carries a Message between a delivery channel and the assistant
type Envelope struct {
	ID      string  `json:"id"`      // Provider message ID, e.g. the Twilio SID
	Contact string  `json:"contact"` // The person chatting
	Channel string  `json:"channel"` // The assistant's address on the channel
	Message Message `json:"message"`
}
