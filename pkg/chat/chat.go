package chat

import "time"

// Error describes a failure surfaced to the person chatting
type Error struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationState is the read model rendered by the chat widget
type ConversationState struct {
	IsOpen   bool      `json:"isOpen"`
	Messages []Message `json:"messages"`
	Loading  bool      `json:"loading"`
	Error    *Error    `json:"error,omitempty"`
}

// Append adds a message to the end of the log. Timestamps are clamped so they never
// decrease in log order.
func (s *ConversationState) Append(message Message) Message {
	if n := len(s.Messages); n > 0 {
		last := s.Messages[n-1].Timestamp
		if message.Timestamp.Before(last) {
			message.Timestamp = last
		}
	}
	s.Messages = append(s.Messages, message)
	return message
}

// Copy returns a snapshot that shares no memory with s
func (s *ConversationState) Copy() ConversationState {
	snapshot := ConversationState{
		IsOpen:   s.IsOpen,
		Messages: make([]Message, len(s.Messages)),
		Loading:  s.Loading,
	}
	copy(snapshot.Messages, s.Messages)
	if s.Error != nil {
		errCopy := *s.Error
		snapshot.Error = &errCopy
	}
	return snapshot
}

// Chat is the main struct for managing conversations
type Chat struct {
	ContactID string            `json:"id"`
	Active    bool              `json:"active"`
	Category  string            `json:"category"`
	Language  string            `json:"language"`
	State     ConversationState `json:"state"`
}
