package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"

	"github.com/City-Bureau/careerchat/pkg/chat"
)

const category = "assistant"

var (
	// ErrResponsePending is returned when a message arrives or a reset is requested
	// while the previous message is still being answered
	ErrResponsePending = errors.New("a response is still pending")
	// ErrNoPendingMessage is returned when asked to respond with nothing submitted
	ErrNoPendingMessage = errors.New("no message is waiting for a response")
)

// Typed on channels without a clear button, e.g. SMS
var resetCommands = []string{"restart", "clear"}

// AssistantChat manages one conversation with the assistant
type AssistantChat struct {
	chat.Chat
	Pending string `json:"pending,omitempty"`

	Responder Responder        `json:"-"`
	Logger    *zap.Logger      `json:"-"`
	Now       func() time.Time `json:"-"`

	mu           sync.Mutex
	localizer    *i18n.Localizer
	conversation *chat.Conversation
}

// NewAssistantChat is a constructor for AssistantChat structs
func NewAssistantChat(id string) *AssistantChat {
	return &AssistantChat{
		Chat: chat.Chat{
			ContactID: id,
			Active:    true,
			Category:  category,
			Language:  "en",
			State:     chat.ConversationState{Messages: []chat.Message{}},
		},
	}
}

type assistantChatJSON struct {
	chat.Chat
	Pending string `json:"pending,omitempty"`
}

// MarshalJSON serializes the chat while holding its lock
func (c *AssistantChat) MarshalJSON() ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return json.Marshal(assistantChatJSON{Chat: c.Chat, Pending: c.Pending})
}

// UnmarshalJSON restores a chat saved with MarshalJSON
func (c *AssistantChat) UnmarshalJSON(data []byte) error {
	var raw assistantChatJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Chat = raw.Chat
	c.Pending = raw.Pending
	if c.Chat.State.Messages == nil {
		c.Chat.State.Messages = []chat.Message{}
	}
	c.localizer = nil
	return nil
}

// SetLanguage switches the language used for the assistant's own phrases
func (c *AssistantChat) SetLanguage(lang string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Language = lang
	c.localizer = nil
}

// State returns a snapshot of the conversation for rendering
func (c *AssistantChat) State() chat.ConversationState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Chat.State.Copy()
}

// Submit records a message from the person chatting and marks the chat as waiting for
// an answer. Blank text is ignored and reported as not accepted.
func (c *AssistantChat) Submit(text string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if chat.IsBlank(text) {
		return false, nil
	}
	if c.Chat.State.Loading {
		return false, ErrResponsePending
	}
	c.Chat.State.Error = nil
	c.Chat.State.Append(chat.NewMessage(chat.UserSender, text, c.now()))
	c.Chat.State.Loading = true
	c.Pending = text
	return true, nil
}

// ResolveAndRespond answers the pending message and appends the answer. The lock is
// released while the responder runs so readers see the chat loading.
func (c *AssistantChat) ResolveAndRespond(ctx context.Context) (chat.Message, error) {
	c.mu.Lock()
	if !c.Chat.State.Loading {
		c.mu.Unlock()
		return chat.Message{}, ErrNoPendingMessage
	}
	text := c.Pending
	responder := c.responder()
	c.mu.Unlock()

	response, err := responder.Respond(ctx, text)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		c.logger().Warn("responder failed",
			zap.String("contact", c.ContactID),
			zap.Error(err),
		)
		c.Chat.State.Error = &chat.Error{Message: err.Error(), Timestamp: c.now().UTC()}
		response = localize(c.getLocalizer(), "response-error", "Sorry, something went wrong while answering. Please try again.", nil)
	} else if chat.IsBlank(response) {
		response = defaultFallback
	}

	message := c.Chat.State.Append(chat.NewMessage(chat.BotSender, response, c.now()))
	c.Chat.State.Loading = false
	c.Pending = ""
	return message, nil
}

// ToggleOpen flips whether the chat window is shown and returns the new value
func (c *AssistantChat) ToggleOpen() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Chat.State.IsOpen = !c.Chat.State.IsOpen
	return c.Chat.State.IsOpen
}

// Reset clears the message log, leaving the window open or closed as it was
func (c *AssistantChat) Reset() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Chat.State.Loading {
		return ErrResponsePending
	}
	c.Chat.State.Messages = []chat.Message{}
	c.Chat.State.Error = nil
	return nil
}

// HandleMessage runs one exchange for channels that deliver plain text, returning the
// replies to send back. "restart" or "clear" resets the chat instead.
func (c *AssistantChat) HandleMessage(ctx context.Context, text string) ([]chat.Message, error) {
	if isResetCommand(text) {
		if err := c.Reset(); err != nil {
			return nil, err
		}
		c.mu.Lock()
		body := localize(c.getLocalizer(), "chat-cleared", "Your chat has been cleared. Ask me anything to get started again.", nil)
		c.mu.Unlock()
		return []chat.Message{chat.NewMessage(chat.BotSender, body, c.now())}, nil
	}

	accepted, err := c.Submit(text)
	if err != nil || !accepted {
		return nil, err
	}
	reply, err := c.ResolveAndRespond(ctx)
	if err != nil {
		return nil, err
	}
	return []chat.Message{reply}, nil
}

func isResetCommand(text string) bool {
	normalized := Normalize(text)
	for _, command := range resetCommands {
		if normalized == command {
			return true
		}
	}
	return false
}

// Callers must hold c.mu
func (c *AssistantChat) getLocalizer() *i18n.Localizer {
	if c.localizer == nil {
		c.localizer = LoadLocalizer(c.Language)
	}
	return c.localizer
}

// Callers must hold c.mu
func (c *AssistantChat) responder() Responder {
	if c.Responder == nil {
		c.Responder = NewResolver(DefaultKnowledgeBase(), c.getLocalizer()).WithLogger(c.logger())
	}
	return c.Responder
}

func (c *AssistantChat) logger() *zap.Logger {
	if c.Logger == nil {
		return zap.NewNop()
	}
	return c.Logger
}

func (c *AssistantChat) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}
