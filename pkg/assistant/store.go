package assistant

import (
	"encoding/json"
	"fmt"

	"github.com/jinzhu/gorm"
	"github.com/jinzhu/gorm/dialects/postgres"

	"github.com/City-Bureau/careerchat/pkg/chat"
)

// Store loads and saves assistant chats by contact
type Store interface {
	Open(contact string) (*AssistantChat, error)
	Save(c *AssistantChat) error
}

// GormStore keeps assistant chats in the conversations table
type GormStore struct {
	DB *gorm.DB
	// Language new chats start in, English when empty
	Language string
}

// NewGormStore is a constructor for GormStore structs
func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{DB: db}
}

// Open returns the contact's active chat, starting a new one if needed
func (s *GormStore) Open(contact string) (*AssistantChat, error) {
	conversation, created, err := GetOrCreateConversation(contact, s.DB)
	if err != nil {
		return nil, err
	}
	assistantChat, err := LoadAssistantChat(conversation)
	if err != nil {
		return nil, err
	}
	if created && s.Language != "" {
		assistantChat.SetLanguage(s.Language)
	}
	assistantChat.conversation = conversation
	return assistantChat, nil
}

// Save writes the chat back to the row it was opened from
func (s *GormStore) Save(c *AssistantChat) error {
	conversation := c.conversation
	if conversation == nil {
		conversation = &chat.Conversation{}
		c.conversation = conversation
	}
	return UpdateAssistantChatConversation(c, conversation, s.DB)
}

// GetOrCreateConversation returns the active conversation for a contact and whether it
// had to be created
func GetOrCreateConversation(contact string, db *gorm.DB) (*chat.Conversation, bool, error) {
	var conversation chat.Conversation
	err := db.Model(&chat.Conversation{}).Where("data ->> 'id' = ? AND active IS TRUE", contact).Last(&conversation).Error
	if gorm.IsRecordNotFoundError(err) {
		conversation = chat.Conversation{}
		if err := UpdateAssistantChatConversation(NewAssistantChat(contact), &conversation, db); err != nil {
			return nil, false, err
		}
		return &conversation, true, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading conversation: %w", err)
	}
	return &conversation, false, nil
}

// LoadAssistantChat decodes the chat stored in a conversation row
func LoadAssistantChat(conversation *chat.Conversation) (*AssistantChat, error) {
	assistantChat := &AssistantChat{}
	if err := json.Unmarshal(conversation.Data.RawMessage, assistantChat); err != nil {
		return nil, fmt.Errorf("decoding conversation %d: %w", conversation.ID, err)
	}
	return assistantChat, nil
}

// UpdateAssistantChatConversation stores the chat in the conversation row
func UpdateAssistantChatConversation(assistantChat *AssistantChat, conversation *chat.Conversation, db *gorm.DB) error {
	chatJSON, err := json.Marshal(assistantChat)
	if err != nil {
		return err
	}
	conversation.Active = assistantChat.Active
	conversation.Data = postgres.Jsonb{
		RawMessage: json.RawMessage(chatJSON),
	}
	return db.Save(conversation).Error
}
