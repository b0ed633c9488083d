package chat

import (
	"time"

	"github.com/jinzhu/gorm"
	"github.com/jinzhu/gorm/dialects/postgres"
)

// DefaultInactiveAfter is how long a conversation can sit idle before it is closed
const DefaultInactiveAfter = time.Hour * 24 * 7

// Conversation is the struct for managing database access to Chats
type Conversation struct {
	gorm.Model
	Active bool           `gorm:"default:true" json:"active"`
	Data   postgres.Jsonb `json:"data"`
}

// CleanupInactiveConversations marks conversations inactive when they haven't been
// updated within the given window, returning how many were closed
func CleanupInactiveConversations(db *gorm.DB, inactiveAfter time.Duration, now time.Time) (int64, error) {
	if inactiveAfter <= 0 {
		inactiveAfter = DefaultInactiveAfter
	}
	cutoff := now.Add(-inactiveAfter)
	result := db.Model(&Conversation{}).
		Where("active = ? AND updated_at < ?", true, cutoff).
		Update("active", false)
	return result.RowsAffected, result.Error
}
