package assistant

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetOrCreateConversationFindsActive(t *testing.T) {
	db, dbMock, _ := sqlmock.New()
	gormDB, _ := gorm.Open("postgres", db)

	dbMock.ExpectQuery("SELECT (.+) FROM (.+) WHERE (.+) LIMIT 1").
		WithArgs("+1234567890").
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1))
	conversation, created, err := GetOrCreateConversation("+1234567890", gormDB)
	if err != nil {
		t.Fatal(err)
	}
	if created {
		t.Errorf("Created record instead of pulling latest")
	}
	if conversation.ID != 1 {
		t.Errorf("Expected conversation 1, got %d", conversation.ID)
	}
}

func TestGetOrCreateConversationCreates(t *testing.T) {
	db, dbMock, _ := sqlmock.New()
	gormDB, _ := gorm.Open("postgres", db)

	dbMock.ExpectQuery("SELECT (.+) FROM (.+) WHERE (.+) LIMIT 1").
		WithArgs("+1234567890").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	dbMock.ExpectBegin()
	dbMock.ExpectQuery(`INSERT INTO "conversations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(7))
	dbMock.ExpectCommit()

	conversation, created, err := GetOrCreateConversation("+1234567890", gormDB)
	require.NoError(t, err)
	assert.True(t, created)
	assert.Equal(t, uint(7), conversation.ID)

	restored, err := LoadAssistantChat(conversation)
	require.NoError(t, err)
	assert.Equal(t, "+1234567890", restored.ContactID)
	assert.True(t, restored.Active)
	assert.Equal(t, "en", restored.Language)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}

func TestGormStoreOpenRestoresChat(t *testing.T) {
	db, dbMock, _ := sqlmock.New()
	gormDB, _ := gorm.Open("postgres", db)

	saved := newTestChat()
	_, err := saved.HandleMessage(context.Background(), "help")
	require.NoError(t, err)
	data, err := saved.MarshalJSON()
	require.NoError(t, err)

	dbMock.ExpectQuery("SELECT (.+) FROM (.+) WHERE (.+) LIMIT 1").
		WithArgs(saved.ContactID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "active", "data"}).AddRow(3, true, data))

	store := NewGormStore(gormDB)
	opened, err := store.Open(saved.ContactID)
	require.NoError(t, err)
	assert.Len(t, opened.State().Messages, 2)
	assert.Equal(t, "help answer", opened.State().Messages[1].Text)
	require.NotNil(t, opened.conversation)
	assert.Equal(t, uint(3), opened.conversation.ID)
}

func TestGormStoreOpenStartsNewChatInStoreLanguage(t *testing.T) {
	db, dbMock, _ := sqlmock.New()
	gormDB, _ := gorm.Open("postgres", db)

	dbMock.ExpectQuery("SELECT (.+) FROM (.+) WHERE (.+) LIMIT 1").
		WithArgs("+1234567890").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	dbMock.ExpectBegin()
	dbMock.ExpectQuery(`INSERT INTO "conversations"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(9))
	dbMock.ExpectCommit()

	store := NewGormStore(gormDB)
	store.Language = "es"
	opened, err := store.Open("+1234567890")
	require.NoError(t, err)
	assert.Equal(t, "es", opened.Language)
	assert.Len(t, opened.State().Messages, 0)
	assert.NoError(t, dbMock.ExpectationsWereMet())
}
