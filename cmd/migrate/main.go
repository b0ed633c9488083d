package main

import (
	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"

	"github.com/City-Bureau/careerchat/pkg/chat"
	"github.com/City-Bureau/careerchat/pkg/config"
)

func handler(request events.CloudWatchEvent) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, err := gorm.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	if err := db.AutoMigrate(&chat.Conversation{}).Error; err != nil {
		return err
	}
	// Contact lookups filter on the chat id inside the JSONB payload
	return db.Exec(`CREATE INDEX IF NOT EXISTS idx_conversations_contact ON conversations ((data ->> 'id')) WHERE active IS TRUE`).Error
}

func main() {
	lambda.Start(handler)
}
