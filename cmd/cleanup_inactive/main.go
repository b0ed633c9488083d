package main

import (
	"log"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"go.uber.org/zap"

	"github.com/City-Bureau/careerchat/pkg/chat"
	"github.com/City-Bureau/careerchat/pkg/config"
)

var logger *zap.Logger

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

	closed, err := chat.CleanupInactiveConversations(db, cfg.InactiveAfter, time.Now())
	if err != nil {
		return err
	}
	logger.Info("closed inactive conversations", zap.Int64("count", closed), zap.Duration("inactiveAfter", cfg.InactiveAfter))
	return nil
}

func main() {
	var err error
	if logger, err = zap.NewProduction(); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	lambda.Start(handler)
}
