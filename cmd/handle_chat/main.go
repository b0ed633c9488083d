package main

import (
	"log"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"go.uber.org/zap"

	"github.com/City-Bureau/careerchat/pkg/api"
	"github.com/City-Bureau/careerchat/pkg/assistant"
	"github.com/City-Bureau/careerchat/pkg/config"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}
	db, err := gorm.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("opening database", zap.Error(err))
	}
	defer db.Close()

	kb, err := assistant.LoadConfiguredKnowledgeBase(cfg.Knowledge.Bucket, cfg.Knowledge.Key)
	if err != nil {
		logger.Fatal("loading knowledge base", zap.Error(err))
	}

	store := assistant.NewGormStore(db)
	store.Language = cfg.DefaultLanguage
	handler := api.NewHandler(
		store,
		assistant.NewResponderFactory(kb, cfg.ResponseDelay, logger),
		logger,
	)
	lambda.Start(handler.Handle)
}
