package main

import (
	"context"
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/jinzhu/gorm"
	_ "github.com/jinzhu/gorm/dialects/postgres"
	"go.uber.org/zap"

	"github.com/City-Bureau/careerchat/pkg/assistant"
	"github.com/City-Bureau/careerchat/pkg/chat"
	"github.com/City-Bureau/careerchat/pkg/config"
	"github.com/City-Bureau/careerchat/pkg/svc"
)

var (
	cfg          *config.Config
	logger       *zap.Logger
	newResponder assistant.ResponderFactory
)

func handleReceivedMessage(ctx context.Context, envelope chat.Envelope, store assistant.Store) ([]chat.Envelope, error) {
	assistantChat, err := store.Open(envelope.Contact)
	if err != nil {
		return nil, err
	}
	assistantChat.Logger = logger
	assistantChat.Responder = newResponder(assistantChat.Language)

	replies, err := assistantChat.HandleMessage(ctx, envelope.Message.Text)
	if err != nil {
		return nil, err
	}
	if err := store.Save(assistantChat); err != nil {
		return nil, err
	}
	return svc.ReplyEnvelopes(envelope, replies), nil
}

func handler(ctx context.Context, request events.SNSEvent) error {
	if len(request.Records) < 1 {
		return nil
	}
	snsRecord := request.Records[0].SNS

	feed, ok := svc.FeedFromRecord(snsRecord)
	if !ok {
		logger.Warn("Feed not present in SNS message")
		return nil
	}
	if feed != svc.ReceivedMessageFeed {
		logger.Info("No handler for feed", zap.String("feed", feed))
		return nil
	}

	var envelope chat.Envelope
	if err := json.Unmarshal([]byte(snsRecord.Message), &envelope); err != nil {
		return err
	}

	db, err := gorm.Open("postgres", cfg.PostgresDSN())
	if err != nil {
		return err
	}
	defer db.Close()

	store := assistant.NewGormStore(db)
	store.Language = cfg.DefaultLanguage
	replies, err := handleReceivedMessage(ctx, envelope, store)
	if err != nil {
		return err
	}
	if len(replies) == 0 {
		return nil
	}
	return svc.PublishJSON(svc.NewSNSClient(), replies, cfg.SNSTopicARN, svc.SendSMSFeed)
}

func main() {
	var err error
	if logger, err = zap.NewProduction(); err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()
	if cfg, err = config.Load(); err != nil {
		logger.Fatal("loading config", zap.Error(err))
	}
	kb, err := assistant.LoadConfiguredKnowledgeBase(cfg.Knowledge.Bucket, cfg.Knowledge.Key)
	if err != nil {
		logger.Fatal("loading knowledge base", zap.Error(err))
	}
	// SMS already has network latency, so no simulated delay here
	newResponder = assistant.NewResponderFactory(kb, 0, logger)
	lambda.Start(handler)
}
