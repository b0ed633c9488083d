package main

import (
	"encoding/json"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sfreiberg/gotwilio"
	"go.uber.org/zap"

	"github.com/City-Bureau/careerchat/pkg/chat"
	"github.com/City-Bureau/careerchat/pkg/config"
	"github.com/City-Bureau/careerchat/pkg/svc"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func handler(request events.SNSEvent) error {
	if len(request.Records) <= 0 {
		return nil
	}
	message := request.Records[0].SNS.Message

	var envelopes []chat.Envelope
	if err := json.Unmarshal([]byte(message), &envelopes); err != nil {
		return err
	}
	if len(envelopes) == 0 {
		return nil
	}

	client := gotwilio.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
	twilioChat := svc.NewTwilioChat(client, cfg.Twilio.From, envelopes[0].Contact)
	sent, err := svc.SendEnvelopes(envelopes, twilioChat, svc.NewSNSClient(), cfg.SNSTopicARN)
	if sent != nil {
		logger.Info("sent sms", zap.String("sid", sent.ID), zap.Int("remaining", len(envelopes)-1))
	}
	return err
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
	lambda.Start(handler)
}
