package main

import (
	"fmt"
	"log"
	"net/url"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/sfreiberg/gotwilio"
	"go.uber.org/zap"

	"github.com/City-Bureau/careerchat/pkg/config"
	"github.com/City-Bureau/careerchat/pkg/svc"
)

var (
	cfg    *config.Config
	logger *zap.Logger
)

func handler(request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	values, err := url.ParseQuery(request.Body)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	client := gotwilio.NewTwilioClient(cfg.Twilio.AccountSID, cfg.Twilio.AuthToken)
	twilioChat := svc.NewTwilioChat(client, cfg.Twilio.From, "")
	isValid, err := twilioChat.CheckSignature(
		fmt.Sprintf("%s%s", cfg.GatewayEndpoint, request.Path),
		request.Headers["X-Twilio-Signature"],
		values,
	)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}
	if !isValid {
		logger.Warn("Twilio signature is not valid", zap.String("path", request.Path))
		return events.APIGatewayProxyResponse{StatusCode: 403}, nil
	}

	smsWebhook, err := svc.DecodeSMSWebhook(values)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	envelope := svc.EnvelopeFromWebhook(smsWebhook, time.Now())
	logger.Info("received sms", zap.String("sid", envelope.ID))
	err = svc.PublishJSON(svc.NewSNSClient(), envelope, cfg.SNSTopicARN, svc.ReceivedMessageFeed)
	if err != nil {
		return events.APIGatewayProxyResponse{}, err
	}

	return events.APIGatewayProxyResponse{
		Body:       `<?xml version="1.0" encoding="UTF-8"?><Response></Response>`,
		Headers:    map[string]string{"content-type": "text/xml"},
		StatusCode: 200,
	}, nil
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
