package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"go.uber.org/zap"

	"github.com/City-Bureau/careerchat/pkg/assistant"
	"github.com/City-Bureau/careerchat/pkg/config"
)

var logger *zap.Logger

func handler(request events.CloudWatchEvent) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	if cfg.Knowledge.Bucket == "" {
		return errors.New("S3_BUCKET is required to publish the knowledge base")
	}

	kb := assistant.CloneDefaultKnowledgeBase()
	if cfg.HasAirtable() {
		client := &http.Client{Timeout: 30 * time.Second}
		faq, err := assistant.LoadAirtableFAQ(client, cfg.Airtable.Base, cfg.Airtable.Table, cfg.Airtable.Key)
		if err != nil {
			return err
		}
		kb.SetFAQ(faq)
	}

	sess, err := session.NewSession()
	if err != nil {
		return err
	}
	if err := assistant.PublishKnowledgeBase(s3.New(sess), kb, cfg.Knowledge.Bucket, cfg.Knowledge.Key); err != nil {
		return err
	}
	logger.Info("published knowledge base",
		zap.Int("faq", len(kb.FAQ)),
		zap.Int("features", len(kb.Features)),
		zap.String("bucket", cfg.Knowledge.Bucket),
	)
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
