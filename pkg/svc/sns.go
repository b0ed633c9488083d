package svc

import (
	"encoding/json"
	"fmt"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sns"
	"github.com/aws/aws-sdk-go/service/sns/snsiface"
)

// ReceivedMessageFeed is the feed name for handling received messages
const ReceivedMessageFeed = "handle_received_message"

// SendSMSFeed is the feed name for sending a Twilio SMS message
const SendSMSFeed = "send_twilio_sms"

const feedAttribute = "feed"

// SNS is an interface for the SNSClient and associated mock
type SNS interface {
	Publish(string, string, string) error
}

// SNSClient implements SNS for a generic way of managing the SNS service
type SNSClient struct {
	Client snsiface.SNSAPI
}

// NewSNSClient creates an SNSClient object
func NewSNSClient() *SNSClient {
	client := sns.New(session.Must(session.NewSession()))
	return &SNSClient{Client: client}
}

// Publish sends a message to a given topic and feed
func (c *SNSClient) Publish(message string, topicArn string, feed string) error {
	_, err := c.Client.Publish(&sns.PublishInput{
		Message:  aws.String(message),
		TopicArn: aws.String(topicArn),
		MessageAttributes: map[string]*sns.MessageAttributeValue{
			feedAttribute: {
				DataType:    aws.String("String"),
				StringValue: aws.String(feed),
			},
		},
	})
	return err
}

// PublishJSON encodes value as JSON and publishes it to a topic and feed
func PublishJSON(client SNS, value interface{}, topicArn string, feed string) error {
	message, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("encoding %s message: %w", feed, err)
	}
	return client.Publish(string(message), topicArn, feed)
}

// FeedFromRecord reads the feed attribute of a delivered SNS message. Lambda delivers
// attributes as {"Type": ..., "Value": ...} objects.
func FeedFromRecord(entity events.SNSEntity) (string, bool) {
	attribute, ok := entity.MessageAttributes[feedAttribute]
	if !ok {
		return "", false
	}
	switch value := attribute.(type) {
	case string:
		return value, true
	case map[string]interface{}:
		feed, ok := value["Value"].(string)
		return feed, ok
	}
	return "", false
}
