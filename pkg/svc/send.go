package svc

import (
	"time"

	"github.com/City-Bureau/careerchat/pkg/chat"
)

// ReplyEnvelopes addresses the assistant's replies back to whoever sent received,
// splitting long answers into SMS-sized messages
func ReplyEnvelopes(received chat.Envelope, replies []chat.Message) []chat.Envelope {
	var envelopes []chat.Envelope
	for _, reply := range replies {
		for _, body := range SegmentBody(reply.Text, MaxSMSLength) {
			message := reply
			message.Text = body
			envelopes = append(envelopes, chat.Envelope{
				Contact: received.Contact,
				Channel: received.Channel,
				Message: message,
			})
		}
	}
	return envelopes
}

// SendEnvelopes sends the first envelope over SMS. To make sure messages are sent in
// order, the rest are published back to the send feed and chained.
func SendEnvelopes(envelopes []chat.Envelope, twilioChat *TwilioChat, snsClient SNS, topicArn string) (*chat.Envelope, error) {
	if len(envelopes) == 0 {
		return nil, nil
	}

	first := envelopes[0]
	sid, err := twilioChat.SendSMS(first.Message.Text)
	if err != nil {
		return nil, err
	}
	first.ID = sid
	first.Message.Timestamp = time.Now().UTC()

	if rest := envelopes[1:]; len(rest) > 0 {
		if err := PublishJSON(snsClient, rest, topicArn, SendSMSFeed); err != nil {
			return &first, err
		}
	}
	return &first, nil
}
