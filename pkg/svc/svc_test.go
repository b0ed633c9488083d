package svc

import (
	"encoding/json"
	"errors"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sfreiberg/gotwilio"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/City-Bureau/careerchat/pkg/chat"
	"github.com/City-Bureau/careerchat/pkg/mocks"
)

func TestFeedFromRecord(t *testing.T) {
	entity := events.SNSEntity{MessageAttributes: map[string]interface{}{
		"feed": map[string]interface{}{"Type": "String", "Value": SendSMSFeed},
	}}
	feed, ok := FeedFromRecord(entity)
	assert.True(t, ok)
	assert.Equal(t, SendSMSFeed, feed)

	_, ok = FeedFromRecord(events.SNSEntity{})
	assert.False(t, ok)
}

func TestSegmentBodyShortMessage(t *testing.T) {
	assert.Equal(t, []string{"hello"}, SegmentBody("  hello \n", 10))
}

func TestSegmentBodySplitsParagraphs(t *testing.T) {
	body := "first paragraph\n\nsecond paragraph\n\nthird"
	segments := SegmentBody(body, 35)
	assert.Equal(t, []string{"first paragraph\n\nsecond paragraph", "third"}, segments)
}

func TestSegmentBodyRespectsLimit(t *testing.T) {
	body := strings.Repeat("line of text\n", 30) + "\n\n" + strings.Repeat("ñ", 40)
	for _, segment := range SegmentBody(body, 25) {
		assert.True(t, len(segment) <= 25, segment)
		assert.True(t, strings.ToValidUTF8(segment, "?") == segment, "segment cut a character")
	}
}

func TestSegmentBodyLimitNarrowerThanCharacter(t *testing.T) {
	assert.Equal(t, []string{"é", "é", "é"}, SegmentBody("ééé", 1))
}

func TestSegmentBodyInvalidUTF8(t *testing.T) {
	body := strings.Repeat("\x80", 6)
	segments := SegmentBody(body, 4)
	require.NotEmpty(t, segments)
	total := 0
	for _, segment := range segments {
		assert.True(t, len(segment) <= 4, segment)
		total += strings.Count(segment, "\x80")
	}
	assert.Equal(t, 6, total)
}

func TestPublishJSON(t *testing.T) {
	snsClient := &mocks.SNSMock{}
	snsClient.On("Publish", mock.MatchedBy(func(message string) bool {
		var envelope chat.Envelope
		return json.Unmarshal([]byte(message), &envelope) == nil && envelope.ID == "SM1"
	}), "topic", ReceivedMessageFeed).Return(nil)

	err := PublishJSON(snsClient, chat.Envelope{ID: "SM1", Contact: "+15551112222"}, "topic", ReceivedMessageFeed)
	require.NoError(t, err)
	snsClient.AssertNumberOfCalls(t, "Publish", 1)
}

func TestPublishJSONEncodingError(t *testing.T) {
	snsClient := &mocks.SNSMock{}
	err := PublishJSON(snsClient, make(chan int), "topic", SendSMSFeed)
	assert.Error(t, err)
	snsClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestCheckSignature(t *testing.T) {
	client := &mocks.TwilioClientMock{}
	values := url.Values{"Body": {"hi"}}
	client.On("GenerateSignature", "https://example.com/sms", values).Return([]byte("abc"), nil)
	twilioChat := NewTwilioChat(client, "+15550000000", "")

	valid, err := twilioChat.CheckSignature("https://example.com/sms", "abc", values)
	require.NoError(t, err)
	assert.True(t, valid)

	valid, err = twilioChat.CheckSignature("https://example.com/sms", "abd", values)
	require.NoError(t, err)
	assert.False(t, valid)
}

func TestDecodeSMSWebhookIgnoresUnknownKeys(t *testing.T) {
	values := url.Values{
		"MessageSid": {"SM123"},
		"From":       {"+15551112222"},
		"To":         {"+15550000000"},
		"Body":       {"where is the career dashboard"},
		"FromCity":   {"CHICAGO"},
	}
	webhook, err := DecodeSMSWebhook(values)
	require.NoError(t, err)

	envelope := EnvelopeFromWebhook(webhook, time.Now())
	assert.Equal(t, "SM123", envelope.ID)
	assert.Equal(t, "+15551112222", envelope.Contact)
	assert.Equal(t, "+15550000000", envelope.Channel)
	assert.Equal(t, chat.UserSender, envelope.Message.Sender)
	assert.Equal(t, "where is the career dashboard", envelope.Message.Text)
}

func TestReplyEnvelopes(t *testing.T) {
	received := chat.Envelope{Contact: "+15551112222", Channel: "+15550000000"}
	replies := []chat.Message{chat.NewMessage(chat.BotSender, "short answer", time.Now())}

	envelopes := ReplyEnvelopes(received, replies)
	require.Len(t, envelopes, 1)
	assert.Equal(t, "+15551112222", envelopes[0].Contact)
	assert.Equal(t, "+15550000000", envelopes[0].Channel)
	assert.Equal(t, "short answer", envelopes[0].Message.Text)
}

func TestSendEnvelopesChainsRemainder(t *testing.T) {
	client := &mocks.TwilioClientMock{}
	snsClient := &mocks.SNSMock{}
	twilioChat := NewTwilioChat(client, "+15550000000", "+15551112222")
	envelopes := []chat.Envelope{
		{Contact: "+15551112222", Message: chat.Message{Text: "one"}},
		{Contact: "+15551112222", Message: chat.Message{Text: "two"}},
	}

	client.On("SendSMS", "+15550000000", "+15551112222", "one", "", "").
		Return(&gotwilio.SmsResponse{Sid: "SM1"}, nil, nil)
	snsClient.On("Publish", mock.MatchedBy(func(message string) bool {
		var rest []chat.Envelope
		return json.Unmarshal([]byte(message), &rest) == nil && len(rest) == 1 && rest[0].Message.Text == "two"
	}), "topic", SendSMSFeed).Return(nil)

	sent, err := SendEnvelopes(envelopes, twilioChat, snsClient, "topic")
	require.NoError(t, err)
	assert.Equal(t, "SM1", sent.ID)
	client.AssertExpectations(t)
	snsClient.AssertExpectations(t)
}

func TestSendEnvelopesTwilioException(t *testing.T) {
	client := &mocks.TwilioClientMock{}
	snsClient := &mocks.SNSMock{}
	twilioChat := NewTwilioChat(client, "+15550000000", "+15551112222")

	client.On("SendSMS", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, &gotwilio.Exception{Code: 21211, Message: "Invalid 'To' Phone Number"}, nil)

	_, err := SendEnvelopes([]chat.Envelope{{Message: chat.Message{Text: "one"}}, {Message: chat.Message{Text: "two"}}}, twilioChat, snsClient, "topic")
	assert.EqualError(t, err, "twilio returned error code 21211: Invalid 'To' Phone Number")
	snsClient.AssertNotCalled(t, "Publish", mock.Anything, mock.Anything, mock.Anything)
}

func TestSendEnvelopesTransportError(t *testing.T) {
	client := &mocks.TwilioClientMock{}
	client.On("SendSMS", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(nil, nil, errors.New("timeout"))

	_, err := SendEnvelopes([]chat.Envelope{{Message: chat.Message{Text: "one"}}}, NewTwilioChat(client, "a", "b"), &mocks.SNSMock{}, "topic")
	assert.EqualError(t, err, "timeout")
}
