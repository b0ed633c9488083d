package svc

import (
	"crypto/hmac"
	"fmt"
	"net/url"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gorilla/schema"
	"github.com/sfreiberg/gotwilio"

	"github.com/City-Bureau/careerchat/pkg/chat"
)

// MaxSMSLength is the longest body Twilio accepts for one message
const MaxSMSLength = 1600

// TwilioClient generalizes access to Twilio
type TwilioClient interface {
	SendSMS(string, string, string, string, string) (*gotwilio.SmsResponse, *gotwilio.Exception, error)
	GenerateSignature(string, url.Values) ([]byte, error)
}

// TwilioChat sends and receives assistant messages over Twilio SMS
type TwilioChat struct {
	Client TwilioClient
	From   string // The Twilio automated number
	To     string // The user sending SMS
}

// NewTwilioChat is a constructor for Twilio Chat structs
func NewTwilioChat(client TwilioClient, from, to string) *TwilioChat {
	return &TwilioChat{
		Client: client,
		From:   from,
		To:     to,
	}
}

// SendSMS sends body to the chat's recipient, returning the Twilio message SID
func (c *TwilioChat) SendSMS(body string) (string, error) {
	res, exception, err := c.Client.SendSMS(c.From, c.To, body, "", "")
	if err != nil {
		return "", err
	}
	if exception != nil {
		return "", fmt.Errorf("twilio returned error code %d: %s", exception.Code, exception.Message)
	}
	if res == nil {
		return "", nil
	}
	return res.Sid, nil
}

// CheckSignature validates the X-Twilio-Signature header of a webhook
func (c *TwilioChat) CheckSignature(url, signature string, values url.Values) (bool, error) {
	expected, err := c.Client.GenerateSignature(url, values)
	if err != nil {
		return false, err
	}

	return hmac.Equal(expected, []byte(signature)), nil
}

// DecodeSMSWebhook decodes Twilio's form values, ignoring keys the webhook struct lacks
func DecodeSMSWebhook(values url.Values) (gotwilio.SMSWebhook, error) {
	var smsWebhook gotwilio.SMSWebhook
	formDecoder := schema.NewDecoder()
	formDecoder.IgnoreUnknownKeys(true)
	formDecoder.SetAliasTag("form")
	err := formDecoder.Decode(&smsWebhook, values)
	return smsWebhook, err
}

// EnvelopeFromWebhook converts an incoming SMS into an Envelope for the assistant
func EnvelopeFromWebhook(data gotwilio.SMSWebhook, receivedAt time.Time) chat.Envelope {
	return chat.Envelope{
		ID:      data.MessageSid,
		Contact: data.From,
		Channel: data.To,
		Message: chat.NewMessage(chat.UserSender, data.Body, receivedAt),
	}
}

// SegmentBody splits a long answer into SMS-sized bodies, breaking between paragraphs
// and then lines where possible
func SegmentBody(body string, limit int) []string {
	if limit <= 0 {
		limit = MaxSMSLength
	}
	body = strings.TrimSpace(body)
	if len(body) <= limit {
		return []string{body}
	}

	var segments []string
	current := ""
	flush := func() {
		if strings.TrimSpace(current) != "" {
			segments = append(segments, strings.TrimSpace(current))
		}
		current = ""
	}
	for _, paragraph := range strings.Split(body, "\n\n") {
		for _, piece := range splitToLimit(paragraph, limit) {
			separator := "\n\n"
			if current == "" {
				separator = ""
			}
			if len(current)+len(separator)+len(piece) > limit {
				flush()
				separator = ""
			}
			current += separator + piece
		}
	}
	flush()
	return segments
}

// splitToLimit breaks a paragraph at line ends, then hard-wraps lines still too long
func splitToLimit(paragraph string, limit int) []string {
	if len(paragraph) <= limit {
		return []string{paragraph}
	}
	var pieces []string
	current := ""
	for _, line := range strings.Split(paragraph, "\n") {
		for len(line) > limit {
			cut := limit
			// Avoid cutting through a multi-byte character
			for cut > 0 && !utf8.RuneStart(line[cut]) {
				cut--
			}
			if cut == 0 {
				// Limit is narrower than the first character, so take it whole
				_, cut = utf8.DecodeRuneInString(line)
			}
			if current != "" {
				pieces = append(pieces, current)
				current = ""
			}
			pieces = append(pieces, line[:cut])
			line = line[cut:]
		}
		if current != "" && len(current)+1+len(line) > limit {
			pieces = append(pieces, current)
			current = ""
		}
		if current == "" {
			current = line
		} else {
			current += "\n" + line
		}
	}
	if current != "" {
		pieces = append(pieces, current)
	}
	return pieces
}
