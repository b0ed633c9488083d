package mocks

import (
	"net/url"

	"github.com/sfreiberg/gotwilio"
	"github.com/stretchr/testify/mock"
)

// TwilioClientMock is a mock for Twilio
type TwilioClientMock struct {
	mock.Mock
}

// SendSMS mocks sending Twilio SMS
func (m *TwilioClientMock) SendSMS(from, to, body, statusCallback, applicationSid string) (*gotwilio.SmsResponse, *gotwilio.Exception, error) {
	args := m.Called(from, to, body, statusCallback, applicationSid)
	var res *gotwilio.SmsResponse
	if r, ok := args.Get(0).(*gotwilio.SmsResponse); ok {
		res = r
	}
	var exception *gotwilio.Exception
	if e, ok := args.Get(1).(*gotwilio.Exception); ok {
		exception = e
	}
	return res, exception, args.Error(2)
}

// GenerateSignature mocks Twilio request signing
func (m *TwilioClientMock) GenerateSignature(url string, values url.Values) ([]byte, error) {
	args := m.Called(url, values)
	var signature []byte
	if s, ok := args.Get(0).([]byte); ok {
		signature = s
	}
	return signature, args.Error(1)
}
