package assistant

import (
	"bytes"
	"errors"
	"io/ioutil"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/City-Bureau/careerchat/pkg/mocks"
)

const minimalKnowledge = `{
  "faq": [{"patterns": ["reset password", "forgot password"], "response": "Use the reset link."}],
  "features": [{"key": "settings", "name": "Settings", "description": "Account.", "path": "/settings", "tab": 2}],
  "navigationTriggers": ["where"],
  "help": {"triggers": ["help"], "response": "I can help."},
  "topics": [{"name": "jobs", "keywords": ["job"], "response": "Jobs are listed."}],
  "fallback": "Ask me something else."
}`

func TestDecodeKnowledgeBaseExpandsPatterns(t *testing.T) {
	kb, err := DecodeKnowledgeBase(strings.NewReader(minimalKnowledge))
	require.NoError(t, err)

	assert.Equal(t, []KnowledgeEntry{
		{Pattern: "reset password", Response: "Use the reset link."},
		{Pattern: "forgot password", Response: "Use the reset link."},
	}, kb.FAQ)
	require.Len(t, kb.Features, 1)
	assert.Equal(t, 2, *kb.Features[0].Tab)
	assert.Equal(t, []string{"help"}, kb.HelpTriggers)
	assert.Equal(t, "I can help.", kb.HelpResponse)
	assert.Equal(t, "Ask me something else.", kb.Fallback)
}

func TestDecodeKnowledgeBaseRejectsInvalidFiles(t *testing.T) {
	invalid := map[string]string{
		"empty pattern":     strings.Replace(minimalKnowledge, `"reset password"`, `""`, 1),
		"upper case key":    strings.Replace(minimalKnowledge, `"key": "settings"`, `"key": "Settings"`, 1),
		"missing fallback":  strings.Replace(minimalKnowledge, `"Ask me something else."`, `""`, 1),
		"missing help":      strings.Replace(minimalKnowledge, `"I can help."`, `" "`, 1),
		"negative tab":      strings.Replace(minimalKnowledge, `"tab": 2`, `"tab": -1`, 1),
		"not json":          "faq:",
		"empty topic reply": strings.Replace(minimalKnowledge, `"Jobs are listed."`, `""`, 1),
	}
	for name, file := range invalid {
		_, err := DecodeKnowledgeBase(strings.NewReader(file))
		assert.Error(t, err, name)
	}
}

func TestKnowledgeBaseEncodeRoundTrip(t *testing.T) {
	kb := DefaultKnowledgeBase()
	var buf bytes.Buffer
	require.NoError(t, kb.Encode(&buf))

	decoded, err := DecodeKnowledgeBase(&buf)
	require.NoError(t, err)
	assert.Equal(t, kb, decoded)
}

func TestDefaultKnowledgeBaseIsValid(t *testing.T) {
	kb := DefaultKnowledgeBase()
	assert.NoError(t, kb.Validate())
	assert.NotEmpty(t, kb.FAQ)
	assert.NotEmpty(t, kb.Features)
	assert.Equal(t, []string{"help", "what can you do"}, kb.HelpTriggers)
	assert.Len(t, kb.Topics, 5)
}

func TestCloneDefaultKnowledgeBaseIsIndependent(t *testing.T) {
	var clone *KnowledgeBase
	require.NotPanics(t, func() { clone = CloneDefaultKnowledgeBase() })
	require.NotNil(t, clone)
	assert.Equal(t, DefaultKnowledgeBase(), clone)
	clone.SetFAQ(nil)
	assert.NotEmpty(t, DefaultKnowledgeBase().FAQ)
}

func TestLoadKnowledgeBaseFromS3(t *testing.T) {
	client := &mocks.S3Mock{}
	client.On("GetObject", mock.MatchedBy(func(input *s3.GetObjectInput) bool {
		return *input.Bucket == "bucket" && *input.Key == DefaultKnowledgeKey
	})).Return(&s3.GetObjectOutput{
		Body: ioutil.NopCloser(strings.NewReader(minimalKnowledge)),
	}, nil)

	kb, err := LoadKnowledgeBaseFromS3(client, "bucket", "")
	require.NoError(t, err)
	assert.Equal(t, "Ask me something else.", kb.Fallback)
	client.AssertExpectations(t)
}

func TestLoadKnowledgeBaseFromS3Error(t *testing.T) {
	client := &mocks.S3Mock{}
	client.On("GetObject", mock.Anything).Return(nil, errors.New("access denied"))

	_, err := LoadKnowledgeBaseFromS3(client, "bucket", "kb.json")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "s3://bucket/kb.json")
}

func TestPublishKnowledgeBase(t *testing.T) {
	client := &mocks.S3Mock{}
	var uploaded []byte
	client.On("PutObject", mock.MatchedBy(func(input *s3.PutObjectInput) bool {
		return *input.Bucket == "bucket" && *input.Key == "kb.json" && *input.ContentType == "application/json"
	})).Run(func(args mock.Arguments) {
		input := args.Get(0).(*s3.PutObjectInput)
		uploaded, _ = ioutil.ReadAll(input.Body)
	}).Return(&s3.PutObjectOutput{}, nil)

	kb, err := DecodeKnowledgeBase(strings.NewReader(minimalKnowledge))
	require.NoError(t, err)
	require.NoError(t, PublishKnowledgeBase(client, kb, "bucket", "kb.json"))

	republished, err := DecodeKnowledgeBase(bytes.NewReader(uploaded))
	require.NoError(t, err)
	assert.Equal(t, kb, republished)
}

func TestPublishKnowledgeBaseRejectsInvalid(t *testing.T) {
	client := &mocks.S3Mock{}
	err := PublishKnowledgeBase(client, &KnowledgeBase{}, "bucket", "")
	assert.Error(t, err)
	client.AssertNotCalled(t, "PutObject", mock.Anything)
}
