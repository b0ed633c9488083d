package assistant

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

//go:embed data/knowledge.json
var defaultKnowledge []byte

// DefaultKnowledgeKey is the S3 key published knowledge files are stored under
const DefaultKnowledgeKey = "latest.json"

// KnowledgeEntry maps a lower-cased substring pattern to a curated answer
type KnowledgeEntry struct {
	Pattern  string
	Response string
}

// FeatureEntry describes a navigable section of the platform
type FeatureEntry struct {
	Key         string `json:"key"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Path        string `json:"path"`
	Tab         *int   `json:"tab,omitempty"`
}

// TopicRule answers broad questions when any of its keywords appear
type TopicRule struct {
	Name     string   `json:"name"`
	Keywords []string `json:"keywords"`
	Response string   `json:"response"`
}

// KnowledgeBase holds every table the resolver consults, in declaration order
type KnowledgeBase struct {
	FAQ                []KnowledgeEntry
	Features           []FeatureEntry
	NavigationTriggers []string
	HelpTriggers       []string
	HelpResponse       string
	Topics             []TopicRule
	Fallback           string
}

// FAQRecord is how FAQ entries are written in knowledge files. Each pattern becomes its
// own KnowledgeEntry sharing the response.
type FAQRecord struct {
	Patterns []string `json:"patterns"`
	Response string   `json:"response"`
}

type helpFile struct {
	Triggers []string `json:"triggers"`
	Response string   `json:"response"`
}

type knowledgeFile struct {
	FAQ                []FAQRecord    `json:"faq"`
	Features           []FeatureEntry `json:"features"`
	NavigationTriggers []string       `json:"navigationTriggers"`
	Help               helpFile       `json:"help"`
	Topics             []TopicRule    `json:"topics"`
	Fallback           string         `json:"fallback"`
}

// DecodeKnowledgeBase parses and validates a knowledge file
func DecodeKnowledgeBase(r io.Reader) (*KnowledgeBase, error) {
	var file knowledgeFile
	if err := json.NewDecoder(r).Decode(&file); err != nil {
		return nil, fmt.Errorf("decoding knowledge file: %w", err)
	}

	kb := &KnowledgeBase{
		Features:           file.Features,
		NavigationTriggers: file.NavigationTriggers,
		HelpTriggers:       file.Help.Triggers,
		HelpResponse:       file.Help.Response,
		Topics:             file.Topics,
		Fallback:           file.Fallback,
	}
	kb.SetFAQ(file.FAQ)

	if err := kb.Validate(); err != nil {
		return nil, err
	}
	return kb, nil
}

// SetFAQ replaces the FAQ table with the expanded records
func (kb *KnowledgeBase) SetFAQ(records []FAQRecord) {
	kb.FAQ = nil
	for _, record := range records {
		for _, pattern := range record.Patterns {
			kb.FAQ = append(kb.FAQ, KnowledgeEntry{Pattern: pattern, Response: record.Response})
		}
	}
}

// Encode writes kb in the knowledge file format
func (kb *KnowledgeBase) Encode(w io.Writer) error {
	file := knowledgeFile{
		Features:           kb.Features,
		NavigationTriggers: kb.NavigationTriggers,
		Help:               helpFile{Triggers: kb.HelpTriggers, Response: kb.HelpResponse},
		Topics:             kb.Topics,
		Fallback:           kb.Fallback,
	}
	// Consecutive entries sharing a response fold back into one record
	for _, entry := range kb.FAQ {
		last := len(file.FAQ) - 1
		if last >= 0 && file.FAQ[last].Response == entry.Response {
			file.FAQ[last].Patterns = append(file.FAQ[last].Patterns, entry.Pattern)
			continue
		}
		file.FAQ = append(file.FAQ, FAQRecord{Patterns: []string{entry.Pattern}, Response: entry.Response})
	}

	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	encoder.SetEscapeHTML(false)
	return encoder.Encode(file)
}

// Validate checks that every key is usable for substring matching and that the
// always-available answers are present
func (kb *KnowledgeBase) Validate() error {
	var errs []string
	checkKey := func(kind, key string) {
		if strings.TrimSpace(key) == "" {
			errs = append(errs, fmt.Sprintf("%s is empty", kind))
		} else if key != strings.ToLower(key) {
			errs = append(errs, fmt.Sprintf("%s %q is not lower case", kind, key))
		}
	}

	for i, entry := range kb.FAQ {
		checkKey(fmt.Sprintf("faq pattern %d", i), entry.Pattern)
		if strings.TrimSpace(entry.Response) == "" {
			errs = append(errs, fmt.Sprintf("faq pattern %q has no response", entry.Pattern))
		}
	}
	for i, feature := range kb.Features {
		checkKey(fmt.Sprintf("feature key %d", i), feature.Key)
		if feature.Name == "" || feature.Path == "" {
			errs = append(errs, fmt.Sprintf("feature %q needs a name and path", feature.Key))
		}
		if feature.Tab != nil && *feature.Tab < 0 {
			errs = append(errs, fmt.Sprintf("feature %q has a negative tab", feature.Key))
		}
	}
	for _, trigger := range kb.NavigationTriggers {
		checkKey("navigation trigger", trigger)
	}
	for _, trigger := range kb.HelpTriggers {
		checkKey("help trigger", trigger)
	}
	for _, topic := range kb.Topics {
		for _, keyword := range topic.Keywords {
			checkKey(fmt.Sprintf("topic %q keyword", topic.Name), keyword)
		}
		if strings.TrimSpace(topic.Response) == "" {
			errs = append(errs, fmt.Sprintf("topic %q has no response", topic.Name))
		}
	}
	if strings.TrimSpace(kb.HelpResponse) == "" {
		errs = append(errs, "help response is empty")
	}
	if strings.TrimSpace(kb.Fallback) == "" {
		errs = append(errs, "fallback is empty")
	}

	if len(errs) > 0 {
		return errors.New("invalid knowledge base: " + strings.Join(errs, "; "))
	}
	return nil
}

var (
	defaultKB     *KnowledgeBase
	defaultKBOnce sync.Once
)

// DefaultKnowledgeBase returns the knowledge base bundled with the binary. It is parsed
// once and must not be modified by callers.
func DefaultKnowledgeBase() *KnowledgeBase {
	defaultKBOnce.Do(func() {
		kb, err := DecodeKnowledgeBase(bytes.NewReader(defaultKnowledge))
		if err != nil {
			panic(err)
		}
		defaultKB = kb
	})
	return defaultKB
}

// CloneDefaultKnowledgeBase returns a fresh copy of the bundled knowledge base that can
// be edited before publishing
func CloneDefaultKnowledgeBase() *KnowledgeBase {
	kb, err := DecodeKnowledgeBase(bytes.NewReader(defaultKnowledge))
	if err != nil {
		panic(err)
	}
	return kb
}

// LoadKnowledgeBaseFromS3 pulls the latest published knowledge file from S3
func LoadKnowledgeBaseFromS3(client s3iface.S3API, bucket, key string) (*KnowledgeBase, error) {
	if key == "" {
		key = DefaultKnowledgeKey
	}
	result, err := client.GetObject(&s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching s3://%s/%s: %w", bucket, key, err)
	}
	defer result.Body.Close()

	return DecodeKnowledgeBase(result.Body)
}

// PublishKnowledgeBase validates kb and uploads it to S3
func PublishKnowledgeBase(client s3iface.S3API, kb *KnowledgeBase, bucket, key string) error {
	if err := kb.Validate(); err != nil {
		return err
	}
	if key == "" {
		key = DefaultKnowledgeKey
	}
	var buf bytes.Buffer
	if err := kb.Encode(&buf); err != nil {
		return err
	}
	_, err := client.PutObject(&s3.PutObjectInput{
		Bucket:      aws.String(bucket),
		Key:         aws.String(key),
		ACL:         aws.String("private"),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
	})
	return err
}

// LoadConfiguredKnowledgeBase loads the published knowledge file when a bucket is set
// and the bundled one otherwise
func LoadConfiguredKnowledgeBase(bucket, key string) (*KnowledgeBase, error) {
	if bucket == "" {
		return DefaultKnowledgeBase(), nil
	}
	sess, err := session.NewSession()
	if err != nil {
		return nil, err
	}
	return LoadKnowledgeBaseFromS3(s3.New(sess), bucket, key)
}
