package assistant

import (
	"context"
	"strconv"
	"strings"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"go.uber.org/zap"
)

// Stage names one step of the resolution pipeline
type Stage string

const (
	FAQStage        Stage = "faq"
	NavigationStage Stage = "navigation"
	HelpStage       Stage = "help"
	TopicStage      Stage = "topic"
	FallbackStage   Stage = "fallback"
)

// Resolution is the answer chosen for a query and the stage that chose it
type Resolution struct {
	Stage    Stage
	Response string
}

type stage interface {
	name() Stage
	match(query string) (string, bool)
}

type faqStage struct {
	entries []KnowledgeEntry
}

func (s faqStage) name() Stage { return FAQStage }

func (s faqStage) match(query string) (string, bool) {
	for _, entry := range s.entries {
		if strings.Contains(query, entry.Pattern) {
			return entry.Response, true
		}
	}
	return "", false
}

type navigationStage struct {
	triggers  []string
	features  []FeatureEntry
	localizer *i18n.Localizer
}

func (s navigationStage) name() Stage { return NavigationStage }

func (s navigationStage) match(query string) (string, bool) {
	if !containsAny(query, s.triggers) {
		return "", false
	}
	for _, feature := range s.features {
		if containsAny(query, []string{feature.Key, strings.ToLower(feature.Name)}) {
			return s.describe(feature), true
		}
	}
	return "", false
}

func (s navigationStage) describe(feature FeatureEntry) string {
	tab := ""
	if feature.Tab != nil {
		tab = localize(s.localizer, "navigation-tab", " (tab #{{.Number}})", map[string]string{
			"Number": strconv.Itoa(*feature.Tab + 1),
		})
	}
	return localize(s.localizer, "navigation-answer", "You can find {{.Name}} at {{.Path}}{{.Tab}}. {{.Description}}", map[string]string{
		"Name":        feature.Name,
		"Path":        feature.Path,
		"Tab":         tab,
		"Description": feature.Description,
	})
}

type helpStage struct {
	triggers []string
	response string
}

func (s helpStage) name() Stage { return HelpStage }

func (s helpStage) match(query string) (string, bool) {
	if strings.TrimSpace(s.response) != "" && containsAny(query, s.triggers) {
		return s.response, true
	}
	return "", false
}

type topicStage struct {
	topics []TopicRule
}

func (s topicStage) name() Stage { return TopicStage }

func (s topicStage) match(query string) (string, bool) {
	for _, topic := range s.topics {
		if containsAny(query, topic.Keywords) {
			return topic.Response, true
		}
	}
	return "", false
}

type fallbackStage struct {
	response string
}

func (s fallbackStage) name() Stage { return FallbackStage }

func (s fallbackStage) match(string) (string, bool) { return s.response, true }

const defaultFallback = "I'm not sure I understand. Try asking \"What can you do?\" to see how I can help."

// Resolver picks one answer for a query by running it through the stages in priority
// order. It only reads its knowledge base and is safe for concurrent use.
type Resolver struct {
	stages []stage
	logger *zap.Logger
}

// NewResolver builds a resolver over kb. A nil localizer renders English.
func NewResolver(kb *KnowledgeBase, localizer *i18n.Localizer) *Resolver {
	if localizer == nil {
		localizer = LoadLocalizer("en")
	}
	fallback := kb.Fallback
	if strings.TrimSpace(fallback) == "" {
		fallback = defaultFallback
	}
	return &Resolver{
		stages: []stage{
			faqStage{entries: answerableEntries(kb.FAQ)},
			navigationStage{triggers: kb.NavigationTriggers, features: kb.Features, localizer: localizer},
			helpStage{triggers: kb.HelpTriggers, response: kb.HelpResponse},
			topicStage{topics: answerableTopics(kb.Topics)},
			fallbackStage{response: fallback},
		},
		logger: zap.NewNop(),
	}
}

// Entries without a pattern would match every query
func answerableEntries(entries []KnowledgeEntry) []KnowledgeEntry {
	kept := make([]KnowledgeEntry, 0, len(entries))
	for _, entry := range entries {
		if entry.Pattern != "" && strings.TrimSpace(entry.Response) != "" {
			kept = append(kept, entry)
		}
	}
	return kept
}

func answerableTopics(topics []TopicRule) []TopicRule {
	kept := make([]TopicRule, 0, len(topics))
	for _, topic := range topics {
		if strings.TrimSpace(topic.Response) != "" {
			kept = append(kept, topic)
		}
	}
	return kept
}

// WithLogger sets the logger Respond reports the answering stage to
func (r *Resolver) WithLogger(logger *zap.Logger) *Resolver {
	if logger != nil {
		r.logger = logger
	}
	return r
}

// Classify returns the first stage that answers the normalized query
func (r *Resolver) Classify(normalizedQuery string) Resolution {
	for _, s := range r.stages {
		if response, ok := s.match(normalizedQuery); ok {
			return Resolution{Stage: s.name(), Response: response}
		}
	}
	return Resolution{Stage: FallbackStage, Response: defaultFallback}
}

// Resolve returns the answer for an already normalized query
func (r *Resolver) Resolve(normalizedQuery string) string {
	return r.Classify(normalizedQuery).Response
}

// Respond normalizes raw text and resolves it. It never fails.
func (r *Resolver) Respond(ctx context.Context, text string) (string, error) {
	resolution := r.Classify(Normalize(text))
	r.logger.Debug("resolved query", zap.String("stage", string(resolution.Stage)))
	return resolution.Response, nil
}
