package assistant

import (
	"embed"
	"encoding/json"
	"path"
	"sync"

	"github.com/nicksnyder/go-i18n/v2/i18n"
	"golang.org/x/text/language"
)

//go:embed i18n/*.json
var messageFiles embed.FS

var (
	bundle     *i18n.Bundle
	bundleOnce sync.Once
)

func loadBundle() *i18n.Bundle {
	bundleOnce.Do(func() {
		bundle = i18n.NewBundle(language.English)
		bundle.RegisterUnmarshalFunc("json", json.Unmarshal)
		entries, err := messageFiles.ReadDir("i18n")
		if err != nil {
			panic(err)
		}
		for _, entry := range entries {
			filePath := path.Join("i18n", entry.Name())
			buf, err := messageFiles.ReadFile(filePath)
			if err != nil {
				panic(err)
			}
			bundle.MustParseMessageFileBytes(buf, filePath)
		}
	})
	return bundle
}

// LoadLocalizer returns a localizer for lang that falls back to English
func LoadLocalizer(lang string) *i18n.Localizer {
	if lang != "" {
		return i18n.NewLocalizer(loadBundle(), lang, "en")
	}
	return i18n.NewLocalizer(loadBundle(), "en")
}

// SupportedLanguage picks the closest language the assistant speaks for a requested
// tag list such as an Accept-Language header, defaulting to English
func SupportedLanguage(requested string) string {
	tags := loadBundle().LanguageTags()
	matcher := language.NewMatcher(tags)
	desired, _, err := language.ParseAcceptLanguage(requested)
	if err != nil || len(desired) == 0 {
		return "en"
	}
	_, index, confidence := matcher.Match(desired...)
	if confidence == language.No {
		return "en"
	}
	base, _ := tags[index].Base()
	return base.String()
}

func localize(localizer *i18n.Localizer, id, fallback string, data map[string]string) string {
	return localizer.MustLocalize(&i18n.LocalizeConfig{
		DefaultMessage: &i18n.Message{ID: id, Other: fallback},
		TemplateData:   data,
	})
}
