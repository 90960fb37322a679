package translation_service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"easychat-service/models"

	"github.com/forPelevin/gomoji"
	"golang.org/x/text/language"
)

// Outcome of one enrichment attempt.
type Outcome string

const (
	OutcomeApplied Outcome = "applied"
	OutcomeSkipped Outcome = "skipped"
	OutcomeFailed  Outcome = "failed"
)

// CallRecorder receives per-call latencies.
type CallRecorder interface {
	ObserveTranslationCall(call string, duration time.Duration)
}

// Service decides whether and how a message text gets a translation envelope.
type Service struct {
	translator Translator
	recorder   CallRecorder
}

// NewService wraps a Translator. recorder may be nil.
func NewService(translator Translator, recorder CallRecorder) *Service {
	return &Service{translator: translator, recorder: recorder}
}

// NormalizeLanguage reduces a tag such as "es-ES" or "pt_BR" to its base language ("es", "pt").
func NormalizeLanguage(code string) (string, error) {
	code = strings.TrimSpace(strings.ReplaceAll(code, "_", "-"))
	if code == "" {
		return "", fmt.Errorf("empty language code")
	}
	tag, err := language.Parse(code)
	if err != nil {
		return "", err
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("unknown language %q", code)
	}
	return base.String(), nil
}

// Translatable reports whether text carries anything worth translating.
// Blank and emoji-only texts are not translatable.
func Translatable(text string) bool {
	return strings.TrimSpace(gomoji.RemoveEmojis(text)) != ""
}

// Enrich detects the language of text and, if it differs from target, translates it.
// A nil envelope with OutcomeSkipped or OutcomeFailed means the message stays untranslated.
func (s *Service) Enrich(ctx context.Context, text, target string) (*models.Translation, Outcome, error) {
	if !Translatable(text) {
		return nil, OutcomeSkipped, nil
	}
	if target == "" {
		target = models.DefaultPreferredLanguage
	}

	start := time.Now()
	detected, err := s.translator.DetectLanguage(ctx, text)
	s.observe("detect", start)
	if err != nil {
		return nil, OutcomeFailed, err
	}
	source, err := NormalizeLanguage(detected)
	if err != nil {
		return nil, OutcomeFailed, fmt.Errorf("detected language %q: %w", detected, err)
	}
	if targetBase, err := NormalizeLanguage(target); err == nil && targetBase == source {
		return nil, OutcomeSkipped, nil
	}

	start = time.Now()
	translated, err := s.translator.Translate(ctx, text, source, target)
	s.observe("translate", start)
	if err != nil {
		return nil, OutcomeFailed, err
	}

	return &models.Translation{
		DetectedLanguage: source,
		TranslatedText:   translated,
		TranslatedTo:     target,
	}, OutcomeApplied, nil
}

func (s *Service) observe(call string, start time.Time) {
	if s.recorder != nil {
		s.recorder.ObserveTranslationCall(call, time.Since(start))
	}
}
