package automedication

import (
	"fmt"
	"strings"
)

// Language selects which localized text of a question is used
type Language string

const (
	French  Language = "fr"
	Spanish Language = "es"
)

// ParseLanguage accepts "fr" and "es"; an empty value means French
func ParseLanguage(s string) (Language, error) {
	switch Language(strings.ToLower(strings.TrimSpace(s))) {
	case "", French:
		return French, nil
	case Spanish:
		return Spanish, nil
	}
	return French, fmt.Errorf("unsupported language %q: use fr or es", s)
}

// Question is one entry of the self-medication question bank
type Question struct {
	ID            string    `json:"id" yaml:"id"`
	TextFR        string    `json:"text_fr" yaml:"text_fr"`
	TextES        string    `json:"text_es" yaml:"text_es"`
	TriggerTags   []string  `json:"trigger_tags" yaml:"trigger_tags"`
	RiskIfYes     RiskLevel `json:"risk_if_yes" yaml:"risk_if_yes"`
	Priority      int       `json:"priority" yaml:"priority"`
	ExplanationFR string    `json:"explanation_fr,omitempty" yaml:"explanation_fr"`
	ExplanationES string    `json:"explanation_es,omitempty" yaml:"explanation_es"`
}

// Text returns the question in lang, falling back to French
func (q Question) Text(lang Language) string {
	if lang == Spanish && q.TextES != "" {
		return q.TextES
	}
	return q.TextFR
}

// Explanation returns the explanation in lang, falling back to French
func (q Question) Explanation(lang Language) string {
	if lang == Spanish && q.ExplanationES != "" {
		return q.ExplanationES
	}
	return q.ExplanationFR
}

// Triggers reports whether any of the question's trigger tags is in tags
func (q Question) Triggers(tags map[string]struct{}) bool {
	for _, t := range q.TriggerTags {
		if _, ok := tags[t]; ok {
			return true
		}
	}
	return false
}
