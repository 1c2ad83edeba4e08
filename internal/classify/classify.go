// Package classify decides which discovered program links belong to a search pass.
package classify

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/go-scripts/tcas/pkg/common"
)

// MinTitleRunes is the shortest anchor text still considered a program title.
const MinTitleRunes = 11

// Reason explains a classification decision.
type Reason string

const (
	Accepted      Reason = "accepted"
	TooShort      Reason = "text too short"
	MissingField  Reason = "missing href or text"
	HasAIToken    Reason = "mentions artificial intelligence"
	LacksAIToken  Reason = "does not mention artificial intelligence"
	ExcludedToken Reason = "contains excluded keyword"
)

// aiPhrases are matched as plain substrings of the lower-cased text.
var aiPhrases = []string{
	"ปัญญาประดิษฐ์",
	"artificial intelligence",
	"intelligent",
}

// "ai" alone is only a token when it stands as a word; "thai" or "maintenance" are not.
var aiWord = regexp.MustCompile(`\bai\b`)

// fold lower-cases s and puts it in NFC so that keywords match regardless of how the page
// composed its characters.
func fold(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

// HasAIIndicator reports whether text mentions artificial intelligence.
func HasAIIndicator(text string) bool {
	lower := fold(text)
	for _, p := range aiPhrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return aiWord.MatchString(lower)
}

// Classify reports whether the anchor belongs to the pass described by cfg.
func Classify(a common.Anchor, cfg common.SearchTermConfig) bool {
	return Decide(a, cfg) == Accepted
}

// Decide applies the rules in order and returns the first decisive reason.
func Decide(a common.Anchor, cfg common.SearchTermConfig) Reason {
	text := strings.TrimSpace(a.Text)
	if a.Href == "" || text == "" {
		return MissingField
	}
	if utf8.RuneCountInString(text) < MinTitleRunes {
		return TooShort
	}

	switch cfg.Intent {
	case common.IntentGeneral:
		if HasAIIndicator(text) {
			return HasAIToken
		}
	case common.IntentAI:
		if !HasAIIndicator(text) {
			return LacksAIToken
		}
	}

	lower := fold(text)
	for _, kw := range cfg.ExcludeKeywords {
		kw = fold(strings.TrimSpace(kw))
		if kw != "" && strings.Contains(lower, kw) {
			return ExcludedToken
		}
	}

	return Accepted
}
