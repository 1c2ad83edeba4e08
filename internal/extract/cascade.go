// Package extract turns free-form program page text into institution, campus and tuition
// values using ordered pattern cascades.
package extract

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Rule is one entry of an extractor cascade. Pattern is matched against the page text;
// Capture picks the candidate string out of a submatch, Clean normalizes it and Validate
// turns it into the final value.
type Rule[T any] struct {
	Pattern  *regexp.Regexp
	All      bool // try every match instead of only the first
	Capture  func(m []string) string
	Clean    func(string) string
	Validate func(string) (T, bool)
}

// firstValid walks rules in order and returns the first value a rule validates.
func firstValid[T any](text string, rules []Rule[T]) (T, bool) {
	var zero T
	for _, r := range rules {
		for _, m := range matches(r, text) {
			s := m[0]
			if r.Capture != nil {
				s = r.Capture(m)
			}
			if r.Clean != nil {
				s = r.Clean(s)
			}
			if v, ok := r.Validate(s); ok {
				return v, true
			}
		}
	}
	return zero, false
}

func matches[T any](r Rule[T], text string) [][]string {
	if r.All {
		return r.Pattern.FindAllStringSubmatch(text, -1)
	}
	if m := r.Pattern.FindStringSubmatch(text); m != nil {
		return [][]string{m}
	}
	return nil
}

func whole(m []string) string { return m[0] }

func group(i int) func([]string) string {
	return func(m []string) string {
		if i < len(m) {
			return m[i]
		}
		return ""
	}
}

// runeLenBetween accepts strings whose rune count lies strictly inside (lo, hi).
func runeLenBetween(lo, hi int) func(string) (string, bool) {
	return func(s string) (string, bool) {
		n := utf8.RuneCountInString(s)
		return s, n > lo && n < hi
	}
}

func mustAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// Extractor bundles the three field extractors with a configurable tuition range.
type Extractor struct {
	TuitionMin int
	TuitionMax int

	tuition []Rule[int]
}

const (
	DefaultTuitionMin = 3000
	DefaultTuitionMax = 200000
)

// New returns an Extractor accepting tuition amounts in [minAmount, maxAmount].
// Non-positive bounds fall back to the defaults.
func New(minAmount, maxAmount int) *Extractor {
	if minAmount <= 0 {
		minAmount = DefaultTuitionMin
	}
	if maxAmount <= 0 {
		maxAmount = DefaultTuitionMax
	}
	e := &Extractor{TuitionMin: minAmount, TuitionMax: maxAmount}
	e.tuition = tuitionRules(minAmount, maxAmount)
	return e
}

// Default returns an Extractor with the default tuition range.
func Default() *Extractor {
	return New(DefaultTuitionMin, DefaultTuitionMax)
}

func trim(s string) string { return strings.TrimSpace(s) }
