package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/go-scripts/tcas/pkg/common"
)

// Ordered from compound fee phrasing down to a bare amount followed by the currency unit.
// Group 1 always holds the number.
var tuitionPatterns = mustAll(
	`(?i)อัตราค่าเล่าเรียน\s*([0-9,]+)\s*บาท[^\d]*ภาค`,
	`(?i)ค่าใช้จ่าย[^\d]*([0-9,]+)[^\d]*บาท`,
	`(?i)อัตราค่าเล่าเรียน[^\d]*([0-9,]+)[^\d]*บาท`,
	`(?i)ค่าเล่าเรียน[^\d]*([0-9,]+)[^\d]*บาท`,
	`(?i)ค่าธรรมเนียมการศึกษา[^\d]*([0-9,]+)[^\d]*บาท`,
	`(?i)([0-9,]+)\s*บาท[^\d]*ภาคการศึกษา`,
	`(?i)([0-9,]+)\s*บาท[^\d]*ต่อภาค`,
	`(?i)([0-9,]+)\.-[^\d]*ภาค`,
	`(?i)([0-9,]{4,})\s*บาท`,
	`(?i)([1-9][0-9]{3,5})\s*บาท`,
	`(?i)เรียน\s*([0-9,]+)\s*บาท`,
	`(?i)ค่า[^\d]*([0-9,]+)\s*บาท`,
)

var feeURL = regexp.MustCompile(`(?i)(https?://\S+(?:tuition|fee)\S*)`)

// parseAmount strips thousands separators and parses a plain decimal integer.
func parseAmount(s string) (int, bool) {
	s = strings.ReplaceAll(s, ",", "")
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, false
	}
	return n, true
}

func tuitionRules(minAmount, maxAmount int) []Rule[int] {
	validate := func(s string) (int, bool) {
		n, ok := parseAmount(s)
		if !ok || n < minAmount || n > maxAmount {
			return 0, false
		}
		return n, true
	}

	rules := make([]Rule[int], 0, len(tuitionPatterns))
	for _, p := range tuitionPatterns {
		rules = append(rules, Rule[int]{
			Pattern:  p,
			All:      true,
			Capture:  group(1),
			Validate: validate,
		})
	}
	return rules
}

// Tuition returns the first plausible per-term fee in text. When no amount is found it
// falls back to a fee or tuition URL as a pointer for manual lookup.
func (e *Extractor) Tuition(text string) common.Tuition {
	if amount, ok := firstValid(text, e.tuition); ok {
		return common.Tuition{Amount: amount}
	}
	if m := feeURL.FindStringSubmatch(text); m != nil {
		return common.Tuition{Reference: m[1]}
	}
	return common.Tuition{}
}
