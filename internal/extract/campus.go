package extract

import (
	"regexp"
	"strings"
)

var knownCampuses = []string{
	"รังสิต", "ศาลายา", "หาดใหญ่", "ปัตตานี", "สุราษฎร์ธานี", "ภูเก็ต", "กรุงเทพฯ",
	"เชียงใหม่", "ขอนแก่น", "อุบลราชธานี", "นครราชสีมา", "สกลนคร", "กำแพงแสน",
	"จันทบุรี", "ปราจีนบุรี", "สระแก้ว", "ราชบุรี", "เพชรบุรี", "นครปฐม", "ลำปาง",
	"พิษณุโลก", "อุดรธานี", "ยะลา", "สงขลา", "ตรัง", "ชุมพร",
}

var (
	campusMarker = regexp.MustCompile(`(?i)^(วิทยาเขต|campus|ที่ตั้ง|สถานที่|ตั้งอยู่ที่|อยู่ที่|ณ\s*)`)
	adminUnit    = regexp.MustCompile(`จังหวัด|อำเภอ|ตำบล|แขวง|เขต`)
)

// cleanCampus strips the leading marker word and administrative unit words.
func cleanCampus(s string) string {
	s = strings.TrimSpace(s)
	s = campusMarker.ReplaceAllString(s, "")
	s = strings.TrimLeft(s, " \t:-–")
	s = adminUnit.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

var campusRules = func() []Rule[string] {
	var rules []Rule[string]
	marker := func(pattern string) Rule[string] {
		return Rule[string]{
			Pattern:  regexp.MustCompile(pattern),
			Capture:  whole,
			Clean:    cleanCampus,
			Validate: runeLenBetween(2, 50),
		}
	}

	for _, name := range knownCampuses {
		rules = append(rules, marker(`(?i)วิทยาเขต`+regexp.QuoteMeta(name)))
	}
	rules = append(rules,
		marker(`(?i)วิทยาเขต[^\n\r]{1,50}`),
		marker(`(?i)campus[^\n\r]{1,30}`),
		marker(`(?i)ที่ตั้ง[^\n\r]*?[ก-๙]+[^\n\r]{0,20}`),
		marker(`(?i)สถานที่[^\n\r]*?[ก-๙]+[^\n\r]{0,20}`),
		marker(`(?i)(?:ตั้งอยู่ที่|อยู่ที่|ณ[ \t]+)[ก-๙ ]{3,30}`),
	)

	branch := func(pattern string) Rule[string] {
		return Rule[string]{
			Pattern:  regexp.MustCompile(pattern),
			Capture:  group(1),
			Clean:    trim,
			Validate: runeLenBetween(2, 30),
		}
	}
	rules = append(rules,
		branch(`(?i)มหาวิทยาลัยเทคโนโลยีพระจอมเกล้า[^\n\r]*?(พระนครเหนือ|เจ้าคุณทหารลาดกระบัง|ธนบุรี|พระนคร)`),
		branch(`(?i)มหาวิทยาลัยราชภัฏ[^\n\r]*?([ก-๙]{3,20})`),
		branch(`(?i)มหาวิทยาลัยเทคโนโลยีราชมงคล[^\n\r]*?([ก-๙]{3,20})`),
	)
	return rules
}()

// Campus returns the campus name found in text. Known campus names and campus markers are
// tried first, then location phrases, then branch qualifiers of institution names.
func (e *Extractor) Campus(text string) (string, bool) {
	return firstValid(text, campusRules)
}
