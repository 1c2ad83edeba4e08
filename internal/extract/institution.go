package extract

// maxInstitutionRunes guards against a marker word matching into unrelated trailing text.
const maxInstitutionRunes = 100

var institutionPatterns = mustAll(
	`(?i)จุฬาลงกรณ์มหาวิทยาลัย`,
	`(?i)มหาวิทยาลัยเกษตรศาสตร์[^\n\r]{0,20}`,
	`(?i)มหาวิทยาลัยเทคโนโลยีพระจอมเกล้า[^\n\r]{1,50}`,
	`(?i)มหาวิทยาลัยสงขลานครินทร์[^\n\r]{0,20}`,
	`(?i)มหาวิทยาลัยมหิดล[^\n\r]{0,20}`,
	`(?i)มหาวิทยาลัยธรรมศาสตร์[^\n\r]{0,20}`,
	`(?i)มหาวิทยาลัยเชียงใหม่[^\n\r]{0,20}`,
	`(?i)มหาวิทยาลัยขอนแก่น[^\n\r]{0,20}`,
	`(?i)สถาบันเทคโนโลยี[^\n\r]{1,50}`,
	`(?i)สถาบัน[^\n\r]{1,50}มหาวิทยาลัย`,
	`(?i)มหาวิทยาลัย[^\n\r]{1,80}`,
)

var institutionRules = func() []Rule[string] {
	rules := make([]Rule[string], 0, len(institutionPatterns))
	for _, p := range institutionPatterns {
		rules = append(rules, Rule[string]{
			Pattern:  p,
			Capture:  whole,
			Clean:    trim,
			Validate: runeLenBetween(0, maxInstitutionRunes),
		})
	}
	return rules
}()

// Institution returns the institution name found in text, named institutions first.
func (e *Extractor) Institution(text string) (string, bool) {
	return firstValid(text, institutionRules)
}
