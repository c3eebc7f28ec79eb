package commerce

import "regexp"

// orderNumberPatterns are tried in order; the first match wins.
var orderNumberPatterns = []*regexp.Regexp{
	regexp.MustCompile(`#(\d{4,})`),
	regexp.MustCompile(`(?i)order\s*#?\s*(\d{4,})`),
	regexp.MustCompile(`(?i)order\s+number[:\s]*#?(\d{4,})`),
	regexp.MustCompile(`(?i)confirmation[:\s]*#?(\d{4,})`),
}

var emailPattern = regexp.MustCompile(`[\w.-]+@[\w.-]+\.\w+`)

// ExtractOrderNumber returns the first order number found in text, or "".
func ExtractOrderNumber(text string) string {
	for _, pattern := range orderNumberPatterns {
		if match := pattern.FindStringSubmatch(text); match != nil {
			return match[1]
		}
	}
	return ""
}

// FindOrderNumber looks in the body first and only then in the subject.
func FindOrderNumber(body, subject string) string {
	if n := ExtractOrderNumber(body); n != "" {
		return n
	}
	return ExtractOrderNumber(subject)
}

// ExtractEmail returns the first email address found in text, or "".
func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}
