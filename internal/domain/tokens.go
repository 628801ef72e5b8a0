package domain

import "regexp"

var tokenRe = regexp.MustCompile(`\w+|[^\s\w]`)

// ApproxTokenCount estimates the number of model tokens in text by
// counting word runs and individual punctuation marks. It is a
// deterministic, locale-agnostic approximation, not the model's true
// subword count; good enough for accounting.
func ApproxTokenCount(text string) int {
	return len(tokenRe.FindAllString(text, -1))
}
