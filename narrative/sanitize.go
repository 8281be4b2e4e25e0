package narrative

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// Generated continuations carry chat-model artifacts: dialogue role labels,
// promotional tails, links, handles. These are stripped before the quality
// gate so artifact noise does not count toward the length check.
var (
	rolePrefix    = regexp.MustCompile(`(?i)^(user|bot|human|ai|speaker):\s*`)
	promoTail     = regexp.MustCompile(`(?i)\b(learn more|click here|follow|sign up|subscribe)\b.*$`)
	wwwLink       = regexp.MustCompile(`www\.\S*`)
	httpLink      = regexp.MustCompile(`http\S+`)
	atHandle      = regexp.MustCompile(`@\w+`)
	whitespaceRun = regexp.MustCompile(`\s+`)
)

const terminalPunctuation = `.!?"'`

// sanitize cleans a raw continuation and guarantees the result, when not
// empty, ends with terminal punctuation.
func sanitize(text string) string {
	text = rolePrefix.ReplaceAllString(text, "")
	text = promoTail.ReplaceAllString(text, "")
	text = wwwLink.ReplaceAllString(text, "")
	text = httpLink.ReplaceAllString(text, "")
	text = atHandle.ReplaceAllString(text, "")
	text = strings.TrimSpace(whitespaceRun.ReplaceAllString(text, " "))

	if text == "" {
		return ""
	}
	last, _ := utf8.DecodeLastRuneInString(text)
	if !strings.ContainsRune(terminalPunctuation, last) {
		text += "."
	}
	return text
}

// stripPrompt removes the echoed prompt from the model's raw output. The
// generation contract says the output begins with or contains the prompt
// verbatim; if neither holds the raw output is used as the continuation.
func stripPrompt(raw, prompt string) string {
	if rest, ok := strings.CutPrefix(raw, prompt); ok {
		return strings.TrimSpace(rest)
	}
	if i := strings.Index(raw, prompt); i >= 0 {
		return strings.TrimSpace(raw[i+len(prompt):])
	}
	return strings.TrimSpace(raw)
}
