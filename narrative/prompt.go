package narrative

import (
	"strings"

	"github.com/kljensen/snowball"
)

// promptSeparator joins the framing instruction and the passage, and is the
// marker used later to recover the passage for fallback stories.
const promptSeparator = ": "

// resolveInterest maps the reader's primary interest tag (first of the
// ranked list) to a framing category. Tags are matched directly first, then
// by snowball stem so close variants like "technologies" still land on
// their category. Anything unrecognized, and an empty list, resolves to the
// general framing.
func (t Templates) resolveInterest(interests []string) string {
	if len(interests) == 0 {
		return defaultInterest
	}

	primary := strings.ToLower(strings.TrimSpace(interests[0]))
	if primary == "" {
		return defaultInterest
	}
	if _, ok := t.Framings[primary]; ok {
		return primary
	}

	stem := stemWord(primary)
	for interest := range t.Framings {
		if stemWord(interest) == stem {
			return interest
		}
	}

	return defaultInterest
}

func (t Templates) buildPrompt(interest, passage string) string {
	framing, ok := t.Framings[interest]
	if !ok {
		framing = t.Framings[defaultInterest]
	}
	return framing + promptSeparator + passage
}

// passageFromPrompt recovers the original passage: the substring after the
// framing instruction's separator. An empty result means the passage is
// unrecoverable and the terminal fallback applies.
func passageFromPrompt(prompt string) string {
	_, after, ok := strings.Cut(prompt, promptSeparator)
	if !ok {
		return ""
	}
	return strings.TrimSpace(after)
}

func stemWord(word string) string {
	stem, err := snowball.Stem(word, "english", true)
	if err != nil {
		return word
	}
	return stem
}
