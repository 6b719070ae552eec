// Package keyword detects the vouch keyword in free-form chat messages.
package keyword

import (
	"strings"
	"unicode"
)

// Matcher reports whether a message mentions the keyword. Matching is case
// insensitive and word based: "Vouching for my nitro!" matches "vouch",
// "outvouched" does not.
type Matcher struct {
	keyword string
}

func NewMatcher(keyword string) *Matcher {
	return &Matcher{keyword: strings.ToLower(strings.TrimSpace(keyword))}
}

func (m *Matcher) Keyword() string {
	return m.keyword
}

// Match reports whether any word of content starts with the keyword.
func (m *Matcher) Match(content string) bool {
	if m.keyword == "" {
		return false
	}
	for _, word := range Words(content) {
		if strings.HasPrefix(word, m.keyword) {
			return true
		}
	}
	return false
}

// Words splits content into lower-cased words. Anything that is not a letter
// or a digit separates words, so mentions, emoji and punctuation drop out.
func Words(content string) []string {
	return strings.FieldsFunc(strings.ToLower(content), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}
