package mailx

import (
	"regexp"
	"strings"
	"unicode"
)

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// TextFromHTML strips tags from html. It is a best-effort plain-text
// fallback, not an HTML-to-text converter.
func TextFromHTML(html string) string {
	return strings.TrimSpace(tagPattern.ReplaceAllString(html, ""))
}

// TitleFromID turns "stall-application" into "Stall Application".
func TitleFromID(id string) string {
	words := strings.Fields(strings.ReplaceAll(id, "-", " "))
	for i, w := range words {
		r := []rune(w)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}
