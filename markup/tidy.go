package markup

import (
	"regexp"
	"strings"
)

// trailingSpaces matches runs of two or more spaces at the end of a line.
var trailingSpaces = regexp.MustCompile(`(?m) {2,}$`)

func normalizeNewlines(text string) string {
	if !strings.ContainsRune(text, '\r') {
		return text
	}
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}

// Tidy prepares source text for translation: LF line endings, no-break
// spaces turned into plain spaces, tabs expanded to four spaces when
// expandTabs is set, and trailing runs of 2+ spaces removed.
func Tidy(text string, expandTabs bool) string {
	text = normalizeNewlines(text)
	text = strings.ReplaceAll(text, "\u00a0", " ")
	if expandTabs {
		text = strings.ReplaceAll(text, "\t", "    ")
	}
	return trailingSpaces.ReplaceAllString(text, "")
}
