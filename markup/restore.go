package markup

import (
	"regexp"
	"strings"
)

// Rule is one rewrite pass of the restorer. Replace receives the full text
// and the submatch indexes of one match and returns the replacement; ok=false
// keeps the matched text as it is.
type Rule struct {
	Name    string
	Pattern *regexp.Regexp
	Replace func(text string, m []int, ch *Changes) (repl string, ok bool)
}

func (r Rule) apply(text string, ch *Changes) string {
	matches := r.Pattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, m := range matches {
		repl, ok := r.Replace(text, m, ch)
		if !ok {
			continue
		}
		b.WriteString(text[last:m[0]])
		b.WriteString(repl)
		last = m[1]
	}
	b.WriteString(text[last:])
	return b.String()
}

// RestoreRules is the fixed pass order of Restore. Each pass runs once over
// the output of the previous one. No pass matches the output shape of an
// earlier pass: quoted spans come back without markers next to the
// delimiters, stray tokens never touch a delimiter, and the restored role
// name is not a pattern of any pass.
var RestoreRules = []Rule{
	{
		Name:    "quoted-span",
		Pattern: regexp.MustCompile("(&quot;|&apos;|\"|')`\\+([^`\\n]+?)\\+`(&quot;|&apos;|\"|')"),
		Replace: restoreQuotedSpan,
	},
	{
		Name:    "span",
		Pattern: regexp.MustCompile("`\\+([^`\\n]+?)\\+`"),
		Replace: restoreSpan,
	},
	{
		Name:    "stray-token",
		Pattern: regexp.MustCompile(`\+([A-Za-z0-9/_.\-]+)\+`),
		Replace: restoreStrayToken,
	},
	{
		Name:    "literal-role",
		Pattern: regexp.MustCompile(`(?i)\[(literal)\]#([^#\n]+)#`),
		Replace: restoreRole,
	},
	{
		Name:    "trailing-space",
		Pattern: trailingSpaces,
		Replace: func(string, []int, *Changes) (string, bool) { return "", true },
	},
}

// Restore decodes translated text back to canonical markup. Running it on
// text that is already canonical returns the text unchanged.
func Restore(text string) (string, Changes) {
	var ch Changes
	text = normalizeNewlines(text)
	for _, r := range RestoreRules {
		text = r.apply(text, &ch)
	}
	return text, ch
}

func quoteOf(tok string) QuoteKind {
	switch tok {
	case entityQuot, `"`:
		return QuoteDouble
	case entityApos, "'":
		return QuoteSingle
	}
	return QuoteNone
}

func restoreQuotedSpan(text string, m []int, ch *Changes) (string, bool) {
	open, inner, closing := text[m[2]:m[3]], text[m[4]:m[5]], text[m[6]:m[7]]
	q := quoteOf(open)
	if q != quoteOf(closing) {
		return "", false
	}
	inner = unwrapMarkers(inner)
	if !hasCodeChar(inner) {
		return "", false
	}
	quote := `"`
	if q == QuoteSingle {
		quote = "'"
	}
	ch.Spans++
	ch.Quoted++
	return quote + string(Delimiter) + inner + string(Delimiter) + quote, true
}

func restoreSpan(text string, m []int, ch *Changes) (string, bool) {
	inner := unwrapMarkers(text[m[2]:m[3]])
	if !hasCodeChar(inner) {
		ch.Skipped++
		return "", false
	}
	ch.Spans++
	return string(Delimiter) + inner + string(Delimiter), true
}

// unwrapMarkers trims the content between the outer markers and strips
// marker pairs a translator duplicated, as in `++x++`.
func unwrapMarkers(inner string) string {
	inner = strings.TrimSpace(inner)
	for len(inner) > 2 && isWrapped(inner) {
		next := strings.TrimSpace(inner[1 : len(inner)-1])
		if !hasCodeChar(next) {
			break
		}
		inner = next
	}
	return inner
}

// spanScanner finds the code spans a stray token must not reach into. It
// pairs delimiters the way the encoder does, apostrophes included.
var spanScanner = NewProtector()

func restoreStrayToken(text string, m []int, ch *Changes) (string, bool) {
	if m[0] > 0 && isTokenBoundary(text[m[0]-1]) {
		return "", false
	}
	if m[1] < len(text) && isTokenBoundary(text[m[1]]) {
		return "", false
	}
	line, pos := lineAt(text, m[0])
	for _, sp := range spanScanner.FindSpans(line) {
		if pos >= sp.Start && pos < sp.End {
			return "", false
		}
	}
	ch.Tokens++
	return text[m[2]:m[3]], true
}

// isTokenBoundary reports whether b glued to a +token+ makes it part of a
// larger word or expression rather than a translator artifact.
func isTokenBoundary(b byte) bool {
	return isTokenByte(b) || b == byte(Marker) || b == byte(Delimiter)
}

// lineAt returns the line containing pos, paired with pos rebased onto it.
func lineAt(text string, pos int) (string, int) {
	start := strings.LastIndexByte(text[:pos], '\n') + 1
	end := strings.IndexByte(text[pos:], '\n')
	if end < 0 {
		end = len(text)
	} else {
		end += pos
	}
	return text[start:end], pos - start
}

func restoreRole(text string, m []int, ch *Changes) (string, bool) {
	ch.Roles++
	return "[" + swapRoleName(text[m[2]:m[3]], "monospaced") + "]#" + text[m[4]:m[5]] + "#", true
}
