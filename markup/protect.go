// Package markup protects inline AsciiDoc code markup from a translation
// step and restores it afterwards.
//
// Encoding (Protect) rewrites spans the translator must not touch:
//
//   - `code`       -> `+code+`
//   - "`code`"     -> &quot;`+code+`&quot;
//   - '`code`'     -> &apos;`+code+`&apos;
//   - [monospaced]#text# -> [literal]#text#
//
// Decoding (Restore) reverses every one of those forms and tolerates the
// damage translators typically do to them.
package markup

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	// Delimiter opens and closes an inline code span.
	Delimiter = '`'
	// Marker wraps protected span content inside the delimiters.
	Marker = '+'

	entityQuot = "&quot;"
	entityApos = "&apos;"
)

// QuoteKind records which quote pair surrounded a code span.
type QuoteKind int

const (
	QuoteNone QuoteKind = iota
	QuoteDouble
	QuoteSingle
)

func (q QuoteKind) String() string {
	switch q {
	case QuoteDouble:
		return "double"
	case QuoteSingle:
		return "single"
	default:
		return "none"
	}
}

// Span is one inline code span found in a line of text.
type Span struct {
	// Start and End are byte offsets of the whole match, quotes included.
	Start, End int
	// Content is the text between the delimiters.
	Content string
	Quote   QuoteKind
}

// Changes counts what a Protect or Restore call rewrote.
type Changes struct {
	// Spans is the number of code spans wrapped or unwrapped.
	Spans int
	// Quoted is how many of those spans carried a quote pair.
	Quoted int
	// Roles is the number of formatting roles swapped.
	Roles int
	// Tokens is the number of stray +token+ artifacts unwrapped.
	Tokens int
	// Skipped is the number of spans left alone by the classifier.
	Skipped int
}

// Any reports whether anything was rewritten.
func (c Changes) Any() bool {
	return c.Spans+c.Roles+c.Tokens > 0
}

// ---------------------------------------------------------------------------
// Classification
// ---------------------------------------------------------------------------

// CodeLikeFunc decides whether span content should be protected.
type CodeLikeFunc func(content string) bool

// IsCodeLike is the default classifier. Content qualifies when it has no
// leading or trailing whitespace and carries at least one identifier or
// path character (ASCII letter, digit, '.', '_', '/', '-').
func IsCodeLike(content string) bool {
	if content == "" || content != strings.TrimSpace(content) {
		return false
	}
	return hasCodeChar(content)
}

// ProtectAll is a classifier that accepts every span.
func ProtectAll(string) bool { return true }

func hasCodeChar(s string) bool {
	for i := 0; i < len(s); i++ {
		if isTokenByte(s[i]) {
			return true
		}
	}
	return false
}

func isTokenByte(b byte) bool {
	switch {
	case b >= 'a' && b <= 'z', b >= 'A' && b <= 'Z', b >= '0' && b <= '9':
		return true
	case b == '.', b == '_', b == '/', b == '-':
		return true
	}
	return false
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

// ---------------------------------------------------------------------------
// Protector
// ---------------------------------------------------------------------------

// Protector rewrites code spans and monospace roles into their
// translation-safe form. The zero value is not usable; use NewProtector.
type Protector struct {
	// CodeLike decides which spans get protected.
	CodeLike CodeLikeFunc
	// ApostropheGuard skips a backtick sitting between two word characters
	// (a typographic apostrophe such as don`t) instead of opening a span.
	ApostropheGuard bool
}

// NewProtector returns a Protector with the default classifier and the
// apostrophe guard enabled.
func NewProtector() *Protector {
	return &Protector{CodeLike: IsCodeLike, ApostropheGuard: true}
}

var defaultProtector = NewProtector()

// Protect encodes text with the default Protector.
func Protect(text string) (string, Changes) {
	return defaultProtector.Protect(text)
}

// monospaceRole matches [monospaced]#text# on a single line.
var monospaceRole = regexp.MustCompile(`(?i)\[(monospaced)\]#([^#\n]+)#`)

// Protect rewrites every code span and monospace role in text. Spans whose
// content is already marker-wrapped are left untouched, so Protect can run
// on its own output without double-wrapping.
func (p *Protector) Protect(text string) (string, Changes) {
	var ch Changes
	spans := p.FindSpans(text)

	var b strings.Builder
	b.Grow(len(text) + len(spans)*4)
	last := 0
	for _, sp := range spans {
		b.WriteString(text[last:sp.Start])
		last = sp.End

		if !p.codeLike(sp.Content) {
			ch.Skipped++
			b.WriteString(text[sp.Start:sp.End])
			continue
		}

		inner := sp.Content
		if !isWrapped(inner) {
			inner = string(Marker) + inner + string(Marker)
		}
		span := string(Delimiter) + inner + string(Delimiter)

		switch sp.Quote {
		case QuoteDouble:
			b.WriteString(entityQuot + span + entityQuot)
			ch.Quoted++
		case QuoteSingle:
			b.WriteString(entityApos + span + entityApos)
			ch.Quoted++
		default:
			b.WriteString(span)
		}
		if inner != sp.Content || sp.Quote != QuoteNone {
			ch.Spans++
		}
	}
	b.WriteString(text[last:])
	out := b.String()

	out = monospaceRole.ReplaceAllStringFunc(out, func(m string) string {
		sub := monospaceRole.FindStringSubmatch(m)
		ch.Roles++
		return "[" + swapRoleName(sub[1], "literal") + "]#" + sub[2] + "#"
	})
	return out, ch
}

func (p *Protector) codeLike(content string) bool {
	if p.CodeLike == nil {
		return IsCodeLike(content)
	}
	return p.CodeLike(content)
}

// isWrapped reports whether content already begins and ends with the marker.
func isWrapped(content string) bool {
	return content != "" && content[0] == Marker && content[len(content)-1] == Marker
}

// FindSpans scans text left to right for code spans. A span never crosses a
// line break and never contains a delimiter. When a matching quote sits
// directly on both sides it becomes part of the span.
func (p *Protector) FindSpans(text string) []Span {
	var spans []Span
	i := 0
	for i < len(text) {
		c := text[i]

		// Quoted span: "`...`" or '`...`'.
		if (c == '"' || c == '\'') && i+1 < len(text) && text[i+1] == Delimiter {
			if end, ok := closeSpan(text, i+2); ok && end+1 < len(text) && text[end+1] == c {
				if !p.strayApostrophe(text, i+1) {
					q := QuoteDouble
					if c == '\'' {
						q = QuoteSingle
					}
					spans = append(spans, Span{Start: i, End: end + 2, Content: text[i+2 : end], Quote: q})
					i = end + 2
					continue
				}
			}
			i++
			continue
		}

		if c != Delimiter {
			i++
			continue
		}
		if p.strayApostrophe(text, i) {
			i++
			continue
		}
		end, ok := closeSpan(text, i+1)
		if !ok {
			i++
			continue
		}
		spans = append(spans, Span{Start: i, End: end + 1, Content: text[i+1 : end]})
		i = end + 1
	}
	return spans
}

// closeSpan finds the closing delimiter for content starting at from. The
// content must be non-empty and stay on one line.
func closeSpan(text string, from int) (int, bool) {
	for j := from; j < len(text); j++ {
		switch text[j] {
		case '\n', '\r':
			return 0, false
		case Delimiter:
			if j == from {
				return 0, false
			}
			return j, true
		}
	}
	return 0, false
}

// strayApostrophe reports whether the delimiter at pos is wedged between two
// word characters.
func (p *Protector) strayApostrophe(text string, pos int) bool {
	if !p.ApostropheGuard || pos == 0 || pos+1 >= len(text) {
		return false
	}
	before, _ := utf8.DecodeLastRuneInString(text[:pos])
	after, _ := utf8.DecodeRuneInString(text[pos+1:])
	return isWordRune(before) && isWordRune(after)
}

// swapRoleName returns repl in the letter case of name: all upper, title
// case, or lower.
func swapRoleName(name, repl string) string {
	switch {
	case name == strings.ToUpper(name):
		return strings.ToUpper(repl)
	case name[:1] == strings.ToUpper(name[:1]) && name[1:] == strings.ToLower(name[1:]):
		return strings.ToUpper(repl[:1]) + repl[1:]
	default:
		return repl
	}
}
