package markup

import (
	"strings"
	"testing"
)

// ---------------------------------------------------------------------------
// Protect
// ---------------------------------------------------------------------------

func TestProtect(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"plain span", "Run `make install` now.", "Run `+make install+` now."},
		{"double quoted", "Use \"`--force`\" here", "Use &quot;`+--force+`&quot; here"},
		{"single quoted", "Set '`x.y`' value", "Set &apos;`+x.y+`&apos; value"},
		{"mismatched quotes stay literal", "\"`foo`' end", "\"`+foo+`' end"},
		{"already wrapped", "keep `+done+` as is", "keep `+done+` as is"},
		{"two spans on a line", "`a` and `b`", "`+a+` and `+b+`"},
		{"span never crosses a newline", "open `here\nthere` end", "open `here\nthere` end"},
		{"empty span", "``", "``"},
		{"punctuation only", "dash `!!` bang", "dash `!!` bang"},
		{"padded content", "gap ` x ` gap", "gap ` x ` gap"},
		{"apostrophe guard", "don`t touch `cmd`", "don`t touch `+cmd+`"},
		{"unconstrained span", "``x``", "``+x+``"},
		{"monospaced role", "[monospaced]#text# end", "[literal]#text# end"},
		{"monospaced role upper", "[MONOSPACED]#text#", "[LITERAL]#text#"},
		{"monospaced role title", "[Monospaced]#text#", "[Literal]#text#"},
		{"role with span", "[monospaced]#`x`#", "[literal]#`+x+`#"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := Protect(tc.in)
			if got != tc.want {
				t.Fatalf("Protect(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestProtectChanges(t *testing.T) {
	_, ch := Protect("\"`a`\" `b` `!` [monospaced]#c#")
	if ch.Spans != 2 {
		t.Errorf("Spans = %d, want 2", ch.Spans)
	}
	if ch.Quoted != 1 {
		t.Errorf("Quoted = %d, want 1", ch.Quoted)
	}
	if ch.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", ch.Skipped)
	}
	if ch.Roles != 1 {
		t.Errorf("Roles = %d, want 1", ch.Roles)
	}
	if !ch.Any() {
		t.Error("Any() = false, want true")
	}
}

func TestProtectIdempotent(t *testing.T) {
	inputs := []string{
		"Run `make` and \"`go test`\" and '`x`'.",
		"[monospaced]#a# `b`",
		"don`t `c++`",
	}
	for _, in := range inputs {
		once, _ := Protect(in)
		twice, ch := Protect(once)
		if twice != once {
			t.Errorf("Protect(Protect(%q)) = %q, want %q", in, twice, once)
		}
		if ch.Spans != 0 {
			t.Errorf("second Protect(%q) reported %d spans, want 0", in, ch.Spans)
		}
	}
}

func TestProtectorCustomClassifier(t *testing.T) {
	p := &Protector{CodeLike: ProtectAll}
	got, _ := p.Protect("bang `!!` and don`t`")
	if want := "bang `+!!+` and don`+t+`"; got != want {
		t.Fatalf("Protect() = %q, want %q", got, want)
	}

	p = &Protector{CodeLike: func(string) bool { return false }}
	in := "`never` \"`ever`\""
	if got, _ := p.Protect(in); got != in {
		t.Fatalf("Protect() with rejecting classifier = %q, want %q", got, in)
	}
}

func TestIsCodeLike(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"foo", true},
		{"path/to/file.adoc", true},
		{"--flag", true},
		{"...", true},
		{"", false},
		{" foo", false},
		{"foo ", false},
		{"!!", false},
		{"«»", false},
	}
	for _, tc := range tests {
		if got := IsCodeLike(tc.in); got != tc.want {
			t.Errorf("IsCodeLike(%q) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestFindSpans(t *testing.T) {
	spans := NewProtector().FindSpans("a \"`x`\" b `y` c")
	if len(spans) != 2 {
		t.Fatalf("FindSpans() returned %d spans, want 2: %+v", len(spans), spans)
	}
	if spans[0].Content != "x" || spans[0].Quote != QuoteDouble {
		t.Errorf("spans[0] = %+v, want content x quoted double", spans[0])
	}
	if spans[1].Content != "y" || spans[1].Quote != QuoteNone {
		t.Errorf("spans[1] = %+v, want content y unquoted", spans[1])
	}
	if spans[0].Quote.String() != "double" {
		t.Errorf("QuoteDouble.String() = %q", spans[0].Quote.String())
	}
}

// ---------------------------------------------------------------------------
// Restore
// ---------------------------------------------------------------------------

func TestRestore(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"entity double", "&quot;`+hello+`&quot;", "\"`hello`\""},
		{"entity single", "&apos;`+x.y+`&apos;", "'`x.y`'"},
		{"entity one side decoded", "\"`+hi+`&quot;", "\"`hi`\""},
		{"entity kinds disagree", "&quot;`+hi+`&apos;", "&quot;`hi`&apos;"},
		{"plain span", "Run `+make install+` now.", "Run `make install` now."},
		{"embedded marker", "`+a+b+`", "`a+b`"},
		{"trailing markers", "`+C+++`", "`C++`"},
		{"leading markers", "`+++i+`", "`++i`"},
		{"duplicated markers", "`++hello++`", "`hello`"},
		{"duplicated markers quoted", "&quot;`++x.y++`&quot;", "\"`x.y`\""},
		// Passthrough around a plain span is valid AsciiDoc and stays as is.
		{"relocated markers", "+`hello`+", "+`hello`+"},
		{"padding inside markers", "`+ go test +`", "`go test`"},
		{"no code char", "`+!!+`", "`+!!+`"},
		{"stray token", "see +stray+ now", "see stray now"},
		{"stray path token", "(+docs/x.adoc+)", "(docs/x.adoc)"},
		{"arithmetic untouched", "1+2+3 and x+y+z", "1+2+3 and x+y+z"},
		{"spaced plus untouched", "a + b + c", "a + b + c"},
		{"token inside code span", "`x +y+ z`", "`x +y+ z`"},
		{"token after apostrophe", "don`t use +stray+ with `x`", "don`t use stray with `x`"},
		{"token between spans", "`a` then +stray+ then `b`", "`a` then stray then `b`"},
		{"literal role", "[literal]#text#", "[monospaced]#text#"},
		{"literal role upper", "[LITERAL]#text#", "[MONOSPACED]#text#"},
		{"crlf", "a\r\nb\rc", "a\nb\nc"},
		{"trailing spaces", "line   \nnext  ", "line\nnext"},
		{"single trailing space kept", "line \n", "line \n"},
		{"dangling delimiter", "open `+half and more", "open `+half and more"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, _ := Restore(tc.in)
			if got != tc.want {
				t.Fatalf("Restore(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRestoreChanges(t *testing.T) {
	_, ch := Restore("&quot;`+a+`&quot; `+b+` `+!+` +c+ [literal]#d#")
	if ch.Spans != 2 {
		t.Errorf("Spans = %d, want 2", ch.Spans)
	}
	if ch.Quoted != 1 {
		t.Errorf("Quoted = %d, want 1", ch.Quoted)
	}
	if ch.Skipped != 1 {
		t.Errorf("Skipped = %d, want 1", ch.Skipped)
	}
	if ch.Tokens != 1 {
		t.Errorf("Tokens = %d, want 1", ch.Tokens)
	}
	if ch.Roles != 1 {
		t.Errorf("Roles = %d, want 1", ch.Roles)
	}

	if _, ch := Restore("nothing to do"); ch.Any() {
		t.Errorf("Restore(plain) changes = %+v, want none", ch)
	}
}

func TestRestoreIdempotentOnCanonical(t *testing.T) {
	inputs := []string{
		"Run `make install` now.",
		"Use \"`--force`\" and '`x`'.",
		"[monospaced]#text#",
		"`a+b` and `C++`",
		"Plain prose, with \"quotes\" and it's fine.",
	}
	for _, in := range inputs {
		if got, _ := Restore(in); got != in {
			t.Errorf("Restore(%q) = %q, want unchanged", in, got)
		}
		once, _ := Restore(in)
		if twice, _ := Restore(once); twice != once {
			t.Errorf("Restore twice changed %q to %q", once, twice)
		}
	}
}

func TestRestoreIdempotentOnOutput(t *testing.T) {
	inputs := []string{
		"`++hello++`",
		"&quot;`+++x+++`&quot;",
		"`+C+++` and `+++i+`",
		"don`t use +stray+ with `x`",
	}
	for _, in := range inputs {
		once, _ := Restore(in)
		if twice, _ := Restore(once); twice != once {
			t.Errorf("Restore(%q) = %q, second pass gave %q", in, once, twice)
		}
	}
}

func TestRoundTrip(t *testing.T) {
	inputs := []string{
		"Run `make install` now.",
		"Use \"`--force`\" to override '`config.yaml`'.",
		"`a` and `b` and `c`",
		"Operators: `a+b`, `C++`, `++i`.",
		"don`t break `this`",
		"Roles: [monospaced]#mono# and [Monospaced]#Mono# and [MONOSPACED]#MONO#.",
		"Multi\nline `one`\nand `two`\n",
		"No markup at all.",
	}
	for _, in := range inputs {
		enc, _ := Protect(in)
		dec, _ := Restore(enc)
		if dec != in {
			t.Errorf("Restore(Protect(%q)) = %q (encoded %q)", in, dec, enc)
		}
	}
}

func TestPlainProseUntouched(t *testing.T) {
	prose := "The quick brown fox. It's \"quoted\" and 'single'.\nSecond line + more."
	if got, _ := Protect(prose); got != prose {
		t.Errorf("Protect(prose) = %q", got)
	}
	if got, _ := Restore(prose); got != prose {
		t.Errorf("Restore(prose) = %q", got)
	}
}

func TestQuoteFidelity(t *testing.T) {
	enc, _ := Protect("\"`foo`\"")
	if !strings.HasPrefix(enc, "&quot;") || !strings.HasSuffix(enc, "&quot;") {
		t.Fatalf("Protect() = %q, want &quot; on both sides", enc)
	}
	if !strings.Contains(enc, "`+foo+`") {
		t.Fatalf("Protect() = %q, want foo between markers", enc)
	}
	if dec, _ := Restore(enc); dec != "\"`foo`\"" {
		t.Fatalf("Restore(%q) = %q, want %q", enc, dec, "\"`foo`\"")
	}
}

func TestRestoreRulesOrder(t *testing.T) {
	want := []string{"quoted-span", "span", "stray-token", "literal-role", "trailing-space"}
	if len(RestoreRules) != len(want) {
		t.Fatalf("len(RestoreRules) = %d, want %d", len(RestoreRules), len(want))
	}
	for i, r := range RestoreRules {
		if r.Name != want[i] {
			t.Errorf("RestoreRules[%d] = %q, want %q", i, r.Name, want[i])
		}
	}
}

// ---------------------------------------------------------------------------
// Tidy
// ---------------------------------------------------------------------------

func TestTidy(t *testing.T) {
	tests := []struct {
		name       string
		in         string
		expandTabs bool
		want       string
	}{
		{"crlf", "a\r\nb\r", false, "a\nb\n"},
		{"nbsp", "a\u00a0b", false, "a b"},
		{"tabs expanded", "\tx", true, "    x"},
		{"tabs kept", "\tx", false, "\tx"},
		{"trailing spaces", "a   \nb", false, "a\nb"},
	}
	for _, tc := range tests {
		if got := Tidy(tc.in, tc.expandTabs); got != tc.want {
			t.Errorf("%s: Tidy(%q) = %q, want %q", tc.name, tc.in, got, tc.want)
		}
	}
}
