// Package langmeta provides display metadata (native name and emoji flag)
// for the language codes and locale tags found in translated trees.
package langmeta

import "strings"

// Meta describes language display metadata.
type Meta struct {
	Name string
	Flag string
}

// registry maps a base language code to its native name and the region
// whose flag stands for it when a locale carries no region of its own.
var registry = map[string]struct {
	name   string
	region string
}{
	"ar": {"العربية", "sa"},
	"bg": {"Български", "bg"},
	"cs": {"Čeština", "cz"},
	"da": {"Dansk", "dk"},
	"de": {"Deutsch", "de"},
	"el": {"Ελληνικά", "gr"},
	"en": {"English", "us"},
	"es": {"Español", "es"},
	"et": {"Eesti", "ee"},
	"fi": {"Suomi", "fi"},
	"fr": {"Français", "fr"},
	"he": {"עברית", "il"},
	"hi": {"हिन्दी", "in"},
	"hr": {"Hrvatski", "hr"},
	"hu": {"Magyar", "hu"},
	"id": {"Bahasa Indonesia", "id"},
	"it": {"Italiano", "it"},
	"ja": {"日本語", "jp"},
	"ko": {"한국어", "kr"},
	"lt": {"Lietuvių", "lt"},
	"lv": {"Latviešu", "lv"},
	"nb": {"Norsk bokmål", "no"},
	"nl": {"Nederlands", "nl"},
	"pl": {"Polski", "pl"},
	"pt": {"Português", "pt"},
	"ro": {"Română", "ro"},
	"ru": {"Русский", "ru"},
	"sk": {"Slovenčina", "sk"},
	"sl": {"Slovenščina", "si"},
	"sr": {"Српски", "rs"},
	"sv": {"Svenska", "se"},
	"th": {"ไทย", "th"},
	"tr": {"Türkçe", "tr"},
	"uk": {"Українська", "ua"},
	"vi": {"Tiếng Việt", "vn"},
	"zh": {"中文", "cn"},
}

// split breaks a code such as de_at, de-AT or de into lowercase language
// and region parts.
func split(code string) (lang, region string) {
	code = strings.ToLower(strings.TrimSpace(code))
	code = strings.ReplaceAll(code, "_", "-")
	lang, region, _ = strings.Cut(code, "-")
	return lang, region
}

// Resolve returns display metadata for a language code or locale tag. A
// region in the tag picks the flag; unknown languages pass through with the
// code as their name.
func Resolve(code string) Meta {
	lang, region := split(code)
	entry, ok := registry[lang]
	if !ok {
		return Meta{Name: strings.TrimSpace(code), Flag: FlagFromRegion(region)}
	}
	if region == "" {
		region = entry.region
	}
	return Meta{Name: entry.name, Flag: FlagFromRegion(region)}
}

// Label renders "code (Name)" for summaries.
func Label(code string) string {
	m := Resolve(code)
	if m.Name == "" || m.Name == code {
		return code
	}
	return code + " (" + m.Name + ")"
}

// FlagFromRegion converts a two-letter region code into its emoji flag.
// Anything else yields "".
func FlagFromRegion(region string) string {
	if len(region) != 2 {
		return ""
	}
	var b strings.Builder
	for _, c := range strings.ToUpper(region) {
		if c < 'A' || c > 'Z' {
			return ""
		}
		b.WriteRune(0x1F1E6 + (c - 'A'))
	}
	return b.String()
}
