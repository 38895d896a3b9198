// Package pathmap maps translated document paths onto the canonical
// per-language documentation tree.
//
// A translated tree is laid out as <locale>/.../modules/en/...; the mapped
// path drops the locale segment and points the "en" module at the locale's
// language:
//
//	de_de/docs/modules/en/pages/x.adoc -> docs/modules/de/pages/x.adoc
//
// Paths whose first segment is not a locale tag are mirrored unchanged.
package pathmap

import (
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// ModulesDir followed by SourceModule is the segment pair rewritten per language.
const (
	ModulesDir   = "modules"
	SourceModule = "en"
)

// localeTag matches two lowercase letters, an underscore and two lowercase letters.
var localeTag = regexp.MustCompile(`^([a-z]{2})_([a-z]{2})$`)

// Locale is a parsed locale tag such as de_de.
type Locale struct {
	Tag    string
	Lang   string
	Region string
}

// ParseLocale parses seg as a locale tag.
func ParseLocale(seg string) (Locale, bool) {
	m := localeTag.FindStringSubmatch(seg)
	if m == nil {
		return Locale{}, false
	}
	return Locale{Tag: m[0], Lang: m[1], Region: m[2]}, true
}

// Mapping is the result of mapping one relative path.
type Mapping struct {
	// Path is the canonical relative path, slash separated.
	Path string
	// Tagged is true when the first segment was a locale tag.
	Tagged bool
	Locale Locale
	// Rewritten is true when a modules/en pair was switched to the language.
	Rewritten bool
}

// Map computes the canonical output path for rel, a path relative to the
// translated root. Only the leading locale segment and the first
// consecutive modules/en segment pair are touched.
func Map(rel string) Mapping {
	segs := Split(rel)
	if len(segs) < 2 {
		return Mapping{Path: strings.Join(segs, "/")}
	}
	loc, ok := ParseLocale(segs[0])
	if !ok {
		return Mapping{Path: strings.Join(segs, "/")}
	}

	rest := append([]string(nil), segs[1:]...)
	m := Mapping{Tagged: true, Locale: loc}
	// The last segment is the file name, never a module directory.
	for i := 0; i+1 < len(rest)-1; i++ {
		if rest[i] == ModulesDir && rest[i+1] == SourceModule {
			rest[i+1] = loc.Lang
			m.Rewritten = true
			break
		}
	}
	m.Path = strings.Join(rest, "/")
	return m
}

// Split cleans rel and returns its slash separated segments.
func Split(rel string) []string {
	rel = path.Clean(filepath.ToSlash(rel))
	rel = strings.TrimPrefix(rel, "/")
	if rel == "." || rel == "" {
		return nil
	}
	return strings.Split(rel, "/")
}

// FirstSegment returns the first segment of rel, or "" for an empty path.
func FirstSegment(rel string) string {
	segs := Split(rel)
	if len(segs) == 0 {
		return ""
	}
	return segs[0]
}
