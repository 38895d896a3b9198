package pathmap

// DefaultExclude lists infrastructure directories skipped when scanning a
// working tree instead of a dedicated source root.
var DefaultExclude = []string{
	".git",
	".github",
	"logs",
	"processed",
	"final",
	"translated",
	"source",
	"scripts",
	"src",
	"node_modules",
}

// Filter decides which files a walk picks up.
type Filter struct {
	// Exclude holds directory names pruned anywhere in the tree.
	Exclude []string
	// RequireLocale keeps only paths whose first segment is a locale tag.
	RequireLocale bool
}

// FallbackFilter returns the filter used when the configured source root is
// missing and the working tree is scanned instead. A nil exclude means
// DefaultExclude. Extra names, such as the destination root, are excluded
// as well.
func FallbackFilter(exclude []string, requireLocale bool, extra ...string) *Filter {
	if exclude == nil {
		exclude = DefaultExclude
	}
	ex := append(append([]string(nil), exclude...), extra...)
	return &Filter{Exclude: ex, RequireLocale: requireLocale}
}

// SkipDir reports whether a directory with the given base name is pruned.
func (f *Filter) SkipDir(name string) bool {
	if f == nil {
		return false
	}
	for _, ex := range f.Exclude {
		if ex != "" && name == ex {
			return true
		}
	}
	return false
}

// Allow reports whether the file at rel is processed.
func (f *Filter) Allow(rel string) bool {
	if f == nil {
		return true
	}
	segs := Split(rel)
	if len(segs) == 0 {
		return false
	}
	for _, seg := range segs[:len(segs)-1] {
		if f.SkipDir(seg) {
			return false
		}
	}
	if f.RequireLocale {
		if len(segs) < 2 {
			return false
		}
		_, ok := ParseLocale(segs[0])
		return ok
	}
	return true
}
