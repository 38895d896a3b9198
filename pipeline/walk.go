package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/minios-linux/adocguard/config"
	"github.com/minios-linux/adocguard/lockfile"
	"github.com/minios-linux/adocguard/pathmap"
)

// DocExt is the extension of the documents the pipeline processes.
const DocExt = ".adoc"

// ErrPathEscape is returned when an output path would leave its root.
var ErrPathEscape = errors.New("path escapes destination root")

// collectEncode lists the documents of the encode pass. A missing source
// root switches to a scan of the project root with infrastructure
// directories pruned.
func collectEncode(o *Options) ([]job, error) {
	cfg := o.Config
	root, filter := o.scanRoot(false)
	dstRoot := cfg.DstPath()

	var jobs []job
	err := walkDocs(root, filter, func(rel string) error {
		dst, err := within(dstRoot, rel)
		if err != nil {
			return err
		}
		jobs = append(jobs, job{src: filepath.Join(root, filepath.FromSlash(rel)), key: lockfile.Key(rel), dst: dst})
		return nil
	})
	return jobs, err
}

// collectDecode lists the documents of the decode pass and maps each onto
// the per-language tree. In fallback mode only locale-tagged paths are kept.
func collectDecode(o *Options) ([]job, error) {
	cfg := o.Config
	root, filter := o.scanRoot(true)
	dstRoot := cfg.DstPath()

	var jobs []job
	owner := make(map[string]string)
	err := walkDocs(root, filter, func(rel string) error {
		if filter != nil && !filter.Allow(rel) {
			o.skip(rel, "no locale segment")
			return nil
		}
		m := pathmap.Map(rel)
		dst, err := within(dstRoot, m.Path)
		if err != nil {
			return err
		}
		// Two locale tags of one language land on the same file. The first
		// in walk order wins.
		if first, ok := owner[dst]; ok {
			o.Log.Warn("%s maps to %s, already written from %s", rel, m.Path, first)
			o.skip(rel, "duplicate destination of "+first)
			return nil
		}
		owner[dst] = rel
		j := job{src: filepath.Join(root, filepath.FromSlash(rel)), key: lockfile.Key(rel), dst: dst}
		if m.Tagged {
			j.lang = m.Locale.Lang
		}
		jobs = append(jobs, j)
		return nil
	})
	return jobs, err
}

// scanRoot returns the directory to walk and the filter to apply. The
// filter is nil unless the configured source root is missing.
func (o *Options) scanRoot(requireLocale bool) (string, *pathmap.Filter) {
	cfg := o.Config
	root := cfg.SrcPath()
	if dirExists(root) {
		return root, nil
	}
	o.Log.Warn("Source directory %s not found, scanning %s instead", cfg.SrcDir, cfg.Path("."))
	var extra []string
	for _, d := range []string{cfg.DstDir, cfg.LogDir} {
		if filepath.IsAbs(d) {
			continue
		}
		if first := pathmap.FirstSegment(d); first != "" && first != ".." {
			extra = append(extra, first)
		}
	}
	return cfg.Path("."), pathmap.FallbackFilter(cfg.Exclude, requireLocale, extra...)
}

// walkDocs calls fn with the slash separated path, relative to root, of
// every document below root. Directories the filter excludes are pruned.
func walkDocs(root string, filter *pathmap.Filter, fn func(rel string) error) error {
	return filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return fmt.Errorf("walking %s: %w", p, err)
		}
		if d.IsDir() {
			if p != root && filter.SkipDir(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(d.Name()) != DocExt {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		return fn(filepath.ToSlash(rel))
	})
}

// encodeJobs builds jobs for explicitly named files.
func encodeJobs(cfg *config.Config, files []string) ([]job, error) {
	srcRoot, err := filepath.Abs(cfg.SrcPath())
	if err != nil {
		return nil, err
	}
	dstRoot := cfg.DstPath()

	jobs := make([]job, 0, len(files))
	seen := make(map[string]bool, len(files))
	for _, f := range files {
		abs, err := filepath.Abs(f)
		if err != nil {
			return nil, err
		}
		rel, err := filepath.Rel(srcRoot, abs)
		if err != nil || escapes(rel) {
			return nil, fmt.Errorf("%s is outside source directory %s", f, cfg.SrcDir)
		}
		rel = lockfile.Key(rel)
		if seen[rel] {
			continue
		}
		seen[rel] = true
		dst, err := within(dstRoot, rel)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job{src: abs, key: rel, dst: dst})
	}
	return jobs, nil
}

// within joins rel onto root and rejects results outside root.
func within(root, rel string) (string, error) {
	dst := filepath.Join(root, filepath.FromSlash(rel))
	r, err := filepath.Rel(root, dst)
	if err != nil || r == "." || escapes(r) {
		return "", fmt.Errorf("%s: %w", rel, ErrPathEscape)
	}
	return dst, nil
}

func escapes(rel string) bool {
	rel = filepath.ToSlash(rel)
	return rel == ".." || strings.HasPrefix(rel, "../")
}

func relLabel(root, p string) string {
	if r, err := filepath.Rel(root, p); err == nil && !escapes(r) {
		return filepath.ToSlash(r)
	}
	return p
}

func dirExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && fi.IsDir()
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
