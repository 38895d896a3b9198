// Package pipeline drives the encode and decode passes over a document tree:
// it walks the source root, normalizes each file's charset, protects or
// restores its markup, maps decoded paths into the per-language tree and
// writes the result under the destination root.
//
// Every file is processed end to end by one task; tasks share nothing but
// the run log and the optional lock file, both of which serialize access.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/minios-linux/adocguard/charset"
	"github.com/minios-linux/adocguard/config"
	"github.com/minios-linux/adocguard/lockfile"
	"github.com/minios-linux/adocguard/markup"
	"github.com/minios-linux/adocguard/runlog"
)

// ErrNoFiles is returned in strict mode when a run matched no documents.
var ErrNoFiles = errors.New("no .adoc files matched")

// Options configures one pipeline run.
type Options struct {
	// Config holds the resolved roots and settings of the stage.
	Config *config.Config
	// Detector guesses the charset of raw input. Defaults to chardet.
	Detector charset.Detector
	// Log receives per-file lines, counters and the summary. Required.
	Log *runlog.Log
	// Lock enables incremental runs when non-nil.
	Lock *lockfile.LockFile
	// DryRun processes everything but writes no output and no lock file.
	DryRun bool
	// Strict turns an empty run into ErrNoFiles.
	Strict bool
}

// job is one document to process.
type job struct {
	src string // absolute input path
	key string // input path relative to the scan root, slash separated
	dst string // absolute output path
	// lang is the language code of a locale-tagged decode input.
	lang string
}

// Encode runs the encode pass over the whole source tree.
func Encode(ctx context.Context, opts Options) error {
	if err := opts.check(config.StageEncode); err != nil {
		return err
	}
	jobs, err := collectEncode(&opts)
	if err != nil {
		return opts.finish(err)
	}
	return opts.finish(opts.run(ctx, jobs, true))
}

// EncodeFiles runs the encode pass over the named files only. Each output
// path is computed relative to the source root, so every file must live
// below it.
func EncodeFiles(ctx context.Context, opts Options, files []string) error {
	if err := opts.check(config.StageEncode); err != nil {
		return err
	}
	jobs, err := encodeJobs(opts.Config, files)
	if err != nil {
		return opts.finish(err)
	}
	return opts.finish(opts.run(ctx, jobs, false))
}

// Decode runs the decode pass over the whole translated tree.
func Decode(ctx context.Context, opts Options) error {
	if err := opts.check(config.StageDecode); err != nil {
		return err
	}
	jobs, err := collectDecode(&opts)
	if err != nil {
		return opts.finish(err)
	}
	return opts.finish(opts.run(ctx, jobs, true))
}

func (o *Options) check(stage config.Stage) error {
	if o.Config == nil {
		return fmt.Errorf("pipeline: no configuration")
	}
	if o.Config.Stage != stage {
		return fmt.Errorf("pipeline: configuration is for stage %q, not %q", o.Config.Stage, stage)
	}
	if o.Log == nil {
		return fmt.Errorf("pipeline: no run log")
	}
	if o.Detector == nil {
		o.Detector = charset.NewChardetDetector()
	}
	return nil
}

// finish writes the summary and decides the run's final error.
func (o *Options) finish(err error) error {
	o.Log.Summary()
	if err != nil {
		o.Log.Error("%v", err)
		return err
	}
	s := o.Log.Stats()
	if o.Strict && s.Processed == 0 && s.Unchanged == 0 {
		return ErrNoFiles
	}
	return nil
}

// run processes jobs on the worker pool. With full set, lock entries of
// inputs that no longer exist are dropped before the lock file is saved.
func (o *Options) run(ctx context.Context, jobs []job, full bool) error {
	stage := string(o.Config.Stage)
	err := runParallel(ctx, jobs, o.Config.Jobs, func(ctx context.Context, j job) error {
		return o.process(j)
	})
	if err != nil {
		return err
	}

	if o.Lock == nil || o.DryRun {
		return nil
	}
	if full {
		keys := make([]string, len(jobs))
		for i, j := range jobs {
			keys[i] = j.key
		}
		o.Lock.Clean(stage, keys)
	}
	return o.Lock.Save()
}

// process runs one document end to end.
func (o *Options) process(j job) error {
	cfg := o.Config
	stage := string(cfg.Stage)

	raw, err := os.ReadFile(j.src)
	if err != nil {
		return fmt.Errorf("reading %s: %w", j.src, err)
	}

	srcLabel, dstLabel := o.label(j.src), o.label(j.dst)
	if o.Lock != nil && !o.Lock.IsChanged(stage, j.key, raw) && fileExists(j.dst) {
		o.Log.Update(func(s *runlog.Stats) { s.Unchanged++ })
		o.Log.File(runlog.FileEntry{Status: runlog.StatusUnchanged, Src: srcLabel})
		return nil
	}

	res := charset.Normalize(raw, o.Detector)

	var out string
	var ch markup.Changes
	tidied := false
	switch cfg.Stage {
	case config.StageEncode:
		text := markup.Tidy(res.Text, cfg.ExpandTabs)
		tidied = text != res.Text
		p := markup.NewProtector()
		p.ApostropheGuard = cfg.ApostropheGuard
		out, ch = p.Protect(text)
	default:
		out, ch = markup.Restore(res.Text)
	}

	if !o.DryRun {
		if err := writeAtomic(j.dst, []byte(out)); err != nil {
			return err
		}
	}
	if o.Lock != nil && !o.DryRun {
		o.Lock.Update(stage, j.key, raw)
	}

	o.Log.Update(func(s *runlog.Stats) {
		s.Processed++
		s.Bytes += int64(len(out))
		if res.Fallback {
			s.Errors++
		}
		if tidied {
			s.Normalized++
		}
		s.Spans += ch.Spans
		s.Roles += ch.Roles
		s.Tokens += ch.Tokens
		if cfg.Stage == config.StageDecode {
			s.SkippedReverts += ch.Skipped
			if out != res.Text {
				s.Restored++
			}
			if j.lang != "" {
				s.Langs[j.lang]++
			}
		}
	})

	e := runlog.FileEntry{
		Status:     runlog.StatusOK,
		Src:        srcLabel,
		Dst:        dstLabel,
		Charset:    res.Charset,
		Confidence: res.Confidence,
	}
	if res.Fallback {
		e.Status = runlog.StatusFallback
		if res.Err != nil {
			e.Reason = res.Err.Error()
		}
	}
	o.Log.File(e)
	return nil
}

// label shortens p to a path relative to the project root for log lines.
func (o *Options) label(p string) string {
	return relLabel(o.Config.Root, p)
}

// skip records a document left out by path filtering.
func (o *Options) skip(rel, reason string) {
	o.Log.Update(func(s *runlog.Stats) { s.SkippedPaths++ })
	o.Log.File(runlog.FileEntry{Status: runlog.StatusSkipped, Src: rel, Reason: reason})
}
