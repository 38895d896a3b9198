// Package runlog records one pipeline run: colored console messages, an
// append-only UTF-8 log file under the log directory, and the counters
// summarized when the run ends.
//
// A Log is safe for concurrent use; every write to the console, the file
// and the counters is serialized.
package runlog

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/minios-linux/adocguard/langmeta"
)

// Level is the severity of a log line.
type Level int

const (
	LevelInfo Level = iota
	LevelOK
	LevelWarn
	LevelError
)

func (l Level) tag() string {
	switch l {
	case LevelOK:
		return "[OK]"
	case LevelWarn:
		return "[WARN]"
	case LevelError:
		return "[ERROR]"
	default:
		return "[INFO]"
	}
}

var levelColors = map[Level]*color.Color{
	LevelInfo:  color.New(color.FgBlue),
	LevelOK:    color.New(color.FgGreen),
	LevelWarn:  color.New(color.FgYellow, color.Bold),
	LevelError: color.New(color.FgRed),
}

// Colorize renders the level tag in its console color.
func (l Level) Colorize() string {
	return levelColors[l].Sprint(l.tag())
}

// Stats holds the counters of one run.
type Stats struct {
	// Processed counts files written (or that would be, in a dry run).
	Processed int
	// Errors counts files decoded through the lossy UTF-8 fallback.
	Errors int
	// Normalized counts files changed by whitespace tidying.
	Normalized int
	// Spans, Roles and Tokens count markup rewrites.
	Spans  int
	Roles  int
	Tokens int
	// Restored counts decoded files that differed from their input.
	Restored int
	// SkippedReverts counts marker-wrapped spans left in place.
	SkippedReverts int
	// SkippedPaths counts files left out by path filtering.
	SkippedPaths int
	// Unchanged counts inputs skipped by incremental mode.
	Unchanged int
	// Bytes is the total size of the output written.
	Bytes int64
	// Langs counts written files per language code.
	Langs map[string]int
}

// FileStatus classifies a per-file log line.
type FileStatus string

const (
	StatusOK        FileStatus = "ok"
	StatusFallback  FileStatus = "fallback"
	StatusSkipped   FileStatus = "skipped"
	StatusUnchanged FileStatus = "unchanged"
)

// FileEntry is one processed file.
type FileEntry struct {
	Status     FileStatus
	Src        string
	Dst        string
	Charset    string
	Confidence float64
	// Reason is shown for skipped and fallback files.
	Reason string
}

// Log is the sink for one run.
type Log struct {
	mu      sync.Mutex
	file    *os.File
	path    string
	console io.Writer
	stage   string
	runID   string
	started time.Time
	now     func() time.Time
	stats   Stats
}

// FileName builds the log file name for a run.
func FileName(stage, runID string, ts time.Time) string {
	return fmt.Sprintf("%s_log_%s_%s.txt", stage, ts.Format("20060102_150405"), sanitize(runID))
}

func sanitize(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "local"
	}
	return strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' || r == ':' || r == ' ' {
			return '_'
		}
		return r
	}, s)
}

// Open creates the log directory and starts a new log file for the run.
// Console output goes to console; pass nil to silence it.
func Open(dir, stage, runID string, console io.Writer) (*Log, error) {
	if console == nil {
		console = io.Discard
	}
	l := &Log{console: console, stage: stage, runID: sanitize(runID), now: time.Now}
	l.started = l.now()
	l.stats.Langs = make(map[string]int)

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating log directory %s: %w", dir, err)
	}
	l.path = filepath.Join(dir, FileName(stage, runID, l.started))
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", l.path, err)
	}
	l.file = f

	l.write(LevelInfo, fmt.Sprintf("%s started: %s (run %s)", cases.Title(language.English).String(stage), l.started.Format(time.RFC3339), l.runID))
	return l, nil
}

// Path returns the log file path.
func (l *Log) Path() string {
	return l.path
}

// write emits one line to the console (colored) and to the log file
// (plain). Callers must not hold l.mu.
func (l *Log) write(level Level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.writeLocked(level, msg)
}

func (l *Log) writeLocked(level Level, msg string) {
	fmt.Fprintf(l.console, "%s %s\n", level.Colorize(), msg)
	if l.file != nil {
		fmt.Fprintf(l.file, "%s %s\n", level.tag(), msg)
	}
}

func (l *Log) Info(format string, args ...any)    { l.write(LevelInfo, fmt.Sprintf(format, args...)) }
func (l *Log) Success(format string, args ...any) { l.write(LevelOK, fmt.Sprintf(format, args...)) }
func (l *Log) Warn(format string, args ...any)    { l.write(LevelWarn, fmt.Sprintf(format, args...)) }
func (l *Log) Error(format string, args ...any)   { l.write(LevelError, fmt.Sprintf(format, args...)) }

// File records one per-file line.
func (l *Log) File(e FileEntry) {
	var level Level
	var msg string
	switch e.Status {
	case StatusFallback:
		level = LevelWarn
		msg = fmt.Sprintf("%s could not be decoded as %s, forced UTF-8 replacement -> %s", e.Src, e.Charset, e.Dst)
		if e.Reason != "" {
			msg += " (" + e.Reason + ")"
		}
	case StatusSkipped:
		level = LevelInfo
		msg = fmt.Sprintf("%s skipped", e.Src)
		if e.Reason != "" {
			msg += ": " + e.Reason
		}
	case StatusUnchanged:
		level = LevelInfo
		msg = fmt.Sprintf("%s unchanged since last run", e.Src)
	default:
		level = LevelOK
		msg = fmt.Sprintf("%s -> %s (%s, %.2f)", e.Src, e.Dst, e.Charset, e.Confidence)
	}
	l.write(level, msg)
}

// Update applies fn to the counters under the log's lock.
func (l *Log) Update(fn func(s *Stats)) {
	l.mu.Lock()
	defer l.mu.Unlock()
	fn(&l.stats)
}

// Stats returns a copy of the current counters.
func (l *Log) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.stats
	s.Langs = make(map[string]int, len(l.stats.Langs))
	for k, v := range l.stats.Langs {
		s.Langs[k] = v
	}
	return s
}

// Summary writes the trailing summary block.
func (l *Log) Summary() {
	l.mu.Lock()
	defer l.mu.Unlock()

	s := l.stats
	l.writeLocked(LevelInfo, "Summary:")
	l.writeLocked(LevelInfo, fmt.Sprintf("  Processed:          %d (%s written)", s.Processed, humanize.Bytes(uint64(s.Bytes))))
	l.writeLocked(LevelInfo, fmt.Sprintf("  Encoding errors:    %d", s.Errors))
	switch l.stage {
	case "encode":
		l.writeLocked(LevelInfo, fmt.Sprintf("  Normalized files:   %d", s.Normalized))
		l.writeLocked(LevelInfo, fmt.Sprintf("  Protected spans:    %d", s.Spans))
		l.writeLocked(LevelInfo, fmt.Sprintf("  Literal roles:      %d", s.Roles))
	default:
		l.writeLocked(LevelInfo, fmt.Sprintf("  Restored files:     %d", s.Restored))
		l.writeLocked(LevelInfo, fmt.Sprintf("  Restored spans:     %d", s.Spans))
		l.writeLocked(LevelInfo, fmt.Sprintf("  Stray tokens:       %d", s.Tokens))
		l.writeLocked(LevelInfo, fmt.Sprintf("  Monospaced roles:   %d", s.Roles))
		l.writeLocked(LevelInfo, fmt.Sprintf("  Skipped reverts:    %d", s.SkippedReverts))
	}
	if s.SkippedPaths > 0 {
		l.writeLocked(LevelInfo, fmt.Sprintf("  Skipped paths:      %d", s.SkippedPaths))
	}
	if s.Unchanged > 0 {
		l.writeLocked(LevelInfo, fmt.Sprintf("  Unchanged:          %d", s.Unchanged))
	}

	if len(s.Langs) > 0 {
		langs := make([]string, 0, len(s.Langs))
		for lang := range s.Langs {
			langs = append(langs, lang)
		}
		sort.Strings(langs)
		for _, lang := range langs {
			m := langmeta.Resolve(lang)
			l.writeLocked(LevelInfo, fmt.Sprintf("  %s %-4s %-20s %d", m.Flag, lang, m.Name, s.Langs[lang]))
		}
	}

	if s.Processed == 0 && s.Unchanged == 0 {
		l.writeLocked(LevelWarn, "No .adoc files matched")
	}

	end := l.now()
	l.writeLocked(LevelInfo, fmt.Sprintf("Completed: %s (took %s)", end.Format(time.RFC3339), end.Sub(l.started).Round(time.Millisecond)))
}

// Close closes the log file.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	return err
}
