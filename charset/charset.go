// Package charset turns raw document bytes into LF-normalized UTF-8 text.
//
// The charset is guessed by a Detector (chardet by default) and decoded with
// golang.org/x/text. When the guess cannot be decoded the bytes are read as
// UTF-8 with every invalid byte replaced by U+FFFD, so Normalize always
// returns some text.
package charset

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/encoding/unicode/utf32"
)

// DefaultCharset is assumed when detection gives no answer.
const DefaultCharset = "utf-8"

// Detector guesses the charset of raw bytes. Confidence is in [0, 1].
type Detector interface {
	Detect(raw []byte) (charset string, confidence float64, err error)
}

// DetectorFunc adapts a function to the Detector interface.
type DetectorFunc func(raw []byte) (string, float64, error)

// Detect calls f(raw).
func (f DetectorFunc) Detect(raw []byte) (string, float64, error) { return f(raw) }

// ChardetDetector detects charsets with github.com/saintfish/chardet.
// It is safe for concurrent use.
type ChardetDetector struct {
	mu sync.Mutex
	d  *chardet.Detector
}

// NewChardetDetector returns a text-mode chardet detector.
func NewChardetDetector() *ChardetDetector {
	return &ChardetDetector{d: chardet.NewTextDetector()}
}

// Detect returns chardet's best guess.
func (c *ChardetDetector) Detect(raw []byte) (string, float64, error) {
	if len(raw) == 0 {
		return DefaultCharset, 1, nil
	}
	c.mu.Lock()
	res, err := c.d.DetectBest(raw)
	c.mu.Unlock()
	if err != nil {
		return "", 0, fmt.Errorf("detecting charset: %w", err)
	}
	return res.Charset, float64(res.Confidence) / 100, nil
}

// Result is the outcome of Normalize.
type Result struct {
	Text       string
	Charset    string
	Confidence float64
	// Fallback is set when the detected charset could not be used and the
	// text was decoded as lossy UTF-8.
	Fallback bool
	// Err explains why the fallback was taken.
	Err error
}

// ErrUnknownCharset is reported when no decoder exists for a charset name.
var ErrUnknownCharset = errors.New("unknown charset")

// ErrInvalidBytes is reported when the bytes are not valid in the charset.
var ErrInvalidBytes = errors.New("invalid byte sequence")

// Normalize decodes raw with the charset reported by det and converts every
// line ending to LF. It never fails; decoding problems are recorded in the
// Result instead.
func Normalize(raw []byte, det Detector) Result {
	name, conf, err := det.Detect(raw)
	if err != nil || strings.TrimSpace(name) == "" {
		name = DefaultCharset
	}

	res := Result{Charset: name, Confidence: conf}
	text, err := Decode(raw, name)
	if err != nil {
		res.Fallback = true
		res.Err = err
		text = DecodeLossy(raw)
	}
	res.Text = normalizeNewlines(text)
	return res
}

// Decode decodes raw in the named charset.
func Decode(raw []byte, name string) (string, error) {
	if isUTF8(name) {
		if !utf8.Valid(raw) {
			return "", fmt.Errorf("%s: %w", name, ErrInvalidBytes)
		}
		return string(bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))), nil
	}

	enc, err := lookup(name)
	if err != nil {
		return "", err
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", fmt.Errorf("decoding %s: %w", name, err)
	}
	return string(out), nil
}

// DecodeLossy reads raw as UTF-8, replacing each invalid byte with U+FFFD.
func DecodeLossy(raw []byte) string {
	var b strings.Builder
	b.Grow(len(raw))
	for len(raw) > 0 {
		r, size := utf8.DecodeRune(raw)
		if r == utf8.RuneError && size <= 1 {
			b.WriteRune(utf8.RuneError)
			raw = raw[1:]
			continue
		}
		b.Write(raw[:size])
		raw = raw[size:]
	}
	return b.String()
}

func isUTF8(name string) bool {
	switch strings.ToLower(name) {
	case "utf-8", "utf8", "ascii", "us-ascii":
		return true
	}
	return false
}

// aliases maps chardet names that the WHATWG index spells differently.
var aliases = map[string]string{
	"gb-18030":    "gb18030",
	"iso-2022-kr": "replacement",
	"iso-2022-cn": "replacement",
}

func lookup(name string) (encoding.Encoding, error) {
	key := strings.ToLower(name)
	switch key {
	case "utf-32be":
		return utf32.UTF32(utf32.BigEndian, utf32.UseBOM), nil
	case "utf-32le":
		return utf32.UTF32(utf32.LittleEndian, utf32.UseBOM), nil
	case "utf-16be":
		return unicode.UTF16(unicode.BigEndian, unicode.UseBOM), nil
	case "utf-16le":
		return unicode.UTF16(unicode.LittleEndian, unicode.UseBOM), nil
	}
	if a, ok := aliases[key]; ok {
		key = a
	}
	if key == "replacement" {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownCharset)
	}
	enc, err := htmlindex.Get(key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, ErrUnknownCharset)
	}
	return enc, nil
}

func normalizeNewlines(text string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	return strings.ReplaceAll(text, "\r", "\n")
}
