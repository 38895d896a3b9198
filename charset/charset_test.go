package charset

import (
	"errors"
	"strings"
	"testing"
)

func fixed(name string, conf float64) Detector {
	return DetectorFunc(func([]byte) (string, float64, error) { return name, conf, nil })
}

func TestNormalizeDetectedCharset(t *testing.T) {
	res := Normalize([]byte("caf\xe9\r\nna\xefve\r"), fixed("windows-1252", 0.73))
	if res.Fallback {
		t.Fatalf("Fallback = true, err = %v", res.Err)
	}
	if want := "café\nnaïve\n"; res.Text != want {
		t.Fatalf("Text = %q, want %q", res.Text, want)
	}
	if res.Charset != "windows-1252" || res.Confidence != 0.73 {
		t.Fatalf("Charset/Confidence = %q/%v", res.Charset, res.Confidence)
	}
}

func TestNormalizeUnknownCharsetFallsBack(t *testing.T) {
	res := Normalize([]byte("ok \xff end"), fixed("x-klingon", 0.2))
	if !res.Fallback {
		t.Fatal("Fallback = false, want true")
	}
	if !errors.Is(res.Err, ErrUnknownCharset) {
		t.Fatalf("Err = %v, want ErrUnknownCharset", res.Err)
	}
	if want := "ok � end"; res.Text != want {
		t.Fatalf("Text = %q, want %q", res.Text, want)
	}
}

func TestNormalizeInvalidUTF8FallsBack(t *testing.T) {
	res := Normalize([]byte("a\xff\xfeb"), fixed("UTF-8", 0.9))
	if !res.Fallback || !errors.Is(res.Err, ErrInvalidBytes) {
		t.Fatalf("Fallback = %v, Err = %v", res.Fallback, res.Err)
	}
	if want := "a��b"; res.Text != want {
		t.Fatalf("Text = %q, want %q", res.Text, want)
	}
}

func TestNormalizeDetectorError(t *testing.T) {
	det := DetectorFunc(func([]byte) (string, float64, error) { return "", 0, errors.New("no idea") })
	res := Normalize([]byte("plain"), det)
	if res.Fallback || res.Charset != DefaultCharset || res.Text != "plain" {
		t.Fatalf("Normalize() = %+v", res)
	}
}

func TestDecodeStripsBOM(t *testing.T) {
	got, err := Decode([]byte("\xef\xbb\xbf= Title\n"), "UTF-8")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got != "= Title\n" {
		t.Fatalf("Decode() = %q", got)
	}
}

func TestDecodeUTF16(t *testing.T) {
	got, err := Decode([]byte{'h', 0, 'i', 0}, "UTF-16LE")
	if err != nil {
		t.Fatalf("Decode() error: %v", err)
	}
	if got != "hi" {
		t.Fatalf("Decode() = %q, want %q", got, "hi")
	}
}

func TestDecodeLossy(t *testing.T) {
	if got := DecodeLossy([]byte("ä\x80z")); got != "ä�z" {
		t.Fatalf("DecodeLossy() = %q", got)
	}
}

func TestChardetDetector(t *testing.T) {
	det := NewChardetDetector()

	name, conf, err := det.Detect(nil)
	if err != nil || name != DefaultCharset || conf != 1 {
		t.Fatalf("Detect(nil) = %q, %v, %v", name, conf, err)
	}

	text := strings.Repeat("Grüße aus Köln, schöne Straße, Übergrößen.\n", 8)
	name, conf, err = det.Detect([]byte(text))
	if err != nil {
		t.Fatalf("Detect() error: %v", err)
	}
	if !strings.EqualFold(name, "UTF-8") {
		t.Fatalf("Detect() charset = %q, want UTF-8", name)
	}
	if conf <= 0 || conf > 1 {
		t.Fatalf("Detect() confidence = %v, want (0, 1]", conf)
	}

	res := Normalize([]byte(text), det)
	if res.Fallback || res.Text != text {
		t.Fatalf("Normalize() fallback=%v text mismatch", res.Fallback)
	}
}
