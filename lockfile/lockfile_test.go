package lockfile

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newLock() *LockFile {
	return &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
	}
}

func TestHashDeterministic(t *testing.T) {
	h1 := Hash([]byte("= Title\n"))
	h2 := Hash([]byte("= Title\n"))
	if h1 != h2 {
		t.Errorf("Hash not deterministic: %s != %s", h1, h2)
	}
	if h3 := Hash([]byte("= Other\n")); h1 == h3 {
		t.Errorf("Hash collision: %s == %s", h1, h3)
	}
	if got := Hash(nil); got != "d41d8cd98f00b204e9800998ecf8427e" {
		t.Errorf("Hash(nil) = %s", got)
	}
}

func TestKey(t *testing.T) {
	if got := Key("docs/./modules/en/../en/a.adoc"); got != "docs/modules/en/a.adoc" {
		t.Errorf("Key() = %q", got)
	}
}

func TestLoadNonExistent(t *testing.T) {
	lf, err := Load(t.TempDir())
	if err != nil {
		t.Fatalf("Load returned error for non-existent file: %v", err)
	}
	if lf.Version != Version {
		t.Errorf("Version = %d, want %d", lf.Version, Version)
	}
	if len(lf.Checksums) != 0 {
		t.Errorf("Checksums not empty: %v", lf.Checksums)
	}
}

func TestSaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	lf, err := Load(dir)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	lf.Update("encode", "docs/a.adoc", []byte("a"))
	lf.Update("encode", "docs/b.adoc", []byte("b"))
	lf.Update("decode", "fr_fr/docs/a.adoc", []byte("a"))

	if err := lf.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	path := filepath.Join(dir, LockFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatalf("Lock file not created at %s", path)
	}

	lf2, err := Load(dir)
	if err != nil {
		t.Fatalf("Load after save: %v", err)
	}

	stages, keys := lf2.Stats()
	if stages != 2 {
		t.Errorf("stages = %d, want 2", stages)
	}
	if keys != 3 {
		t.Errorf("keys = %d, want 3", keys)
	}
	if lf2.IsChanged("encode", "docs/b.adoc", []byte("b")) {
		t.Error("reloaded checksum should match")
	}
}

func TestLoadRejectsNewerVersion(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, LockFileName), []byte("version: 9\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(dir); err == nil || !strings.Contains(err.Error(), "unsupported version") {
		t.Fatalf("Load() error = %v", err)
	}
}

func TestIsChanged(t *testing.T) {
	lf := newLock()
	data := []byte("Run `make`.\n")

	if !lf.IsChanged("encode", "a.adoc", data) {
		t.Error("new entry should be changed")
	}

	lf.Update("encode", "a.adoc", data)
	if lf.IsChanged("encode", "a.adoc", data) {
		t.Error("unchanged entry should not be changed")
	}

	if !lf.IsChanged("encode", "a.adoc", []byte("Run `make all`.\n")) {
		t.Error("modified entry should be changed")
	}

	if !lf.IsChanged("decode", "a.adoc", data) {
		t.Error("different stage should be changed")
	}
}

func TestClean(t *testing.T) {
	lf := newLock()
	lf.Update("encode", "a.adoc", []byte("a"))
	lf.Update("encode", "b.adoc", []byte("b"))
	lf.Update("encode", "gone.adoc", []byte("x"))

	lf.Clean("encode", []string{"a.adoc", "b.adoc"})

	if lf.IsChanged("encode", "a.adoc", []byte("a")) {
		t.Error("a.adoc should still be tracked")
	}
	if !lf.IsChanged("encode", "gone.adoc", []byte("x")) {
		t.Error("gone.adoc should be removed by Clean")
	}

	lf.Clean("encode", nil)
	if stages, _ := lf.Stats(); stages != 0 {
		t.Errorf("stages after emptying Clean = %d, want 0", stages)
	}
}

func TestRemoveStage(t *testing.T) {
	lf := newLock()
	lf.Update("decode", "a.adoc", []byte("a"))
	lf.RemoveStage("decode")

	if stages, _ := lf.Stats(); stages != 0 {
		t.Errorf("stages after RemoveStage = %d, want 0", stages)
	}
}

func TestStages(t *testing.T) {
	lf := newLock()
	lf.Update("encode", "a.adoc", []byte("a"))
	lf.Update("decode", "a.adoc", []byte("a"))

	got := lf.Stages()
	if len(got) != 2 || got[0] != "decode" || got[1] != "encode" {
		t.Errorf("Stages() = %v, want [decode encode]", got)
	}
}

func TestSummary(t *testing.T) {
	lf := newLock()
	if lf.Summary() != "empty" {
		t.Errorf("empty summary = %q, want %q", lf.Summary(), "empty")
	}

	lf.Update("encode", "a.adoc", []byte("a"))
	lf.Update("encode", "b.adoc", []byte("b"))
	lf.Update("decode", "a.adoc", []byte("a"))
	want := "2 stages, 3 files (decode: 1 files, encode: 2 files)"
	if got := lf.Summary(); got != want {
		t.Errorf("Summary() = %q, want %q", got, want)
	}
}

func TestConcurrentAccess(t *testing.T) {
	lf := newLock()

	done := make(chan bool, 10)
	for i := 0; i < 10; i++ {
		go func(n int) {
			key := "doc" + string(rune('0'+n)) + ".adoc"
			lf.Update("encode", key, []byte("value"))
			lf.IsChanged("encode", key, []byte("value"))
			lf.Stats()
			done <- true
		}(i)
	}
	for i := 0; i < 10; i++ {
		<-done
	}

	_, keys := lf.Stats()
	if keys != 10 {
		t.Errorf("keys after concurrent writes = %d, want 10", keys)
	}
}
