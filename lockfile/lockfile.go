// Package lockfile implements adocguard.lock, a lock file that tracks MD5
// checksums of input documents per stage. With incremental runs enabled a
// document whose bytes match the recorded checksum, and whose output is
// still present, is not processed again.
//
// The lock file is stored in the project root as adocguard.lock.
package lockfile

import (
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

// LockFileName is the default lock file name.
const LockFileName = "adocguard.lock"

// Version is the lock file format version.
const Version = 1

// ---------------------------------------------------------------------------
// Types
// ---------------------------------------------------------------------------

// LockFile represents the adocguard.lock file structure.
type LockFile struct {
	Version   int                          `yaml:"version"`
	Checksums map[string]map[string]string `yaml:"checksums"` // stage -> relpath -> md5

	mu   sync.Mutex `yaml:"-"`
	path string     `yaml:"-"`
}

// ---------------------------------------------------------------------------
// Loading and saving
// ---------------------------------------------------------------------------

// Load reads a lock file from the given directory.
// Returns an empty lock file if the file doesn't exist.
func Load(dir string) (*LockFile, error) {
	path := filepath.Join(dir, LockFileName)
	lf := &LockFile{
		Version:   Version,
		Checksums: make(map[string]map[string]string),
		path:      path,
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return lf, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, lf); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	lf.path = path
	if lf.Version > Version {
		return nil, fmt.Errorf("%s: unsupported version %d (max %d)", path, lf.Version, Version)
	}

	if lf.Checksums == nil {
		lf.Checksums = make(map[string]map[string]string)
	}

	return lf, nil
}

// Save writes the lock file to disk.
func (lf *LockFile) Save() error {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.path == "" {
		return fmt.Errorf("lock file path not set")
	}

	data, err := yaml.Marshal(lf)
	if err != nil {
		return fmt.Errorf("marshaling lock file: %w", err)
	}

	if err := os.WriteFile(lf.path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", lf.path, err)
	}

	return nil
}

// Path returns the lock file path.
func (lf *LockFile) Path() string {
	return lf.path
}

// ---------------------------------------------------------------------------
// Checksum operations
// ---------------------------------------------------------------------------

// Hash computes the MD5 hex digest of raw document bytes.
func Hash(data []byte) string {
	return fmt.Sprintf("%x", md5.Sum(data))
}

// Key normalizes a document path relative to its stage root.
func Key(relPath string) string {
	return filepath.ToSlash(filepath.Clean(relPath))
}

// IsChanged reports whether the document at key is new for stage or its
// content differs from the recorded checksum.
func (lf *LockFile) IsChanged(stage, key string, data []byte) bool {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	keys, ok := lf.Checksums[stage]
	if !ok {
		return true
	}
	oldHash, ok := keys[key]
	if !ok {
		return true
	}
	return oldHash != Hash(data)
}

// Update records the checksum of a document after it was written.
func (lf *LockFile) Update(stage, key string, data []byte) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	if lf.Checksums[stage] == nil {
		lf.Checksums[stage] = make(map[string]string)
	}
	lf.Checksums[stage][key] = Hash(data)
}

// Clean removes entries of stage that are no longer present in
// currentKeys. This prevents stale entries from accumulating.
func (lf *LockFile) Clean(stage string, currentKeys []string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	existing := lf.Checksums[stage]
	if existing == nil {
		return
	}

	valid := make(map[string]bool, len(currentKeys))
	for _, k := range currentKeys {
		valid[k] = true
	}

	for k := range existing {
		if !valid[k] {
			delete(existing, k)
		}
	}
	if len(existing) == 0 {
		delete(lf.Checksums, stage)
	}
}

// RemoveStage removes all checksums for a stage.
func (lf *LockFile) RemoveStage(stage string) {
	lf.mu.Lock()
	defer lf.mu.Unlock()
	delete(lf.Checksums, stage)
}

// ---------------------------------------------------------------------------
// Stats
// ---------------------------------------------------------------------------

// Stats returns the number of stages and total documents in the lock file.
func (lf *LockFile) Stats() (stages, keys int) {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	stages = len(lf.Checksums)
	for _, m := range lf.Checksums {
		keys += len(m)
	}
	return
}

// Stages returns the sorted list of stages with recorded checksums.
func (lf *LockFile) Stages() []string {
	lf.mu.Lock()
	defer lf.mu.Unlock()

	stages := make([]string, 0, len(lf.Checksums))
	for s := range lf.Checksums {
		stages = append(stages, s)
	}
	sort.Strings(stages)
	return stages
}

// Summary returns a human-readable summary string.
func (lf *LockFile) Summary() string {
	stages, keys := lf.Stats()
	if stages == 0 {
		return "empty"
	}

	var parts []string
	for _, s := range lf.Stages() {
		lf.mu.Lock()
		n := len(lf.Checksums[s])
		lf.mu.Unlock()
		parts = append(parts, fmt.Sprintf("%s: %d files", s, n))
	}
	return fmt.Sprintf("%d stages, %d files (%s)", stages, keys, strings.Join(parts, ", "))
}
