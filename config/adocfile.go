// Package config resolves run settings from .adocguard.yaml and the environment.
//
// The file is optional. When present in the project root it overrides the
// built-in defaults; environment variables and command-line flags override
// the file in turn.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// ---------------------------------------------------------------------------
// YAML schema
// ---------------------------------------------------------------------------

// FileName is the default config file name.
const FileName = ".adocguard.yaml"

// AdocFile is the top-level .adocguard.yaml structure.
type AdocFile struct {
	// Encode holds the source and destination roots of the encode stage.
	Encode Dirs `yaml:"encode,omitempty"`
	// Decode holds the source and destination roots of the decode stage.
	Decode Dirs `yaml:"decode,omitempty"`
	// LogDir is where run log files are written (default "logs").
	LogDir string `yaml:"log_dir,omitempty"`
	// RunID tags log file names (default "local").
	RunID string `yaml:"run_id,omitempty"`
	// Jobs is the number of files processed in parallel. 0 means the
	// default of 1.
	Jobs int `yaml:"jobs,omitempty"`
	// ExpandTabs turns tabs into four spaces before encoding (default true).
	ExpandTabs *bool `yaml:"expand_tabs,omitempty"`
	// ApostropheGuard skips backticks used as apostrophes (default true).
	ApostropheGuard *bool `yaml:"apostrophe_guard,omitempty"`
	// Exclude replaces the directory block list of fallback scans.
	Exclude []string `yaml:"exclude,omitempty"`
}

// Dirs is a source/destination root pair.
type Dirs struct {
	Src string `yaml:"src,omitempty"`
	Dst string `yaml:"dst,omitempty"`
}

// ---------------------------------------------------------------------------
// Loading
// ---------------------------------------------------------------------------

// LoadAdocFile loads and validates .adocguard.yaml from the given directory.
// Returns nil if no .adocguard.yaml exists.
func LoadAdocFile(rootDir string) (*AdocFile, error) {
	path := filepath.Join(rootDir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var af AdocFile
	if err := yaml.Unmarshal(data, &af); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if af.Jobs < 0 {
		return nil, fmt.Errorf("%s: jobs must not be negative, got %d", path, af.Jobs)
	}
	for _, d := range []struct {
		name string
		dirs Dirs
	}{{"encode", af.Encode}, {"decode", af.Decode}} {
		if d.dirs.Src != "" && d.dirs.Src == d.dirs.Dst {
			return nil, fmt.Errorf("%s: %s src and dst are both %q", path, d.name, d.dirs.Src)
		}
	}

	return &af, nil
}

// Save writes af as .adocguard.yaml into rootDir.
func (af *AdocFile) Save(rootDir string) error {
	data, err := yaml.Marshal(af)
	if err != nil {
		return fmt.Errorf("marshaling %s: %w", FileName, err)
	}
	path := filepath.Join(rootDir, FileName)
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}
