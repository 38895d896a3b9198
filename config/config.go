package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/minios-linux/adocguard/pathmap"
)

// Stage names one side of the translation step.
type Stage string

const (
	// StageEncode protects markup before translation.
	StageEncode Stage = "encode"
	// StageDecode restores markup after translation.
	StageDecode Stage = "decode"
)

// ErrUnknownStage is returned for a stage other than encode or decode.
var ErrUnknownStage = errors.New("unknown stage")

// Default roots per stage.
const (
	DefaultEncodeSrc = "source"
	DefaultEncodeDst = "processed"
	DefaultDecodeSrc = "translated"
	DefaultDecodeDst = "final"
	DefaultLogDir    = "logs"
	DefaultRunID     = "local"
)

// Environment variables read by Load.
const (
	EnvSrcDir      = "SRC_DIR"
	EnvDstDir      = "DST_DIR"
	EnvLogDir      = "LOG_DIR"
	EnvRunID       = "RUN_ID"
	EnvGitHubRunID = "GITHUB_RUN_ID"
	EnvJobs        = "ADOCGUARD_JOBS"
)

// Config is the resolved configuration of one run.
type Config struct {
	Stage Stage
	// Root is the project directory; relative paths resolve against it.
	Root   string
	SrcDir string
	DstDir string
	LogDir string
	RunID  string
	Jobs   int

	ExpandTabs      bool
	ApostropheGuard bool
	// Exclude is the directory block list for fallback scans.
	Exclude []string
}

// Load resolves the configuration for stage from defaults, the optional
// .adocguard.yaml in root, and the environment, in increasing precedence.
func Load(root string, stage Stage) (*Config, error) {
	c := &Config{
		Stage:           stage,
		Root:            root,
		LogDir:          DefaultLogDir,
		RunID:           DefaultRunID,
		Jobs:            1,
		ExpandTabs:      true,
		ApostropheGuard: true,
		Exclude:         append([]string(nil), pathmap.DefaultExclude...),
	}
	switch stage {
	case StageEncode:
		c.SrcDir, c.DstDir = DefaultEncodeSrc, DefaultEncodeDst
	case StageDecode:
		c.SrcDir, c.DstDir = DefaultDecodeSrc, DefaultDecodeDst
	default:
		return nil, fmt.Errorf("%w: %q (valid: encode, decode)", ErrUnknownStage, stage)
	}

	af, err := LoadAdocFile(root)
	if err != nil {
		return nil, err
	}
	if af != nil {
		c.applyFile(af)
	}

	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyFile(af *AdocFile) {
	dirs := af.Encode
	if c.Stage == StageDecode {
		dirs = af.Decode
	}
	if dirs.Src != "" {
		c.SrcDir = dirs.Src
	}
	if dirs.Dst != "" {
		c.DstDir = dirs.Dst
	}
	if af.LogDir != "" {
		c.LogDir = af.LogDir
	}
	if af.RunID != "" {
		c.RunID = af.RunID
	}
	if af.Jobs > 0 {
		c.Jobs = af.Jobs
	}
	if af.ExpandTabs != nil {
		c.ExpandTabs = *af.ExpandTabs
	}
	if af.ApostropheGuard != nil {
		c.ApostropheGuard = *af.ApostropheGuard
	}
	if len(af.Exclude) > 0 {
		c.Exclude = append([]string(nil), af.Exclude...)
	}
}

func (c *Config) applyEnv() error {
	if v := strings.TrimSpace(os.Getenv(EnvSrcDir)); v != "" {
		c.SrcDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvDstDir)); v != "" {
		c.DstDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvLogDir)); v != "" {
		c.LogDir = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvRunID)); v != "" {
		c.RunID = v
	} else if v := strings.TrimSpace(os.Getenv(EnvGitHubRunID)); v != "" {
		c.RunID = v
	}
	if v := strings.TrimSpace(os.Getenv(EnvJobs)); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return fmt.Errorf("%s: must be a positive integer, got %q", EnvJobs, v)
		}
		c.Jobs = n
	}
	return nil
}

// Path resolves p against the project root unless it is absolute.
func (c *Config) Path(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.Root, p)
}

// SrcPath returns the resolved source root.
func (c *Config) SrcPath() string { return c.Path(c.SrcDir) }

// DstPath returns the resolved destination root.
func (c *Config) DstPath() string { return c.Path(c.DstDir) }

// LogPath returns the resolved log directory.
func (c *Config) LogPath() string { return c.Path(c.LogDir) }
