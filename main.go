// adocguard protects inline AsciiDoc markup around machine translation.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/minios-linux/adocguard/config"
	"github.com/minios-linux/adocguard/i18n"
	"github.com/minios-linux/adocguard/langmeta"
	"github.com/minios-linux/adocguard/lockfile"
	"github.com/minios-linux/adocguard/pathmap"
	"github.com/minios-linux/adocguard/pipeline"
	"github.com/minios-linux/adocguard/runlog"
)

// Version information (set via -ldflags during build)
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func logInfo(format string, args ...any) {
	fmt.Fprintf(os.Stderr, runlog.LevelInfo.Colorize()+" "+format+"\n", args...)
}

func logWarning(format string, args ...any) {
	fmt.Fprintf(os.Stderr, runlog.LevelWarn.Colorize()+" "+format+"\n", args...)
}

func logError(format string, args ...any) {
	fmt.Fprintf(os.Stderr, runlog.LevelError.Colorize()+" "+format+"\n", args...)
}

// ---------------------------------------------------------------------------
// Global flag
// ---------------------------------------------------------------------------

var rootDir string

// ---------------------------------------------------------------------------
// Root command
// ---------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "adocguard",
		Short: i18n.T("Protect AsciiDoc inline markup around machine translation"),
		Long: `adocguard protects inline AsciiDoc markup so documents survive a trip
through a machine translation service.

Commands:
  encode   Protect code spans and monospace roles before translation
  decode   Restore markup after translation and map files per language
  map      Show where decode would write translated files
  lock     Show or reset the incremental lock file
  init     Write a .adocguard.yaml with the default settings
  version  Show version information

Configuration is read from .adocguard.yaml in the project root, then from
SRC_DIR, DST_DIR, LOG_DIR, RUN_ID (or GITHUB_RUN_ID) and ADOCGUARD_JOBS,
then from command-line flags.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global persistent flag, inherited by all subcommands
	root.PersistentFlags().StringVar(&rootDir, "root", ".", i18n.T("Project root directory"))

	root.AddCommand(
		newEncodeCmd(),
		newDecodeCmd(),
		newMapCmd(),
		newLockCmd(),
		newInitCmd(),
		newVersionCmd(),
	)

	return root
}

func main() {
	i18n.Init("")
	if err := newRootCmd().Execute(); err != nil {
		logError("%v", err)
		os.Exit(1)
	}
}

// ---------------------------------------------------------------------------
// version (display version information)
// ---------------------------------------------------------------------------

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: i18n.T("Show version information"),
		Long:  `Display version, commit hash, and build date.`,
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "adocguard version %s\n", version)
			fmt.Fprintf(out, "  commit:    %s\n", commit)
			fmt.Fprintf(out, "  built:     %s\n", date)
		},
	}

	return cmd
}

// ---------------------------------------------------------------------------
// encode / decode (pipeline runs)
// ---------------------------------------------------------------------------

// runFlags holds the flags shared by encode and decode. Only flags the user
// set override the resolved configuration.
type runFlags struct {
	src, dst, logDir, runID string
	jobs                    int
	exclude                 []string
	expandTabs              bool
	apostropheGuard         bool
	incremental             bool
	dryRun                  bool
	strict                  bool
}

func (f *runFlags) register(cmd *cobra.Command, stage config.Stage) {
	cmd.Flags().StringVar(&f.src, "src", "", i18n.T("Source directory (or SRC_DIR env var)"))
	cmd.Flags().StringVar(&f.dst, "dst", "", i18n.T("Destination directory (or DST_DIR env var)"))
	cmd.Flags().StringVar(&f.logDir, "log-dir", "", i18n.T("Log directory (or LOG_DIR env var)"))
	cmd.Flags().StringVar(&f.runID, "run-id", "", i18n.T("Run identifier for the log file name (or RUN_ID env var)"))
	cmd.Flags().IntVarP(&f.jobs, "jobs", "j", 1, i18n.T("Files processed in parallel (or ADOCGUARD_JOBS env var)"))
	cmd.Flags().StringSliceVar(&f.exclude, "exclude", nil, i18n.T("Directory names skipped when the source directory is missing"))
	cmd.Flags().BoolVar(&f.incremental, "incremental", false, i18n.T("Skip files unchanged since the last run (uses adocguard.lock)"))
	cmd.Flags().BoolVar(&f.dryRun, "dry-run", false, i18n.T("Process files without writing any output"))
	cmd.Flags().BoolVar(&f.strict, "strict", false, i18n.T("Fail when no .adoc files matched"))

	if stage == config.StageEncode {
		cmd.Flags().BoolVar(&f.expandTabs, "expand-tabs", true, i18n.T("Expand tabs to four spaces before protecting"))
		cmd.Flags().BoolVar(&f.apostropheGuard, "apostrophe-guard", true, i18n.T("Treat a backtick between two letters as an apostrophe"))
	}
}

// apply overrides cfg with the flags the user set.
func (f *runFlags) apply(cmd *cobra.Command, cfg *config.Config) error {
	fl := cmd.Flags()
	if fl.Changed("src") {
		cfg.SrcDir = f.src
	}
	if fl.Changed("dst") {
		cfg.DstDir = f.dst
	}
	if fl.Changed("log-dir") {
		cfg.LogDir = f.logDir
	}
	if fl.Changed("run-id") {
		cfg.RunID = f.runID
	}
	if fl.Changed("jobs") {
		if f.jobs < 1 {
			return fmt.Errorf(i18n.T("--jobs must be >= 1, got %d"), f.jobs)
		}
		cfg.Jobs = f.jobs
	}
	if fl.Changed("exclude") {
		cfg.Exclude = f.exclude
	}
	if fl.Changed("expand-tabs") {
		cfg.ExpandTabs = f.expandTabs
	}
	if fl.Changed("apostrophe-guard") {
		cfg.ApostropheGuard = f.apostropheGuard
	}
	if cfg.SrcPath() == cfg.DstPath() {
		return fmt.Errorf(i18n.T("source and destination are the same directory: %s"), cfg.SrcDir)
	}
	return nil
}

func newEncodeCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "encode [FILE...]",
		Short: i18n.T("Protect markup before translation"),
		Long: `Protect inline markup before translation.

Every .adoc file below the source directory (default "source") is read,
converted to UTF-8 with LF line endings, tidied, and written to the
destination directory (default "processed") with code spans wrapped as
` + "`+code+`" + ` and [monospaced] roles renamed to [literal].

When FILE arguments are given only those files are encoded; each must live
below the source directory.

Examples:
  adocguard encode
  adocguard encode --src docs --dst out --jobs 4
  adocguard encode source/docs/modules/en/pages/intro.adoc`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, config.StageEncode, &f, args)
		},
	}

	f.register(cmd, config.StageEncode)
	return cmd
}

func newDecodeCmd() *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "decode",
		Short: i18n.T("Restore markup after translation"),
		Long: `Restore inline markup after translation.

Every .adoc file below the source directory (default "translated") has its
protected spans restored and is written below the destination directory
(default "final"). A leading locale directory such as de_de/ is dropped and
the first modules/en pair becomes modules/de.

When the source directory is missing the project root is scanned instead;
only files under a locale directory are decoded and infrastructure
directories are skipped.

Examples:
  adocguard decode
  RUN_ID=$GITHUB_RUN_ID adocguard decode --incremental`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStage(cmd, config.StageDecode, &f, nil)
		},
	}

	f.register(cmd, config.StageDecode)
	return cmd
}

func runStage(cmd *cobra.Command, stage config.Stage, f *runFlags, files []string) error {
	cfg, err := config.Load(rootDir, stage)
	if err != nil {
		return err
	}
	if err := f.apply(cmd, cfg); err != nil {
		return err
	}

	l, err := runlog.Open(cfg.LogPath(), string(stage), cfg.RunID, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	defer l.Close()

	opts := pipeline.Options{
		Config: cfg,
		Log:    l,
		DryRun: f.dryRun,
		Strict: f.strict,
	}
	if f.incremental {
		lock, err := lockfile.Load(rootDir)
		if err != nil {
			return err
		}
		opts.Lock = lock
		logInfo(i18n.T("Incremental run, lock file %s (%s)"), lock.Path(), lock.Summary())
	}
	if f.dryRun {
		logWarning(i18n.T("Dry run: no files will be written"))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	switch {
	case stage == config.StageEncode && len(files) > 0:
		err = pipeline.EncodeFiles(ctx, opts, files)
	case stage == config.StageEncode:
		err = pipeline.Encode(ctx, opts)
	default:
		err = pipeline.Decode(ctx, opts)
	}
	if errors.Is(err, pipeline.ErrNoFiles) {
		return fmt.Errorf(i18n.T("%w (strict mode)"), err)
	}
	if err != nil {
		return err
	}

	s := l.Stats()
	l.Success(i18n.N("%d document written, log: %s", "%d documents written, log: %s", s.Processed), s.Processed, l.Path())
	return nil
}

// ---------------------------------------------------------------------------
// map (path mapping preview)
// ---------------------------------------------------------------------------

func newMapCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "map PATH...",
		Short: i18n.T("Show where decode would write translated files"),
		Long: `Print the output path decode computes for each PATH, given relative to
the translated directory.

Example:
  adocguard map de_de/docs/modules/en/pages/x.adoc
  de_de/docs/modules/en/pages/x.adoc -> docs/modules/de/pages/x.adoc (de (Deutsch))`,
		Args: cobra.MinimumNArgs(1),
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			for _, p := range args {
				fmt.Fprintln(out, describeMapping(p))
			}
		},
	}

	return cmd
}

func describeMapping(p string) string {
	m := pathmap.Map(p)
	if !m.Tagged {
		return fmt.Sprintf("%s -> %s (%s)", p, m.Path, i18n.T("mirrored"))
	}
	line := fmt.Sprintf("%s -> %s (%s)", p, m.Path, langmeta.Label(m.Locale.Lang))
	if !m.Rewritten {
		line += " [" + i18n.T("no modules/en segment") + "]"
	}
	return line
}

// ---------------------------------------------------------------------------
// init (config file)
// ---------------------------------------------------------------------------

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: i18n.T("Write a .adocguard.yaml with the default settings"),
		Long: `Write .adocguard.yaml into the project root with every setting at its
built-in default, ready to be edited. An existing file is kept unless
--force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			existing, err := config.LoadAdocFile(rootDir)
			if err != nil && !force {
				return err
			}
			if existing != nil && !force {
				return fmt.Errorf(i18n.T("%s already exists, use --force to overwrite it"), config.FileName)
			}
			if err := defaultAdocFile().Save(rootDir); err != nil {
				return err
			}
			logInfo(i18n.T("Wrote %s"), config.FileName)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, i18n.T("Overwrite an existing .adocguard.yaml"))
	return cmd
}

func defaultAdocFile() *config.AdocFile {
	on := true
	return &config.AdocFile{
		Encode:          config.Dirs{Src: config.DefaultEncodeSrc, Dst: config.DefaultEncodeDst},
		Decode:          config.Dirs{Src: config.DefaultDecodeSrc, Dst: config.DefaultDecodeDst},
		LogDir:          config.DefaultLogDir,
		RunID:           config.DefaultRunID,
		Jobs:            1,
		ExpandTabs:      &on,
		ApostropheGuard: &on,
		Exclude:         pathmap.DefaultExclude,
	}
}

// ---------------------------------------------------------------------------
// lock (incremental state)
// ---------------------------------------------------------------------------

func newLockCmd() *cobra.Command {
	var reset []string

	cmd := &cobra.Command{
		Use:   "lock",
		Short: i18n.T("Show or reset the incremental lock file"),
		Long: `Show the checksums recorded in adocguard.lock, or drop the entries of a
stage with --reset so the next --incremental run processes every file again.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			lf, err := lockfile.Load(rootDir)
			if err != nil {
				return err
			}
			if len(reset) == 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", lf.Path(), lf.Summary())
				return nil
			}
			for _, s := range reset {
				if s != string(config.StageEncode) && s != string(config.StageDecode) {
					return fmt.Errorf("%w: %q", config.ErrUnknownStage, s)
				}
				lf.RemoveStage(s)
				logInfo(i18n.T("Reset %s checksums"), s)
			}
			if err := lf.Save(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", lf.Path(), lf.Summary())
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&reset, "reset", nil, i18n.T("Stages to reset: encode, decode"))
	_ = cmd.RegisterFlagCompletionFunc("reset", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return []string{"encode", "decode"}, cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}
