package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/fenilsonani/hunt/internal/clierr"
	"github.com/fenilsonani/hunt/internal/config"
	"github.com/fenilsonani/hunt/internal/exec"
	"github.com/fenilsonani/hunt/internal/output"
	"github.com/fenilsonani/hunt/internal/progress"
	"github.com/fenilsonani/hunt/internal/receiver"
	"github.com/fenilsonani/hunt/internal/signals"
	"github.com/fenilsonani/hunt/internal/walker"
)

var (
	Version   = "0.1.0"
	GitCommit = "unknown"
	BuildTime = "unknown"
)

var flags config.Flags

func main() {
	args, execTemplates, execBatch := extractExecArgs(os.Args[1:])
	flags.ExecTemplates = execTemplates
	flags.ExecBatch = execBatch

	rootCmd.SetArgs(args)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return clierr.New(clierr.KindArgument, err)
	})
	if err := rootCmd.Execute(); err != nil {
		var ce *clierr.Error
		if asClierr(err, &ce) {
			fmt.Fprintln(os.Stderr, "hunt:", ce.Error())
			os.Exit(clierr.ExitCode(ce))
		}
		fmt.Fprintln(os.Stderr, "hunt:", err)
		os.Exit(1)
	}
}

func asClierr(err error, target **clierr.Error) bool {
	for err != nil {
		if ce, ok := err.(*clierr.Error); ok {
			*target = ce
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}

var rootCmd = &cobra.Command{
	Use:     "hunt [PATTERN] [PATH...]",
	Short:   "Find filesystem entries by name, matching gitignore rules by default",
	Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, GitCommit, BuildTime),
	SilenceUsage:  true,
	SilenceErrors: true,
	Args:          cobra.ArbitraryArgs,
	RunE:          runHunt,
}

func init() {
	f := rootCmd.Flags()

	f.BoolVarP(&flags.Hidden, "hidden", "H", false, "include hidden files and directories")
	f.BoolVarP(&flags.NoIgnore, "no-ignore", "I", false, "do not respect ignore files")
	f.CountVarP(&flags.Unrestricted, "unrestricted", "u", "reduce filtering; repeat for more (-uu = -HI)")
	f.BoolVar(&flags.NoIgnoreVCS, "no-ignore-vcs", false, "do not respect .gitignore files")
	f.BoolVar(&flags.NoGlobalIgnore, "no-global-ignore-file", false, "do not respect the global ignore file")
	f.BoolVar(&flags.NoIgnoreParent, "no-ignore-parent", false, "do not respect ignore files in parent directories")
	f.BoolVar(&flags.NoRequireGit, "no-require-git", false, "apply gitignore rules even outside a git repository")

	f.BoolVarP(&flags.CaseSensitive, "case-sensitive", "s", false, "force case-sensitive matching")
	f.BoolVarP(&flags.IgnoreCase, "ignore-case", "i", false, "force case-insensitive matching")
	f.BoolVarP(&flags.Glob, "glob", "g", false, "treat the pattern as a glob instead of a regex")
	f.BoolVar(&flags.Regex, "regex", false, "treat the pattern as a regex (default)")
	f.BoolVarP(&flags.FixedStrings, "fixed-strings", "F", false, "treat the pattern as a literal string")
	f.BoolVarP(&flags.FullPath, "full-path", "p", false, "match the pattern against the full path")

	f.BoolVarP(&flags.Follow, "follow", "L", false, "follow symbolic links")
	f.BoolVarP(&flags.AbsolutePath, "absolute-path", "a", false, "print absolute paths")
	f.BoolVarP(&flags.ListDetails, "list-details", "l", false, "list details, like ls -l")
	f.BoolVarP(&flags.Print0, "print0", "0", false, "terminate results with a NUL byte")

	f.IntVarP(&flags.MaxDepth, "max-depth", "d", 0, "limit traversal to this depth")
	f.IntVar(&flags.MinDepth, "min-depth", 0, "only emit entries at or beyond this depth")
	f.IntVar(&flags.ExactDepth, "exact-depth", 0, "only emit entries at exactly this depth")
	f.BoolVar(&flags.Prune, "prune", false, "do not descend into directories that match")

	f.StringArrayVarP(&flags.Types, "type", "t", nil, "filter by entry type (f, d, l, x, e, s, p)")
	f.StringArrayVarP(&flags.Extensions, "extension", "e", nil, "filter by file extension")
	f.StringArrayVarP(&flags.Excludes, "exclude", "E", nil, "exclude files/directories matching a glob")
	f.StringArrayVarP(&flags.Sizes, "size", "S", nil, "filter by size, e.g. +1M, -500K")

	f.StringVar(&flags.ChangedWithin, "changed-within", "", "only entries modified within this duration/date")
	f.StringVar(&flags.ChangedBefore, "changed-before", "", "only entries modified before this duration/date")
	f.StringVar(&flags.Newer, "newer", "", "alias for --changed-within")
	f.StringVar(&flags.Older, "older", "", "alias for --changed-before")

	f.StringVarP(&flags.Owner, "owner", "o", "", "filter by owner, [!]user[:[!]group]")

	f.IntVar(&flags.BatchSize, "batch-size", 0, "max number of arguments per --exec-batch invocation")

	f.StringVarP(&flags.Color, "color", "c", "auto", "when to colorize output: never, auto, always")
	f.IntVarP(&flags.Threads, "threads", "j", 0, "number of worker threads (default 1, clamped [1,64])")
	f.BoolVar(&flags.OneFileSystem, "one-file-system", false, "do not descend into other file systems")
	f.BoolVar(&flags.OneFileSystem, "mount", false, "alias for --one-file-system")
	f.BoolVar(&flags.OneFileSystem, "xdev", false, "alias for --one-file-system")

	f.StringArrayVar(&flags.IgnoreFiles, "ignore-file", nil, "additional ignore files to respect")
	f.IntVar(&flags.MaxResults, "max-results", 0, "limit the number of results")
	f.BoolVarP(&flags.OneResult, "1", "1", false, "limit to a single result (sugar for --max-results 1)")

	f.BoolVarP(&flags.Quiet, "quiet", "q", false, "do not print anything, only report via exit code")
	f.BoolVar(&flags.ShowErrors, "show-errors", false, "show filesystem errors encountered during the search")
	f.StringVar(&flags.PathSeparator, "path-separator", "", "override the path separator used in output")
	f.StringVar(&flags.BaseDirectory, "base-directory", "", "change the current working directory before searching")
	f.StringVar(&flags.StripCwdPrefix, "strip-cwd-prefix", "", "strip the search root prefix from output: always, never, auto")

	f.StringVar(&flags.Format, "format", "", "a format string for printing results")
	f.BoolVar(&flags.Hyperlink, "hyperlink", false, "emit OSC 8 hyperlink escapes around paths")
	f.BoolVar(&flags.Progress, "progress", false, "show a live progress indicator on stderr")
	f.BoolVar(&flags.CountOnly, "count", false, "print only the number of matches")

	f.DurationVar(&flags.MaxBufferTime, "max-buffer-time", 100*time.Millisecond, "deadline for the buffered output phase")
}

func runHunt(cmd *cobra.Command, args []string) error {
	if flags.BaseDirectory != "" {
		if err := os.Chdir(flags.BaseDirectory); err != nil {
			return clierr.New(clierr.KindArgument, fmt.Errorf("--base-directory: %w", err))
		}
	}

	if len(args) > 0 {
		flags.Pattern = args[0]
		flags.Paths = args[1:]
	}
	if flags.Regex && flags.Glob {
		return clierr.New(clierr.KindArgument, fmt.Errorf("--glob and --regex are mutually exclusive"))
	}

	resolved, err := config.Build(flags)
	if err != nil {
		return clierr.New(clierr.KindArgument, err)
	}

	cancel := &walker.CancelFlag{}
	ctx, stop := signals.Install(cancel)
	defer stop()

	var reporter *progress.Reporter
	var live *progress.LiveDisplay
	if flags.Progress && !flags.Quiet && term.IsTerminal(int(os.Stderr.Fd())) {
		reporter = progress.New()
		live = progress.NewLiveDisplay(reporter)
		live.Start()
		defer live.Stop()
	}

	w := walker.New(resolved.Walk, resolved.Filters, resolved.Matcher, cancel)
	if reporter != nil {
		w.SetProgress(reporter)
	}
	ch := w.Run()

	sink, finishSink, isExecSink := buildSink(ctx, resolved, flags, live)

	r := receiver.New(receiver.Options{
		MaxBufferTime: resolved.Walk.MaxBufferTime,
		MaxResults:    resolved.Walk.MaxResults,
		ExecBatch:     resolved.ExecBatch != nil || flags.ListDetails,
	}, cancel, sink)

	result := r.Run(ch)

	if flags.ShowErrors {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "hunt: %s: %v\n", e.Path, e.Err)
		}
	}

	exitCode := finishSink()
	if result.SinkErr != nil {
		if result.SinkErr == output.ErrBrokenPipe {
			if result.Emitted > 0 {
				return nil
			}
			return clierr.New(clierr.KindOutput, result.SinkErr)
		}
		return clierr.New(clierr.KindOutput, result.SinkErr)
	}
	rootFailures := 0
	for _, e := range result.Errors {
		if e.Kind == walker.ErrRootUnreadable {
			rootFailures++
		}
	}
	if rootFailures == len(resolved.Walk.Roots) {
		os.Exit(1)
	}
	if exitCode != 0 {
		os.Exit(exitCode)
	}
	if !isExecSink && result.Emitted == 0 && len(result.Errors) == 0 {
		// Historical contract (spec §8): zero results exit 1. In exec
		// mode the children's own exit status governs instead (see
		// DESIGN.md's "exit-code propagation" decision).
		os.Exit(1)
	}
	return nil
}

// buildSink selects the receiver.Sink for this run (plain formatter,
// per-result executor, or batched executor) and returns a function that
// finalizes it and reports the exit code contribution from any spawned
// children, per spec §6's exit-code propagation rule.
func buildSink(ctx context.Context, resolved *config.Resolved, flags config.Flags, live *progress.LiveDisplay) (receiver.Sink, func() int, bool) {
	switch {
	case flags.ListDetails:
		be := exec.NewBatch(ctx, exec.ListDetailsTemplate(), flags.BatchSize, os.Stdout, os.Stderr)
		return be, be.MaxExitCode, true

	case resolved.ExecBatch != nil:
		be := exec.NewBatch(ctx, *resolved.ExecBatch, flags.BatchSize, os.Stdout, os.Stderr)
		return be, be.MaxExitCode, true

	case len(resolved.ExecTemplates) > 0:
		ex := exec.New(ctx, resolved.ExecTemplates, resolved.Walk.Threads, os.Stdout, os.Stderr)
		return ex, func() int {
			ex.Finish()
			return ex.MaxExitCode()
		}, true

	default:
		var w *os.File = os.Stdout
		if flags.Quiet {
			w, _ = os.OpenFile(os.DevNull, os.O_WRONLY, 0)
		}
		if live != nil {
			wrapped := &firstEntryStopsLive{live: live}
			f := output.New(w, w.Fd(), resolved.Output)
			return &sinkWithHook{Formatter: f, hook: wrapped.stop}, func() int { return 0 }, false
		}
		f := output.New(w, w.Fd(), resolved.Output)
		return f, func() int { return 0 }, false
	}
}

// firstEntryStopsLive suppresses the live progress line at the first
// entry written to stdout (the buffered-phase flush or, failing that, the
// first streamed entry), per SPEC_FULL §11, so it never corrupts stdout.
type firstEntryStopsLive struct {
	live    *progress.LiveDisplay
	stopped bool
}

func (h *firstEntryStopsLive) stop() {
	if !h.stopped {
		h.stopped = true
		h.live.Stop()
	}
}

type sinkWithHook struct {
	*output.Formatter
	hook func()
}

func (s *sinkWithHook) Emit(e *walker.Entry, phase receiver.Phase) error {
	s.hook()
	return s.Formatter.Emit(e, phase)
}

// extractExecArgs pulls --exec/-x and --exec-batch/-X out of argv before
// cobra ever sees it: per spec §6, everything after one of these flags up
// to a lone ";" (or end of argv) belongs to the child command line, not to
// hunt's own flag set, so it cannot be parsed by pflag at all.
func extractExecArgs(args []string) (remaining []string, execTemplates [][]string, execBatch []string) {
	i := 0
	for i < len(args) {
		a := args[i]
		switch a {
		case "--exec", "-x":
			i++
			var tmpl []string
			for i < len(args) {
				if args[i] == ";" {
					i++
					break
				}
				tmpl = append(tmpl, args[i])
				i++
			}
			execTemplates = append(execTemplates, tmpl)
		case "--exec-batch", "-X":
			i++
			var tmpl []string
			for i < len(args) {
				if args[i] == ";" {
					i++
					break
				}
				tmpl = append(tmpl, args[i])
				i++
			}
			execBatch = tmpl
		default:
			remaining = append(remaining, a)
			i++
		}
	}
	return remaining, execTemplates, execBatch
}
