package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fenilsonani/hunt/internal/exec"
	"github.com/fenilsonani/hunt/internal/output"
	"github.com/fenilsonani/hunt/internal/walker"
)

// Flags mirrors the CLI surface of spec §6, already parsed by cobra into
// plain Go values. Build never touches cobra itself, so it can be unit
// tested without constructing a *cobra.Command.
type Flags struct {
	Pattern string
	Paths   []string

	Hidden           bool
	NoIgnore         bool
	Unrestricted     int
	NoIgnoreVCS      bool
	NoGlobalIgnore   bool
	NoIgnoreParent   bool
	NoRequireGit     bool

	CaseSensitive bool
	IgnoreCase    bool
	Glob          bool
	Regex         bool
	FixedStrings  bool
	FullPath      bool

	Follow       bool
	AbsolutePath bool
	ListDetails  bool
	Print0       bool

	MaxDepth   int
	MinDepth   int
	ExactDepth int
	Prune      bool

	Types      []string
	Extensions []string
	Excludes   []string
	Sizes      []string

	ChangedWithin string
	ChangedBefore string
	Newer         string
	Older         string

	Owner string

	ExecTemplates [][]string
	ExecBatch     []string
	BatchSize     int

	Color         string
	Threads       int
	OneFileSystem bool

	IgnoreFiles []string
	MaxResults  int
	OneResult   bool

	Quiet         bool
	ShowErrors    bool
	PathSeparator string
	BaseDirectory string
	StripCwdPrefix string

	Format    string
	Hyperlink bool
	Progress  bool
	CountOnly bool

	MaxBufferTime time.Duration
}

// Resolved is everything assembled from Flags plus the environment: the
// immutable configuration every other component treats as read-only for
// the rest of the run.
type Resolved struct {
	Walk    *walker.WalkConfig
	Filters *walker.FilterSet
	Matcher *walker.PatternMatcher
	Output  output.Config

	ExecTemplates []exec.Template
	ExecBatch     *exec.Template
}

// Build assembles a Resolved configuration from parsed flags, resolving
// smart-case, parsing every size/duration/date literal, composing the
// FilterSet, and locating the global ignore file — spec §2's "Config
// assembly" responsibility.
func Build(f Flags) (*Resolved, error) {
	roots := f.Paths
	if len(roots) == 0 {
		roots = []string{"."}
	}

	unrestricted := f.Unrestricted
	hidden := f.Hidden || unrestricted >= 2
	noIgnore := f.NoIgnore || unrestricted >= 1

	walkCfg := &walker.WalkConfig{
		Roots:             roots,
		Follow:            f.Follow,
		OneFileSystem:     f.OneFileSystem,
		Hidden:            hidden,
		VCSIgnore:         !noIgnore && !f.NoIgnoreVCS,
		IgnoreFiles:       !noIgnore,
		GlobalIgnore:      !noIgnore && !f.NoGlobalIgnore,
		ParentIgnore:      !noIgnore && !f.NoIgnoreParent,
		RequireGit:        !f.NoRequireGit,
		CustomIgnoreFiles: f.IgnoreFiles,
		ExcludeGlobs:      f.Excludes,
		Threads:           clampThreads(f.Threads),
		MaxBufferTime:     resolveBufferTime(f.MaxBufferTime),
		MaxResults:        resolveMaxResults(f),
		PathSeparator:     f.PathSeparator,
		AbsolutePath:      f.AbsolutePath,
		StripCwdPrefix:    resolveStripCwdPrefix(f),
		MinDepth:          f.MinDepth,
		MaxDepth:          f.MaxDepth,
		ExactDepth:        f.ExactDepth,
		Prune:             f.Prune,
		ShowErrors:        f.ShowErrors,
	}

	if walkCfg.GlobalIgnore {
		if p, err := ResolveGlobalIgnorePath(); err == nil {
			walkCfg.GlobalIgnorePath = p
		} else {
			fmt.Fprintf(os.Stderr, "hunt: could not locate global ignore file: %v\n", err)
		}
	}

	filters, err := buildFilterSet(f)
	if err != nil {
		return nil, err
	}

	matcher, err := walker.NewPatternMatcher(f.Pattern, walker.MatcherOptions{
		Glob:          f.Glob,
		FixedStrings:  f.FixedStrings,
		FullPath:      f.FullPath,
		CaseSensitive: f.CaseSensitive,
		IgnoreCase:    f.IgnoreCase,
	})
	if err != nil {
		hint := ""
		if !f.FixedStrings && walker.HasRegexMetacharacters(f.Pattern) {
			hint = " (try --fixed-strings if the pattern is meant literally)"
		}
		return nil, fmt.Errorf("%w%s", err, hint)
	}

	outCfg := output.Config{
		Color:         resolveColorMode(f.Color),
		Hyperlink:     f.Hyperlink,
		Print0:        f.Print0,
		PathSeparator: f.PathSeparator,
		Template:      f.Format,
		CountOnly:     f.CountOnly,
	}

	resolved := &Resolved{Walk: walkCfg, Filters: filters, Matcher: matcher, Output: outCfg}
	for _, tokens := range f.ExecTemplates {
		resolved.ExecTemplates = append(resolved.ExecTemplates, exec.ParseTemplate(tokens))
	}
	if len(f.ExecBatch) > 0 {
		t := exec.ParseTemplate(f.ExecBatch)
		resolved.ExecBatch = &t
	}
	return resolved, nil
}

func clampThreads(n int) int {
	if n <= 0 {
		return 1
	}
	if n > 64 {
		return 64
	}
	return n
}

func resolveBufferTime(d time.Duration) time.Duration {
	if d <= 0 {
		return 100 * time.Millisecond
	}
	return d
}

func resolveMaxResults(f Flags) int {
	if f.OneResult {
		return 1
	}
	return f.MaxResults
}

func resolveStripCwdPrefix(f Flags) string {
	if f.StripCwdPrefix != "" {
		return f.StripCwdPrefix
	}
	return "auto"
}

func resolveColorMode(v string) output.ColorMode {
	switch strings.ToLower(v) {
	case "always":
		return output.ColorAlways
	case "never":
		return output.ColorNever
	default:
		return output.ColorAuto
	}
}

func buildFilterSet(f Flags) (*walker.FilterSet, error) {
	var types []walker.EntryType
	for _, t := range f.Types {
		types = append(types, walker.EntryType(normalizeType(t)))
	}

	var sizes []walker.SizeConstraint
	for _, s := range f.Sizes {
		c, err := ParseSizeLiteral(s)
		if err != nil {
			return nil, err
		}
		sizes = append(sizes, c)
	}

	window, err := buildTimeWindow(f)
	if err != nil {
		return nil, err
	}

	var owner *walker.OwnerConstraint
	if f.Owner != "" {
		oc := walker.ParseOwnerConstraint(f.Owner)
		owner = &oc
	}

	return walker.NewFilterSet(types, f.Extensions, sizes, window, owner, f.Excludes), nil
}

func normalizeType(t string) string {
	switch t {
	case "f":
		return string(walker.TypeFile)
	case "d":
		return string(walker.TypeDirectory)
	case "l":
		return string(walker.TypeSymlink)
	case "x":
		return string(walker.TypeExecutable)
	case "e":
		return string(walker.TypeEmpty)
	case "s":
		return string(walker.TypeSocket)
	case "p":
		return string(walker.TypePipe)
	default:
		return t
	}
}

func buildTimeWindow(f Flags) (walker.TimeWindow, error) {
	var window walker.TimeWindow
	now := time.Now()

	if f.ChangedWithin != "" {
		t, err := ParseTimeLiteral(f.ChangedWithin, now)
		if err != nil {
			return window, err
		}
		window.After = &t
	}
	if f.Newer != "" {
		t, err := ParseTimeLiteral(f.Newer, now)
		if err != nil {
			return window, err
		}
		window.After = &t
	}
	if f.ChangedBefore != "" {
		t, err := ParseTimeLiteral(f.ChangedBefore, now)
		if err != nil {
			return window, err
		}
		window.Before = &t
	}
	if f.Older != "" {
		t, err := ParseTimeLiteral(f.Older, now)
		if err != nil {
			return window, err
		}
		window.Before = &t
	}
	return window, nil
}
