// Package exec implements the command-execution pipeline of spec §4.4:
// a bounded per-result worker pool for --exec and a chunked batched
// invocation for --exec-batch / --list-details, both sharing the
// placeholder-expansion module from internal/output.
package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	osexec "os/exec"
	"sync"

	"github.com/fenilsonani/hunt/internal/output"
	"github.com/fenilsonani/hunt/internal/receiver"
	"github.com/fenilsonani/hunt/internal/walker"
)

// Template is one parsed --exec/--exec-batch command: the tokens up to
// (but not including) a trailing ";", with an implicit "{}" appended when
// no placeholder token is present.
type Template struct {
	Tokens           []string
	HasPlaceholder   bool
}

// ParseTemplate splits a raw --exec argv into a Template. A ";" token ends
// the template (historical compatibility); the caller is responsible for
// stopping consumption of further flag arguments at that point.
func ParseTemplate(tokens []string) Template {
	var out []string
	for _, t := range tokens {
		if t == ";" {
			break
		}
		out = append(out, t)
	}
	t := Template{Tokens: out}
	for _, tok := range out {
		if output.HasPlaceholder(tok) {
			t.HasPlaceholder = true
			break
		}
	}
	if !t.HasPlaceholder {
		t.Tokens = append(t.Tokens, "{}")
	}
	return t
}

// Expand substitutes placeholders in every token against path.
func (t Template) Expand(path string) []string {
	argv := make([]string, len(t.Tokens))
	for i, tok := range t.Tokens {
		argv[i] = output.ExpandPlaceholders(tok, path)
	}
	return argv
}

// Executor runs one Template per accepted entry, bounded by a worker pool
// the size of WalkConfig.Threads, the way internal/cleaner/sudo.go bounds
// its deletion workers with a semaphore and serializes output under a
// mutex.
type Executor struct {
	ctx       context.Context
	templates []Template
	workers   int

	sem    chan struct{}
	wg     sync.WaitGroup
	mu     sync.Mutex // serializes stdout/stderr writes across children
	stdout io.Writer
	stderr io.Writer

	maxExit  int
	spawnErr error
}

// New constructs an Executor. workers is clamped to [1, 64] by the caller
// via config assembly, matching WalkConfig.Threads.
func New(ctx context.Context, templates []Template, workers int, stdout, stderr io.Writer) *Executor {
	if workers < 1 {
		workers = 1
	}
	return &Executor{
		ctx:       ctx,
		templates: templates,
		workers:   workers,
		sem:       make(chan struct{}, workers),
		stdout:    stdout,
		stderr:    stderr,
	}
}

// Emit implements receiver.Sink: one entry spawns one child per template,
// on a pooled goroutine.
func (ex *Executor) Emit(e *walker.Entry, _ receiver.Phase) error {
	for _, tmpl := range ex.templates {
		ex.sem <- struct{}{}
		ex.wg.Add(1)
		go func(tmpl Template, path string) {
			defer func() { <-ex.sem; ex.wg.Done() }()
			ex.run(tmpl, path)
		}(tmpl, e.Path)
	}
	return nil
}

// Finish implements receiver.Sink.
func (ex *Executor) Finish() error {
	ex.wg.Wait()
	return ex.spawnErr
}

// MaxExitCode returns the largest exit code observed across all children
// spawned so far. Safe to call only after Finish.
func (ex *Executor) MaxExitCode() int {
	ex.mu.Lock()
	defer ex.mu.Unlock()
	return ex.maxExit
}

func (ex *Executor) run(tmpl Template, path string) {
	argv := tmpl.Expand(path)
	if len(argv) == 0 {
		return
	}

	cmd := osexec.CommandContext(ex.ctx, argv[0], argv[1:]...)

	// Stdin policy from spec §4.4: null when parallelism > 1, inherited
	// when running with a single worker, to avoid races on an
	// interactive tty.
	if ex.workers > 1 {
		cmd.Stdin = nil
	} else {
		cmd.Stdin = os.Stdin
	}

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()

	ex.mu.Lock()
	outBuf.WriteTo(ex.stdout)
	errBuf.WriteTo(ex.stderr)
	if err != nil {
		if exitErr, ok := err.(*osexec.ExitError); ok {
			if code := exitErr.ExitCode(); code > ex.maxExit {
				ex.maxExit = code
			}
		} else {
			fmt.Fprintf(ex.stderr, "%s: %v\n", argv[0], err)
			if ex.maxExit < 1 {
				ex.maxExit = 1
			}
			if ex.spawnErr == nil {
				ex.spawnErr = err
			}
		}
	}
	ex.mu.Unlock()
}
