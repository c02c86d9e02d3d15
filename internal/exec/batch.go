package exec

import (
	"bytes"
	"context"
	"fmt"
	"io"
	osexec "os/exec"

	"github.com/fenilsonani/hunt/internal/output"
	"github.com/fenilsonani/hunt/internal/receiver"
	"github.com/fenilsonani/hunt/internal/walker"
)

// argvCeiling approximates the OS-imposed ceiling on total argv length,
// leaving headroom for the environment block. Linux's real ceiling is
// higher (typically a quarter of the stack rlimit); this stays
// conservative across platforms rather than querying the kernel.
const argvCeiling = 128 * 1024

// BatchExecutor implements receiver.Sink for --exec-batch and for the
// synthesized --list-details template: the receiver emits the full sorted
// result set only after the walk has finished, and nothing is spawned
// until Finish, since batching needs to see the whole run before it can
// chunk argv.
type BatchExecutor struct {
	ctx       context.Context
	template  Template
	batchSize int // explicit --batch-size override, 0 = derive from argvCeiling
	stdout    io.Writer
	stderr    io.Writer

	paths   []string
	maxExit int
}

// NewBatch constructs a BatchExecutor.
func NewBatch(ctx context.Context, template Template, batchSize int, stdout, stderr io.Writer) *BatchExecutor {
	return &BatchExecutor{ctx: ctx, template: template, batchSize: batchSize, stdout: stdout, stderr: stderr}
}

// Emit implements receiver.Sink: entries are accumulated, not spawned,
// since §4.4 requires the batch to see the entire sorted run first.
func (b *BatchExecutor) Emit(e *walker.Entry, _ receiver.Phase) error {
	b.paths = append(b.paths, e.Path)
	return nil
}

// Finish partitions the accumulated paths into argv-length-bounded chunks
// and spawns them serially, in order, per spec's determinism guarantee.
func (b *BatchExecutor) Finish() error {
	if len(b.paths) == 0 {
		// Open Question (spec §9) resolved: an empty result set spawns no
		// children and exits 0, rather than running one empty invocation.
		return nil
	}

	fixedLen := 0
	for _, tok := range b.template.Tokens {
		if !output.HasPlaceholder(tok) {
			fixedLen += len(tok) + 1
		}
	}

	limit := b.batchSize
	chunks := chunkByArgvLength(b.paths, limit, argvCeiling-fixedLen)

	for _, chunk := range chunks {
		if err := b.runChunk(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (b *BatchExecutor) runChunk(paths []string) error {
	argv := buildBatchArgv(b.template, paths)
	if len(argv) == 0 {
		return nil
	}

	cmd := osexec.CommandContext(b.ctx, argv[0], argv[1:]...)

	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	err := cmd.Run()
	outBuf.WriteTo(b.stdout)
	errBuf.WriteTo(b.stderr)

	if err != nil {
		if exitErr, ok := err.(*osexec.ExitError); ok {
			if code := exitErr.ExitCode(); code > b.maxExit {
				b.maxExit = code
			}
		} else {
			fmt.Fprintf(b.stderr, "%s: %v\n", argv[0], err)
			if b.maxExit < 1 {
				b.maxExit = 1
			}
			return err
		}
	}
	return nil
}

// MaxExitCode returns the largest exit code observed across all chunks.
func (b *BatchExecutor) MaxExitCode() int { return b.maxExit }

// buildBatchArgv expands every token that carries a placeholder once per
// path in the chunk, appending the results in order at that token's
// position; tokens without a placeholder are passed through unchanged.
func buildBatchArgv(t Template, chunk []string) []string {
	var argv []string
	for _, tok := range t.Tokens {
		if output.HasPlaceholder(tok) {
			for _, p := range chunk {
				argv = append(argv, output.ExpandPlaceholders(tok, p))
			}
			continue
		}
		argv = append(argv, tok)
	}
	return argv
}

func chunkByArgvLength(paths []string, explicitBatchSize, byteLimit int) [][]string {
	if explicitBatchSize > 0 {
		var chunks [][]string
		for i := 0; i < len(paths); i += explicitBatchSize {
			end := i + explicitBatchSize
			if end > len(paths) {
				end = len(paths)
			}
			chunks = append(chunks, paths[i:end])
		}
		return chunks
	}

	var chunks [][]string
	var cur []string
	curLen := 0
	for _, p := range paths {
		add := len(p) + 1
		if curLen+add > byteLimit && len(cur) > 0 {
			chunks = append(chunks, cur)
			cur = nil
			curLen = 0
		}
		cur = append(cur, p)
		curLen += add
	}
	if len(cur) > 0 {
		chunks = append(chunks, cur)
	}
	return chunks
}
