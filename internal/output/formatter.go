// Package output implements the formatter described in spec §4.3: styling
// a path with LS_COLORS (the directory prefix as one directory-styled span
// and the final component by its own style; individual directory
// components are not styled separately), optional OSC 8 hyperlinks,
// format-template expansion, and the receiver's stdout buffering policy.
package output

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/term"

	"github.com/fenilsonani/hunt/internal/receiver"
	"github.com/fenilsonani/hunt/internal/walker"
)

// ColorMode is the resolved value of --color.
type ColorMode int

const (
	ColorAuto ColorMode = iota
	ColorAlways
	ColorNever
)

// Config is the immutable configuration the formatter renders against.
type Config struct {
	Color          ColorMode
	Hyperlink      bool
	Print0         bool
	PathSeparator  string // empty = platform default
	Template       string // empty = default printing
	CountOnly      bool
}

// Formatter renders Entries to an io.Writer and implements receiver.Sink.
type Formatter struct {
	cfg    Config
	w      *bufio.Writer
	ls     *lsColors
	isTTY  bool
	count  int
	wrote  bool
	outErr error
}

// New builds a Formatter writing to w. fd should be the file descriptor
// behind w, or an invalid descriptor such as ^uintptr(0) when w is not a
// file; whether it is a terminal drives both the color default and the
// block- vs line-buffering policy from spec §4.2.
func New(w io.Writer, fd uintptr, cfg Config) *Formatter {
	isTTY := term.IsTerminal(int(fd))

	var bw *bufio.Writer
	if isTTY {
		bw = bufio.NewWriterSize(w, 4096) // line-ish: flushed every Emit
	} else {
		bw = bufio.NewWriterSize(w, 64*1024)
	}

	f := &Formatter{cfg: cfg, w: bw, isTTY: isTTY}
	if f.useColor() {
		f.ls = newLSColors()
	}
	return f
}

func (f *Formatter) useColor() bool {
	switch f.cfg.Color {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	default:
		if os.Getenv("NO_COLOR") != "" {
			return false
		}
		return f.isTTY
	}
}

// Emit implements receiver.Sink.
func (f *Formatter) Emit(e *walker.Entry, _ receiver.Phase) error {
	if f.outErr != nil {
		return f.outErr
	}
	f.count++
	if f.cfg.CountOnly {
		return nil
	}

	rendered := f.render(e)
	if _, err := f.w.WriteString(rendered); err != nil {
		f.outErr = classifyWriteErr(err)
		return f.outErr
	}
	f.wrote = true

	if f.isTTY {
		if err := f.w.Flush(); err != nil {
			f.outErr = classifyWriteErr(err)
			return f.outErr
		}
	}
	return nil
}

// Finish implements receiver.Sink.
func (f *Formatter) Finish() error {
	if f.cfg.CountOnly && f.outErr == nil {
		fmt.Fprintln(f.w, f.count)
	}
	if err := f.w.Flush(); err != nil && f.outErr == nil {
		f.outErr = classifyWriteErr(err)
	}
	return f.outErr
}

// Count returns the number of entries emitted so far.
func (f *Formatter) Count() int { return f.count }

// Wrote reports whether any entry was written before a possible error.
func (f *Formatter) Wrote() bool { return f.wrote }

func (f *Formatter) render(e *walker.Entry) string {
	path := e.Path
	if f.cfg.PathSeparator != "" {
		path = strings.ReplaceAll(path, string(filepath.Separator), f.cfg.PathSeparator)
	}

	if f.isTTY {
		path = sanitizeForDisplay(path)
	}

	if f.cfg.Template != "" {
		return expandTemplate(f.cfg.Template, e, path) + f.terminator(e)
	}

	body := path
	if e.IsDir() && !f.cfg.Print0 {
		body = strings.TrimSuffix(body, string(filepath.Separator)) + string(filepath.Separator)
	}

	if f.ls != nil {
		body = f.colorize(e, body)
	}
	if f.cfg.Hyperlink {
		body = hyperlink(e.AbsPath, body)
	}

	return body + f.terminator(e)
}

func (f *Formatter) terminator(e *walker.Entry) string {
	if f.cfg.Print0 {
		return "\x00"
	}
	return "\n"
}

func sanitizeForDisplay(s string) string {
	if utf8.ValidString(s) {
		return s
	}
	return strings.ToValidUTF8(s, string(utf8.RuneError))
}

func classifyWriteErr(err error) error {
	if errors.Is(err, os.ErrClosed) || isBrokenPipe(err) {
		return ErrBrokenPipe
	}
	return err
}

// ErrBrokenPipe is returned by Emit/Finish when stdout has gone away.
var ErrBrokenPipe = errors.New("broken pipe")
