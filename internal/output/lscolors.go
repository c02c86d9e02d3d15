package output

import (
	"path/filepath"

	"github.com/charlievieth/lscolors"

	"github.com/fenilsonani/hunt/internal/walker"
)

// lsColors wraps github.com/charlievieth/lscolors, the LS_COLORS parser
// and per-entry style lookup spec §1 treats as an external collaborator.
// It never fails construction: an unset or malformed LS_COLORS falls back
// to the library's built-in defaults, matching other_examples'
// charlievieth-lscolors__main.go usage of lscolors.NewLSColors().
type lsColors struct {
	ls *lscolors.LSColors
}

func newLSColors() *lsColors {
	ls, err := lscolors.NewLSColors()
	if err != nil {
		return &lsColors{}
	}
	return &lsColors{ls: ls}
}

// colorize styles body the way other_examples/charlievieth-lscolors
// styles a walked path: the directory prefix carries the plain directory
// indicator, and the final component is looked up by exact-filename, type,
// then extension indicator via MatchEntry (the precedence order in spec
// §4.3, delegated to lscolors' own lookup rather than reimplemented here).
func (f *Formatter) colorize(e *walker.Entry, body string) string {
	if f.ls == nil || f.ls.ls == nil {
		return body
	}

	dir, base := filepath.Split(body)
	if base == "" {
		// A bare directory path (trailing separator already appended).
		return f.ls.ls.DI.Format(body)
	}

	d, err := e.DirEntry()
	if err != nil {
		return body
	}
	c := f.ls.ls.MatchEntry(body, d)

	styledDir := dir
	if dir != "" {
		styledDir = f.ls.ls.DI.Format(dir)
	}
	return styledDir + c.Format(base)
}
