package walker

import (
	"path/filepath"
	"strings"

	ignore "github.com/sabhiram/go-gitignore"
)

// ignoreLayer is one compiled ignore file rooted at dir.
type ignoreLayer struct {
	dir     string
	matcher *ignore.GitIgnore
}

// IgnoreStack is an immutable, persistent list of ignore layers in effect
// at a given point of descent. Pushing a new layer returns a new stack
// sharing the tail with its parent, so sibling directories never see each
// other's layers and no single mutable tree needs locking.
type IgnoreStack struct {
	layer  ignoreLayer
	parent *IgnoreStack
}

// Push returns a new stack with an additional layer compiled from lines,
// rooted at dir. A stack with no matchable lines returns the receiver
// unchanged.
func (s *IgnoreStack) Push(dir string, lines []string) *IgnoreStack {
	if len(lines) == 0 {
		return s
	}
	m := ignore.CompileIgnoreLines(lines...)
	if m == nil {
		return s
	}
	return &IgnoreStack{layer: ignoreLayer{dir: dir, matcher: m}, parent: s}
}

// Rejected reports whether path is ignored by any layer in the stack.
// Any matching layer rejects the path: a negation ("!pattern") in a
// deeper layer does not re-include a path that a shallower layer ignores.
func (s *IgnoreStack) Rejected(path string) bool {
	for n := s; n != nil; n = n.parent {
		rel, err := filepath.Rel(n.layer.dir, path)
		if err != nil || strings.HasPrefix(rel, "..") {
			continue
		}
		if n.layer.matcher.MatchesPath(filepath.ToSlash(rel)) {
			return true
		}
	}
	return false
}

// loadIgnoreFile reads an ignore file's lines, returning nil (not an
// error) if the file does not exist.
func loadIgnoreFile(path string) ([]string, error) {
	data, err := readFileLines(path)
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	return data, nil
}
