package walker

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/charlievieth/fastwalk"

	"github.com/fenilsonani/hunt/internal/progress"
)

// CancelFlag is the single shared atomic stop signal. Workers poll it
// between directory entries; the receiver sets it once max-results is
// reached and checks it only right after a buffered-phase flush, not
// between channel reads. Setting it is idempotent and nothing un-sets it.
type CancelFlag struct {
	set atomic.Bool
}

// Set requests cancellation. Idempotent.
func (c *CancelFlag) Set() { c.set.Store(true) }

// IsSet reports whether cancellation has been requested.
func (c *CancelFlag) IsSet() bool { return c.set.Load() }

var errCanceled = errors.New("walk canceled")

type dirState struct {
	stack   *IgnoreStack
	gitSeen bool
}

// Walker drives the concurrent traversal described in spec §4.1: one
// fastwalk.Walk call per root, our own ignore-stack/filter/matcher gating
// wrapped around fastwalk's directory-read concurrency, and a shared
// CycleGuard for --follow.
type Walker struct {
	cfg     *WalkConfig
	filters *FilterSet
	matcher *PatternMatcher
	cancel  *CancelFlag

	cycles   *CycleGuard
	states   sync.Map // absolute dir path -> *dirState
	progress *progress.Reporter

	out chan Message
	wg  sync.WaitGroup
}

// SetProgress attaches a live-progress reporter; nil (the default)
// disables the --progress counters entirely at zero extra cost.
func (w *Walker) SetProgress(p *progress.Reporter) { w.progress = p }

// New constructs a Walker ready to Run.
func New(cfg *WalkConfig, filters *FilterSet, matcher *PatternMatcher, cancel *CancelFlag) *Walker {
	return &Walker{
		cfg:     cfg,
		filters: filters,
		matcher: matcher,
		cancel:  cancel,
		cycles:  NewCycleGuard(),
		out:     make(chan Message, 256),
	}
}

// Run starts one goroutine per root and returns the shared output channel.
// The channel is closed (after a final MsgQuit value) once every root has
// finished or cancellation has been observed.
func (w *Walker) Run() <-chan Message {
	anyRootOK := &atomic.Bool{}

	for _, root := range w.cfg.Roots {
		root := root
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			if err := w.walkRoot(root); err != nil && !errors.Is(err, errCanceled) {
				w.out <- Message{Kind: MsgError, Err: &WalkError{Path: root, Kind: ErrRootUnreadable, Err: err}}
				return
			}
			anyRootOK.Store(true)
		}()
	}

	go func() {
		w.wg.Wait()
		w.out <- Message{Kind: MsgQuit}
		close(w.out)
	}()

	return w.out
}

func (w *Walker) walkRoot(root string) error {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return err
	}

	rootInfo, err := os.Lstat(absRoot)
	if err != nil {
		return err
	}

	var rootDev uint64
	if w.cfg.OneFileSystem {
		if info, statErr := os.Stat(absRoot); statErr == nil {
			if d, _, ok := deviceInode(info); ok {
				rootDev = d
			}
		}
	}

	ancestorStack, gitSeen := w.buildAncestorStack(absRoot)
	rootStack := w.layerDir(absRoot, ancestorStack)
	w.states.Store(absRoot, &dirState{stack: rootStack, gitSeen: gitSeen || hasGitMarker(absRoot)})

	if !rootInfo.IsDir() {
		// A root that is a file is emitted iff it satisfies filters; no
		// descent happens.
		w.emitIfAccepted(NewEntry(w.presentPath(root, absRoot, absRoot), absRoot, 0, nil, w.cfg.Follow))
		return nil
	}

	conf := fastwalk.DefaultConfig.Copy()
	conf.Follow = w.cfg.Follow
	conf.Sort = fastwalk.SortNone
	workers := w.cfg.Threads / len(w.cfg.Roots)
	if workers < 1 {
		workers = 1
	}
	conf.NumWorkers = workers

	return fastwalk.Walk(conf, absRoot, func(path string, d fs.DirEntry, err error) error {
		if w.cancel.IsSet() {
			return errCanceled
		}
		if err != nil {
			w.reportError(path, err)
			if d != nil && d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		if path == absRoot {
			return nil
		}

		parentDir := filepath.Dir(path)
		parent := w.lookupState(parentDir)

		depth := w.depthOf(absRoot, path)
		if w.cfg.MaxDepth > 0 && depth > w.cfg.MaxDepth {
			if d.IsDir() {
				return fastwalk.SkipDir
			}
			return nil
		}

		hidden := !w.cfg.Hidden && isHiddenName(d.Name())
		ignored := parent.stack.Rejected(path) && (parent.gitSeen || !w.cfg.RequireGit || !w.cfg.VCSIgnore)

		entry := NewEntry(w.presentPath(root, absRoot, path), path, depth, d, w.cfg.Follow)

		if d.IsDir() {
			if hidden || ignored {
				return fastwalk.SkipDir
			}
			if w.progress != nil {
				w.progress.IncDir()
			}

			childGitSeen := parent.gitSeen || hasGitMarker(path)
			childStack := w.layerDir(path, parent.stack)
			w.states.Store(path, &dirState{stack: childStack, gitSeen: childGitSeen})

			if w.cfg.OneFileSystem && rootDev != 0 {
				if info, statErr := entry.Metadata(); statErr == nil {
					if dev, _, ok := deviceInode(info); ok && dev != rootDev {
						return fastwalk.SkipDir
					}
				}
			}
			if w.cfg.Follow {
				if info, statErr := entry.Metadata(); statErr == nil {
					if dev, ino, ok := deviceInode(info); ok && !w.cycles.VisitOnce(dev, ino) {
						return fastwalk.SkipDir
					}
				}
			}

			if !w.withinMinDepth(depth) {
				return nil
			}
			if w.cfg.ExactDepth > 0 && depth != w.cfg.ExactDepth {
				return nil
			}
			accepted := w.filters.Accept(entry) && w.matcher.Match(entry.Path)
			if accepted {
				w.send(entry)
				if w.cfg.Prune {
					return fastwalk.SkipDir
				}
			}
			return nil
		}

		if hidden || ignored {
			return nil
		}
		if !w.withinMinDepth(depth) {
			return nil
		}
		if w.cfg.ExactDepth > 0 && depth != w.cfg.ExactDepth {
			return nil
		}
		w.emitIfAccepted(entry)
		return nil
	})
}

func (w *Walker) withinMinDepth(depth int) bool {
	return w.cfg.MinDepth == 0 || depth >= w.cfg.MinDepth
}

func (w *Walker) emitIfAccepted(e *Entry) {
	if w.filters.Accept(e) && w.matcher.Match(e.Path) {
		w.send(e)
	}
}

func (w *Walker) send(e *Entry) {
	if w.cancel.IsSet() {
		return
	}
	if w.progress != nil {
		w.progress.IncMatched()
		if info, err := e.Metadata(); err == nil && !info.IsDir() {
			w.progress.AddBytes(info.Size())
		}
	}
	w.out <- Message{Kind: MsgEntry, Entry: e}
}

func (w *Walker) reportError(path string, err error) {
	if w.cancel.IsSet() {
		return
	}
	w.out <- Message{Kind: MsgError, Err: &WalkError{Path: path, Kind: ErrIO, Err: err}}
}

func (w *Walker) lookupState(dir string) *dirState {
	if v, ok := w.states.Load(dir); ok {
		return v.(*dirState)
	}
	return &dirState{stack: &IgnoreStack{}}
}

// layerDir reads dir's own .gitignore/.ignore/.fdignore files and pushes
// them onto parent. The global and custom ignore-file layers are pushed
// once, ahead of time, by buildAncestorStack; exclude globs are not part
// of the stack and are applied by the FilterSet.
func (w *Walker) layerDir(dir string, parent *IgnoreStack) *IgnoreStack {
	stack := parent
	if w.cfg.VCSIgnore {
		if lines, err := loadIgnoreFile(filepath.Join(dir, ".gitignore")); err == nil {
			stack = stack.Push(dir, lines)
		}
	}
	if w.cfg.IgnoreFiles {
		if lines, err := loadIgnoreFile(filepath.Join(dir, ".ignore")); err == nil {
			stack = stack.Push(dir, lines)
		}
		if lines, err := loadIgnoreFile(filepath.Join(dir, ".fdignore")); err == nil {
			stack = stack.Push(dir, lines)
		}
	}
	return stack
}

// buildAncestorStack seeds the stack the root directory should inherit:
// the global and custom ignore files, then, only when ParentIgnore is
// set, the ignore files of every directory from root's parent up to the
// first .git marker (or the filesystem root if none is found).
func (w *Walker) buildAncestorStack(absRoot string) (*IgnoreStack, bool) {
	stack := &IgnoreStack{}

	if w.cfg.GlobalIgnore && w.cfg.GlobalIgnorePath != "" {
		if lines, err := loadIgnoreFile(w.cfg.GlobalIgnorePath); err == nil {
			stack = stack.Push(filepath.Dir(absRoot), lines)
		}
	}
	for _, f := range w.cfg.CustomIgnoreFiles {
		if lines, err := loadIgnoreFile(f); err == nil {
			stack = stack.Push(filepath.Dir(absRoot), lines)
		}
	}

	if !w.cfg.ParentIgnore {
		return stack, hasGitMarker(absRoot)
	}

	var dirs []string
	gitSeen := false
	for dir := filepath.Dir(absRoot); ; dir = filepath.Dir(dir) {
		dirs = append(dirs, dir)
		if hasGitMarker(dir) {
			gitSeen = true
			break
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
	}
	for i := len(dirs) - 1; i >= 0; i-- {
		stack = w.layerDir(dirs[i], stack)
	}
	return stack, gitSeen
}

func (w *Walker) depthOf(root, path string) int {
	rel, err := filepath.Rel(root, path)
	if err != nil || rel == "." {
		return 0
	}
	return countSeparators(rel) + 1
}

func countSeparators(rel string) int {
	n := 0
	for _, r := range filepath.ToSlash(rel) {
		if r == '/' {
			n++
		}
	}
	return n
}

func isHiddenName(name string) bool {
	return len(name) > 0 && name[0] == '.' && name != "." && name != ".."
}

func hasGitMarker(dir string) bool {
	info, err := os.Stat(filepath.Join(dir, ".git"))
	return err == nil && (info.IsDir() || info.Mode().IsRegular())
}

// presentPath renders the path the way OutputConfig will see it: absolute
// if requested, otherwise joined onto the root the user actually typed.
// filepath.Join cleans the result, so a leading "./" on a root such as
// "./src" is dropped from every path below it.
func (w *Walker) presentPath(userRoot, absRoot, absPath string) string {
	if w.cfg.AbsolutePath {
		return absPath
	}
	rel, err := filepath.Rel(absRoot, absPath)
	if err != nil {
		return absPath
	}

	var joined string
	if rel == "." {
		joined = userRoot
	} else {
		joined = filepath.Join(userRoot, rel)
	}

	// filepath.Join already strips a leading "./" for an implicit root,
	// which is exactly "auto" per SPEC_FULL §11. "never" restores it;
	// "always" is a no-op since that is already the default behavior.
	if w.cfg.StripCwdPrefix == "never" && userRoot == "." && !filepath.IsAbs(joined) {
		return "./" + joined
	}
	return joined
}
