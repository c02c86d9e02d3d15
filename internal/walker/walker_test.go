package walker

import (
	"sort"
	"testing"
	"time"

	"github.com/fenilsonani/hunt/internal/testutil"
)

func universalMatcher(t *testing.T) *PatternMatcher {
	t.Helper()
	m, err := NewPatternMatcher("", MatcherOptions{})
	if err != nil {
		t.Fatalf("NewPatternMatcher: %v", err)
	}
	return m
}

func drain(t *testing.T, ch <-chan Message) (entries []string, errs []*WalkError) {
	t.Helper()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			switch msg.Kind {
			case MsgEntry:
				entries = append(entries, msg.Entry.Path)
			case MsgError:
				errs = append(errs, msg.Err)
			case MsgQuit:
				return
			}
		case <-time.After(5 * time.Second):
			t.Fatal("timed out waiting for walker to finish")
			return
		}
	}
}

func relPaths(fx *testutil.TestFixture, abs []string) []string {
	out := make([]string, len(abs))
	for i, p := range abs {
		out[i] = fx.RelPath(p)
	}
	sort.Strings(out)
	return out
}

func baseConfig(fx *testutil.TestFixture) *WalkConfig {
	return &WalkConfig{
		Roots:         []string{fx.RootDir},
		Threads:       2,
		MaxBufferTime: time.Hour,
	}
}

func TestWalkerDefaultTraversalEmitsFilesAndDirs(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("a.txt", []byte("x"))
	fx.CreateFile("sub/b.txt", []byte("x"))
	fx.CreateDir("emptydir")

	w := New(baseConfig(fx), nil, universalMatcher(t), &CancelFlag{})
	got, errs := drain(t, w.Run())
	if len(errs) != 0 {
		t.Fatalf("unexpected errors: %v", errs)
	}

	want := []string{"a.txt", "emptydir", "sub", "sub/b.txt"}
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, want) {
		t.Errorf("got %v, want %v", gotRel, want)
	}
}

func TestWalkerHiddenFilesExcludedByDefault(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile(".hidden", []byte("x"))
	fx.CreateFile("visible.txt", []byte("x"))

	cfg := baseConfig(fx)
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, []string{"visible.txt"}) {
		t.Errorf("got %v, want only visible.txt", gotRel)
	}
}

func TestWalkerHiddenFlagIncludesDotfiles(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile(".hidden", []byte("x"))
	fx.CreateFile("visible.txt", []byte("x"))

	cfg := baseConfig(fx)
	cfg.Hidden = true
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	want := []string{".hidden", "visible.txt"}
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, want) {
		t.Errorf("got %v, want %v", gotRel, want)
	}
}

func TestWalkerRespectsGitignore(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateIgnoreFile(".gitignore", "*.log")
	fx.CreateFile("keep.txt", []byte("x"))
	fx.CreateFile("skip.log", []byte("x"))

	cfg := baseConfig(fx)
	cfg.VCSIgnore = true
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	// .gitignore itself is filtered out by the default hidden-file rule,
	// independent of its own ignore rules.
	want := []string{"keep.txt"}
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, want) {
		t.Errorf("got %v, want %v", gotRel, want)
	}
}

func TestWalkerRespectsIgnoreFile(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateIgnoreFile(".ignore", "ignored.foo")
	fx.CreateFile("keep.foo", []byte("x"))
	fx.CreateFile("ignored.foo", []byte("x"))

	cfg := baseConfig(fx)
	cfg.IgnoreFiles = true
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	want := []string{"keep.foo"}
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, want) {
		t.Errorf("got %v, want %v", gotRel, want)
	}
}

func TestWalkerFdignoreHonored(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateIgnoreFile(".fdignore", "*.tmp")
	fx.CreateFile("keep.txt", []byte("x"))
	fx.CreateFile("scratch.tmp", []byte("x"))

	cfg := baseConfig(fx)
	cfg.IgnoreFiles = true
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	want := []string{"keep.txt"}
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, want) {
		t.Errorf("got %v, want %v", gotRel, want)
	}
}

func TestWalkerNoIgnoreFilesDisablesIgnoreAndFdignore(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateIgnoreFile(".ignore", "ignored.foo")
	fx.CreateFile("keep.foo", []byte("x"))
	fx.CreateFile("ignored.foo", []byte("x"))

	cfg := baseConfig(fx)
	cfg.IgnoreFiles = false // --no-ignore
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	want := []string{"ignored.foo", "keep.foo"}
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, want) {
		t.Errorf("got %v, want %v (--no-ignore must also disable .ignore/.fdignore, not just .gitignore)", gotRel, want)
	}
}

func TestWalkerMinDepth(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("a.txt", []byte("x"))
	fx.CreateFile("sub/b.txt", []byte("x"))

	cfg := baseConfig(fx)
	cfg.MinDepth = 2
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, []string{"sub/b.txt"}) {
		t.Errorf("got %v, want only sub/b.txt", gotRel)
	}
}

func TestWalkerMaxDepth(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("a.txt", []byte("x"))
	fx.CreateFile("sub/b.txt", []byte("x"))
	fx.CreateDir("emptydir")

	cfg := baseConfig(fx)
	cfg.MaxDepth = 1
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	want := []string{"a.txt", "emptydir", "sub"}
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, want) {
		t.Errorf("got %v, want %v", gotRel, want)
	}
}

func TestWalkerExactDepth(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("a.txt", []byte("x"))
	fx.CreateFile("sub/b.txt", []byte("x"))

	cfg := baseConfig(fx)
	cfg.ExactDepth = 1
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	want := []string{"a.txt", "sub"}
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, want) {
		t.Errorf("got %v, want %v", gotRel, want)
	}
}

func TestWalkerPruneStopsDescentOnMatch(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("a/nested.txt", []byte("x"))
	fx.CreateFile("top.txt", []byte("x"))

	cfg := baseConfig(fx)
	cfg.Prune = true
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})
	got, _ := drain(t, w.Run())
	want := []string{"a", "top.txt"}
	if gotRel := relPaths(fx, got); !equalStrings(gotRel, want) {
		t.Errorf("got %v, want %v (a/nested.txt must not be visited once a/ is pruned)", gotRel, want)
	}
}

func TestWalkerFollowDoesNotHangOnSymlinkCycle(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateDir("real")
	fx.CreateSymlink(fx.Path("real"), "real/loop")

	cfg := baseConfig(fx)
	cfg.Follow = true
	w := New(cfg, nil, universalMatcher(t), &CancelFlag{})

	// drain's own timeout is what actually guards against a hang here; a
	// cycle under --follow must be caught by the CycleGuard rather than
	// walked forever.
	drain(t, w.Run())
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
