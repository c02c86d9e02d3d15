package walker

import (
	"testing"
	"time"

	"github.com/fenilsonani/hunt/internal/testutil"
)

func entryFor(fx *testutil.TestFixture, relPath string) *Entry {
	abs := fx.Path(relPath)
	return NewEntry(relPath, abs, 1, nil, false)
}

func TestFilterSetExtension(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("notes.TXT", []byte("x"))
	fx.CreateFile("main.go", []byte("x"))

	fs := NewFilterSet(nil, []string{".txt"}, nil, TimeWindow{}, nil, nil)

	if !fs.Accept(entryFor(fx, "notes.TXT")) {
		t.Error("expected case-insensitive extension match for notes.TXT")
	}
	if fs.Accept(entryFor(fx, "main.go")) {
		t.Error("main.go should not pass a .txt extension filter")
	}
}

func TestFilterSetExtensionMultiDot(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("archive.tar.gz", []byte("x"))
	fx.CreateFile("plain.gz", []byte("x"))

	single := NewFilterSet(nil, []string{"gz"}, nil, TimeWindow{}, nil, nil)
	if !single.Accept(entryFor(fx, "archive.tar.gz")) {
		t.Error("--extension gz should match archive.tar.gz (the common single-suffix case)")
	}
	if !single.Accept(entryFor(fx, "plain.gz")) {
		t.Error("--extension gz should match plain.gz")
	}

	compound := NewFilterSet(nil, []string{"tar.gz"}, nil, TimeWindow{}, nil, nil)
	if !compound.Accept(entryFor(fx, "archive.tar.gz")) {
		t.Error("--extension tar.gz should match archive.tar.gz (multi-dot extensions permitted)")
	}
	if compound.Accept(entryFor(fx, "plain.gz")) {
		t.Error("--extension tar.gz should not match plain.gz")
	}
}

func TestFilterSetSize(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("big.bin", make([]byte, 2048))
	fx.CreateFile("small.bin", make([]byte, 10))

	fs := NewFilterSet(nil, nil, []SizeConstraint{{Op: SizeAtLeast, Bytes: 1024}}, TimeWindow{}, nil, nil)

	if !fs.Accept(entryFor(fx, "big.bin")) {
		t.Error("expected big.bin (2048 bytes) to satisfy >= 1024 bytes")
	}
	if fs.Accept(entryFor(fx, "small.bin")) {
		t.Error("small.bin (10 bytes) should not satisfy >= 1024 bytes")
	}
}

func TestFilterSetMTime(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFileWithAge("old.txt", []byte("x"), 48*time.Hour)
	fx.CreateFile("new.txt", []byte("x"))

	cutoff := time.Now().Add(-24 * time.Hour)
	fs := NewFilterSet(nil, nil, nil, TimeWindow{After: &cutoff}, nil, nil)

	if fs.Accept(entryFor(fx, "old.txt")) {
		t.Error("a 48h-old file should not pass a 24h-After window")
	}
	if !fs.Accept(entryFor(fx, "new.txt")) {
		t.Error("a fresh file should pass a 24h-After window")
	}
}

func TestFilterSetExcludeGlob(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("vendor/lib.go", []byte("x"))
	fx.CreateFile("src/lib.go", []byte("x"))

	fs := NewFilterSet(nil, nil, nil, TimeWindow{}, nil, []string{"vendor/**"})

	if fs.Accept(entryFor(fx, "vendor/lib.go")) {
		t.Error("vendor/lib.go should be rejected by the exclude glob")
	}
	if !fs.Accept(entryFor(fx, "src/lib.go")) {
		t.Error("src/lib.go should not be affected by a vendor/** exclude")
	}
}

func TestFilterSetNilAcceptsEverything(t *testing.T) {
	var fs *FilterSet
	fx := testutil.NewFixture(t)
	fx.CreateFile("anything.txt", []byte("x"))
	if !fs.Accept(entryFor(fx, "anything.txt")) {
		t.Error("a nil FilterSet must accept every entry")
	}
}

func TestParseOwnerConstraint(t *testing.T) {
	c := ParseOwnerConstraint("!root:staff")
	if c.User != "root" || !c.UserNegate {
		t.Errorf("expected negated user root, got %+v", c)
	}
	if !c.HasGroup || c.Group != "staff" || c.GroupNegate {
		t.Errorf("expected non-negated group staff, got %+v", c)
	}
}

func TestIsEmpty(t *testing.T) {
	fx := testutil.NewFixture(t)
	fx.CreateFile("empty.txt", []byte{})
	fx.CreateFile("full.txt", []byte("data"))
	fx.CreateDir("emptydir")
	fx.CreateDir("fulldir/child")

	fs := NewFilterSet([]EntryType{TypeEmpty}, nil, nil, TimeWindow{}, nil, nil)

	if !fs.Accept(entryFor(fx, "empty.txt")) {
		t.Error("empty.txt should match --type empty")
	}
	if fs.Accept(entryFor(fx, "full.txt")) {
		t.Error("full.txt should not match --type empty")
	}
	if !fs.Accept(entryFor(fx, "emptydir")) {
		t.Error("emptydir should match --type empty")
	}
	if fs.Accept(entryFor(fx, "fulldir")) {
		t.Error("fulldir (has a child) should not match --type empty")
	}
}
