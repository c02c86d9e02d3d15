package walker

import (
	"strconv"
	"strings"
	"time"
)

// EntryType is one selectable value of the --type flag.
type EntryType string

const (
	TypeFile        EntryType = "file"
	TypeDirectory   EntryType = "directory"
	TypeSymlink     EntryType = "symlink"
	TypeExecutable  EntryType = "executable"
	TypeEmpty       EntryType = "empty"
	TypeSocket      EntryType = "socket"
	TypePipe        EntryType = "pipe"
	TypeBlockDevice EntryType = "block-device"
	TypeCharDevice  EntryType = "char-device"
)

// SizeOp is the relational operator of a --size constraint.
type SizeOp int

const (
	SizeAtLeast SizeOp = iota
	SizeAtMost
	SizeEqual
)

// SizeConstraint is one parsed --size occurrence. Multiple occurrences
// combine with logical AND.
type SizeConstraint struct {
	Op    SizeOp
	Bytes int64
}

func (c SizeConstraint) matches(n int64) bool {
	switch c.Op {
	case SizeAtLeast:
		return n >= c.Bytes
	case SizeAtMost:
		return n <= c.Bytes
	default:
		return n == c.Bytes
	}
}

// TimeWindow bounds an mtime filter. A nil bound is unbounded on that side.
type TimeWindow struct {
	After  *time.Time
	Before *time.Time
}

func (w TimeWindow) isSet() bool {
	return w.After != nil || w.Before != nil
}

func (w TimeWindow) matches(t time.Time) bool {
	if w.After != nil && t.Before(*w.After) {
		return false
	}
	if w.Before != nil && t.After(*w.Before) {
		return false
	}
	return true
}

// OwnerConstraint parses "[!]user[:[!]group]". An empty side matches any
// owner on that side.
type OwnerConstraint struct {
	User        string
	UserNegate  bool
	Group       string
	GroupNegate bool
	HasGroup    bool
}

// ParseOwnerConstraint parses the --owner flag value.
func ParseOwnerConstraint(spec string) OwnerConstraint {
	var c OwnerConstraint
	userPart, groupPart, hasGroup := strings.Cut(spec, ":")
	c.HasGroup = hasGroup

	c.User, c.UserNegate = cutNegate(userPart)
	if hasGroup {
		c.Group, c.GroupNegate = cutNegate(groupPart)
	}
	return c
}

func cutNegate(s string) (string, bool) {
	if strings.HasPrefix(s, "!") {
		return s[1:], true
	}
	return s, false
}

func ownerSideMatches(want string, negate bool, have string, haveID string) bool {
	if want == "" {
		return true
	}
	matched := want == have || want == haveID
	if negate {
		return !matched
	}
	return matched
}

// FilterSet is the ordered collection of predicates an Entry must satisfy.
// It is immutable after construction and shared by reference across
// workers.
type FilterSet struct {
	Types      []EntryType
	Extensions []string // lower-cased, without leading dot
	Sizes      []SizeConstraint
	MTime      TimeWindow
	Owner      *OwnerConstraint

	excludeGlobs *globSet
}

// NewFilterSet builds a FilterSet, pre-lowering extensions and compiling
// the exclude-glob set.
func NewFilterSet(types []EntryType, extensions []string, sizes []SizeConstraint, mtime TimeWindow, owner *OwnerConstraint, excludeGlobs []string) *FilterSet {
	exts := make([]string, len(extensions))
	for i, e := range extensions {
		exts[i] = strings.ToLower(strings.TrimPrefix(e, "."))
	}
	return &FilterSet{
		Types:        types,
		Extensions:   exts,
		Sizes:        sizes,
		MTime:        mtime,
		Owner:        owner,
		excludeGlobs: newGlobSet(excludeGlobs),
	}
}

// Accept evaluates every predicate against e, fetching metadata lazily and
// at most once. It does not evaluate depth bounds or prune, which the
// walker applies directly since they depend on traversal position.
func (f *FilterSet) Accept(e *Entry) bool {
	if f == nil {
		return true
	}
	if len(f.Types) > 0 && !f.matchesAnyType(e) {
		return false
	}
	if len(f.Extensions) > 0 && !f.matchesExtension(e.Path) {
		return false
	}
	if len(f.Sizes) > 0 && !f.matchesSize(e) {
		return false
	}
	if f.MTime.isSet() && !f.matchesMTime(e) {
		return false
	}
	if f.Owner != nil && !f.matchesOwner(e) {
		return false
	}
	if f.excludeGlobs != nil && f.excludeGlobs.MatchesAny(e.Path) {
		return false
	}
	return true
}

func (f *FilterSet) matchesExtension(path string) bool {
	name := path
	if i := strings.LastIndexByte(name, '/'); i >= 0 {
		name = name[i+1:]
	}
	name = strings.ToLower(name)
	for _, want := range f.Extensions {
		if want == "" {
			continue
		}
		if strings.HasSuffix(name, "."+want) {
			return true
		}
	}
	return false
}

func (f *FilterSet) matchesSize(e *Entry) bool {
	info, err := e.Metadata()
	if err != nil {
		return false
	}
	n := info.Size()
	for _, c := range f.Sizes {
		if !c.matches(n) {
			return false
		}
	}
	return true
}

func (f *FilterSet) matchesMTime(e *Entry) bool {
	info, err := e.Metadata()
	if err != nil {
		return false
	}
	return f.MTime.matches(info.ModTime())
}

func (f *FilterSet) matchesOwner(e *Entry) bool {
	uid, gid, err := ownerIDs(e)
	if err != nil {
		return false
	}
	uname, gname := lookupOwnerNames(uid, gid)

	if !ownerSideMatches(f.Owner.User, f.Owner.UserNegate, uname, strconv.FormatUint(uint64(uid), 10)) {
		return false
	}
	if f.Owner.HasGroup && !ownerSideMatches(f.Owner.Group, f.Owner.GroupNegate, gname, strconv.FormatUint(uint64(gid), 10)) {
		return false
	}
	return true
}
