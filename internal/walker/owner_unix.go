//go:build !windows

package walker

import (
	"fmt"
	"os/user"
	"strconv"
	"sync"
	"syscall"
)

func ownerIDs(e *Entry) (uid, gid uint32, err error) {
	info, err := e.Metadata()
	if err != nil {
		return 0, 0, err
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return 0, 0, fmt.Errorf("%s: no stat_t", e.Path)
	}
	return st.Uid, st.Gid, nil
}

var (
	userCacheMu sync.Mutex
	userCache   = map[uint32]string{}
	groupCache  = map[uint32]string{}
)

func lookupOwnerNames(uid, gid uint32) (string, string) {
	userCacheMu.Lock()
	defer userCacheMu.Unlock()

	uname, ok := userCache[uid]
	if !ok {
		if u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10)); err == nil {
			uname = u.Username
		}
		userCache[uid] = uname
	}

	gname, ok := groupCache[gid]
	if !ok {
		if g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10)); err == nil {
			gname = g.Name
		}
		groupCache[gid] = gname
	}

	return uname, gname
}

// isExecutable implements the POSIX executable predicate: the mode bit
// consulted depends on whether the effective user is the owner, a member
// of the owning group, or neither.
func isExecutable(e *Entry) bool {
	info, err := e.Metadata()
	if err != nil {
		return false
	}
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.Mode()&0111 != 0
	}
	mode := info.Mode()
	euid := uint32(syscall.Geteuid())
	if euid == st.Uid {
		return mode&0100 != 0
	}
	if effectiveGroupMember(st.Gid) {
		return mode&0010 != 0
	}
	return mode&0001 != 0
}

func effectiveGroupMember(gid uint32) bool {
	if uint32(syscall.Getegid()) == gid {
		return true
	}
	groups, err := syscall.Getgroups()
	if err != nil {
		return false
	}
	for _, g := range groups {
		if uint32(g) == gid {
			return true
		}
	}
	return false
}
