//go:build !windows

package walker

import (
	"io/fs"
	"syscall"
)

func deviceInode(info fs.FileInfo) (dev, ino uint64, ok bool) {
	st, okCast := info.Sys().(*syscall.Stat_t)
	if !okCast {
		return 0, 0, false
	}
	return uint64(st.Dev), uint64(st.Ino), true
}
