//go:build linux

package parser

import (
	"os"
	"syscall"
	"time"
)

// createdTime returns the inode change time, the closest Linux
// offers to a creation time without statx.
func createdTime(info os.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
}
