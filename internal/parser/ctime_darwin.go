//go:build darwin

package parser

import (
	"os"
	"syscall"
	"time"
)

func createdTime(info os.FileInfo) time.Time {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return info.ModTime()
	}
	return time.Unix(
		int64(st.Birthtimespec.Sec), int64(st.Birthtimespec.Nsec),
	)
}
