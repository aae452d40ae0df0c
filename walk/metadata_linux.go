//go:build linux

package walk

import (
	"io/fs"
	"syscall"
	"time"
)

// lstat on Linux carries no birth time; that needs statx.
var platformCapability = Capability{AccessTime: true, Unix: true}

func extractPlatform(info fs.FileInfo, md *Metadata) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	md.Accessed = timespec(st.Atim)
	md.Unix = &UnixMetadata{
		Mode:    st.Mode,
		Inode:   st.Ino,
		Device:  uint64(st.Dev), //nolint:unconvert // uint32 on some architectures
		Links:   uint64(st.Nlink), //nolint:unconvert // uint32 on some architectures
		UID:     st.Uid,
		GID:     st.Gid,
		Changed: timespec(st.Ctim),
	}
}

func timespec(ts syscall.Timespec) time.Time {
	sec, nsec := ts.Unix()
	return time.Unix(sec, nsec)
}
