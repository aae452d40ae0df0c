//go:build darwin

package walk

import (
	"io/fs"
	"syscall"
	"time"
)

var platformCapability = Capability{AccessTime: true, BirthTime: true, Unix: true}

func extractPlatform(info fs.FileInfo, md *Metadata) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	md.Accessed = timespec(st.Atimespec)
	md.Created = timespec(st.Birthtimespec)
	md.Unix = &UnixMetadata{
		Mode:    uint32(st.Mode),
		Inode:   st.Ino,
		Device:  uint64(uint32(st.Dev)), //nolint:gosec // dev_t is an opaque 32-bit value
		Links:   uint64(st.Nlink),
		UID:     st.Uid,
		GID:     st.Gid,
		Changed: timespec(st.Ctimespec),
	}
}

func timespec(ts syscall.Timespec) time.Time {
	sec, nsec := ts.Unix()
	return time.Unix(sec, nsec)
}
