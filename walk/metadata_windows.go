//go:build windows

package walk

import (
	"io/fs"
	"syscall"
	"time"
)

var platformCapability = Capability{AccessTime: true, BirthTime: true}

func extractPlatform(info fs.FileInfo, md *Metadata) {
	attrs, ok := info.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return
	}
	md.Accessed = filetime(attrs.LastAccessTime)
	md.Created = filetime(attrs.CreationTime)
}

// filetime converts a FILETIME. A zero FILETIME means the file system did
// not record the time and maps to the zero time.
func filetime(ft syscall.Filetime) time.Time {
	if ft.HighDateTime == 0 && ft.LowDateTime == 0 {
		return time.Time{}
	}
	return time.Unix(0, ft.Nanoseconds())
}
