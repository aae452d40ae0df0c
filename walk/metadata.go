package walk

import (
	"io/fs"
	"time"
)

// Metadata is the normalized view of one lstat result.
//
// Size, Mode and Modified are always present. Accessed and Created are the
// zero time when the platform does not supply them. Unix is nil on
// platforms without POSIX stat fields.
type Metadata struct {
	Size     int64
	Mode     fs.FileMode
	Modified time.Time
	Accessed time.Time
	Created  time.Time
	Unix     *UnixMetadata
}

// UnixMetadata holds the POSIX-only stat fields.
type UnixMetadata struct {
	// Mode is the raw st_mode, including the file type bits.
	Mode    uint32
	Inode   uint64
	Device  uint64
	Links   uint64
	UID     uint32
	GID     uint32
	Changed time.Time
}

// Capability reports which optional metadata the running platform supplies.
type Capability struct {
	AccessTime bool
	BirthTime  bool
	Unix       bool
}

// Capabilities returns the optional metadata Extract fills on this platform.
func Capabilities() Capability {
	return platformCapability
}

// Extract normalizes info into Metadata. It performs no I/O: every field
// comes from info itself or from its Sys() value.
func Extract(info fs.FileInfo) Metadata {
	md := Metadata{
		Size:     info.Size(),
		Mode:     info.Mode(),
		Modified: info.ModTime(),
	}
	extractPlatform(info, &md)
	return md
}

// fileID identifies a directory for revisit detection.
type fileID struct {
	dev, ino uint64
}

func (md *Metadata) identity() (fileID, bool) {
	if md.Unix == nil {
		return fileID{}, false
	}
	return fileID{dev: md.Unix.Device, ino: md.Unix.Inode}, true
}
