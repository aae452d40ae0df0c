// Package record defines the wire record exported for every walked entry.
//
// A Record is the lossy projection of a walk.Entry: fields the platform did
// not supply, or that cannot be represented, are left nil rather than
// failing the conversion. Nil and zero are distinct on the wire.
package record

import (
	"math"
	"time"

	"github.com/meigma/timeline/walk"
)

// Record is one exported filesystem entry. Integer CBOR keys keep the
// encoding compact; keys are never reused.
type Record struct {
	// Path is the entry path as raw bytes. It is the only required field.
	Path []byte `cbor:"1,keyasint"`

	Size   *uint64 `cbor:"2,keyasint,omitempty"`
	Mode   *uint32 `cbor:"3,keyasint,omitempty"`
	Inode  *uint64 `cbor:"4,keyasint,omitempty"`
	Device *uint64 `cbor:"5,keyasint,omitempty"`
	UID    *uint32 `cbor:"6,keyasint,omitempty"`
	GID    *uint32 `cbor:"7,keyasint,omitempty"`

	AccessTimeNanos *int64 `cbor:"8,keyasint,omitempty"`
	ModifyTimeNanos *int64 `cbor:"9,keyasint,omitempty"`
	ChangeTimeNanos *int64 `cbor:"10,keyasint,omitempty"`
	BirthTimeNanos  *int64 `cbor:"11,keyasint,omitempty"`

	// Attributes holds the Linux inode flags (FS_IOC_GETFLAGS).
	Attributes *uint32 `cbor:"12,keyasint,omitempty"`
}

// FromEntry converts e into a Record. It never fails.
func FromEntry(e walk.Entry) Record {
	md := e.Metadata
	r := Record{
		Path:            []byte(e.Path),
		AccessTimeNanos: nanosPtr(md.Accessed),
		ModifyTimeNanos: nanosPtr(md.Modified),
		BirthTimeNanos:  nanosPtr(md.Created),
	}
	if md.Size >= 0 {
		r.Size = ptr(uint64(md.Size))
	}
	if ux := md.Unix; ux != nil {
		r.Mode = ptr(ux.Mode)
		r.Inode = ptr(ux.Inode)
		r.Device = ptr(ux.Device)
		r.UID = ptr(ux.UID)
		r.GID = ptr(ux.GID)
		r.ChangeTimeNanos = nanosPtr(ux.Changed)
	}
	if e.Flags != nil {
		r.Attributes = ptr(*e.Flags)
	}
	return r
}

var (
	minNanosTime = time.Unix(0, math.MinInt64)
	maxNanosTime = time.Unix(0, math.MaxInt64)
)

// Nanos returns t as nanoseconds since the Unix epoch. It reports false for
// the zero time and for times outside the int64 nanosecond range.
func Nanos(t time.Time) (int64, bool) {
	if t.IsZero() || t.Before(minNanosTime) || t.After(maxNanosTime) {
		return 0, false
	}
	return t.UnixNano(), true
}

// Time converts nanoseconds since the Unix epoch back to a UTC time.
func Time(nanos int64) time.Time {
	return time.Unix(0, nanos).UTC()
}

func nanosPtr(t time.Time) *int64 {
	n, ok := Nanos(t)
	if !ok {
		return nil
	}
	return &n
}

func ptr[T any](v T) *T {
	return &v
}
