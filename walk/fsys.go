package walk

import (
	"io/fs"
	"os"

	"github.com/meigma/timeline/internal/platform"
)

// dirFS is the filesystem surface the walker needs. Names are relative to
// the walk root and use the OS separator.
type dirFS interface {
	Lstat(name string) (fs.FileInfo, error)
	OpenDir(name string) (dirReader, error)
	Flags(name string) (uint32, error)
}

type dirReader interface {
	ReadDir(n int) ([]fs.DirEntry, error)
	Close() error
}

// rootFS confines every lookup to an os.Root, so a directory swapped for a
// symlink mid-walk cannot lead the walker outside the root.
type rootFS struct {
	root *os.Root
}

func (r rootFS) Lstat(name string) (fs.FileInfo, error) {
	return r.root.Lstat(name)
}

func (r rootFS) OpenDir(name string) (dirReader, error) {
	return r.root.Open(name)
}

func (r rootFS) Flags(name string) (uint32, error) {
	return platform.FileFlags(r.root, name)
}
