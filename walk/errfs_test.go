package walk

import (
	"io/fs"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

// errFS wraps rootFS and fails or redirects operations per relative name.
type errFS struct {
	rootFS
	lstat   map[string]error
	openDir map[string]error
	readDir map[string]error
	// alias makes Lstat(name) report the info of another name.
	alias map[string]string
}

func newErrFS(t *testing.T, dir string) (*errFS, *os.Root) {
	t.Helper()
	root, err := os.OpenRoot(dir)
	require.NoError(t, err)
	t.Cleanup(func() { root.Close() })
	return &errFS{
		rootFS:  rootFS{root: root},
		lstat:   map[string]error{},
		openDir: map[string]error{},
		readDir: map[string]error{},
		alias:   map[string]string{},
	}, root
}

func (e *errFS) Lstat(name string) (fs.FileInfo, error) {
	if err, ok := e.lstat[name]; ok {
		return nil, err
	}
	if target, ok := e.alias[name]; ok {
		name = target
	}
	return e.rootFS.Lstat(name)
}

func (e *errFS) OpenDir(name string) (dirReader, error) {
	if err, ok := e.openDir[name]; ok {
		return nil, err
	}
	d, err := e.rootFS.OpenDir(name)
	if err != nil {
		return nil, err
	}
	if err, ok := e.readDir[name]; ok {
		return &errDir{dirReader: d, err: err}, nil
	}
	return d, nil
}

// errDir returns the first batch of entries together with err.
type errDir struct {
	dirReader
	err error
}

func (d *errDir) ReadDir(n int) ([]fs.DirEntry, error) {
	entries, err := d.dirReader.ReadDir(n)
	if err != nil {
		return entries, err
	}
	return entries, d.err
}
