//go:build !linux

package platform

import (
	"errors"
	"os"
)

// FileFlags is only implemented on Linux.
func FileFlags(_ *os.Root, _ string) (uint32, error) {
	return 0, errors.ErrUnsupported
}
