// Package platform wraps OS-specific file queries that the walker uses
// beyond a plain lstat.
package platform

import "errors"

// ErrSymlink is returned when a flag query reaches a symbolic link.
var ErrSymlink = errors.New("platform: symbolic link not followed")
