//go:build !linux && !darwin && !windows

package walk

import "io/fs"

var platformCapability = Capability{}

func extractPlatform(fs.FileInfo, *Metadata) {}
