// Package walk enumerates a directory subtree lazily, yielding one Entry per
// filesystem object together with the metadata its lstat call produced.
//
// The walk is depth first and pre-order: a directory is yielded before its
// children, and its whole subtree is traversed before its next sibling.
// Children appear in the order the operating system returns them; callers
// needing a stable order must sort downstream.
//
// Symbolic links are reported as entries in their own right and are never
// expanded. A directory identity (device, inode) is expanded at most once
// per walk, so bind-mount loops terminate as well.
//
// A failure to read the root is fatal and reported by [Open]. Failures on
// descendants are returned from [Walker.Next] as [*EntryError] values and
// the walk continues with the next entry.
package walk
