// Package gofs exposes a directory of an in-memory namespace
// through the Go file system interfaces.
//
// FileSystem is the os-style contract: names are slash separated
// and relative to the directory the adapter was created on, files
// are opened with the os.O_* flags, and both files and directories
// come back as a File. FS is the read-only io/fs view of the same
// directory, usable with fs.WalkDir, fs.ReadFile and friends.
//
// Only regular files and directories exist. The permission bits
// passed to OpenFile and Mkdir are accepted and ignored, and the
// modes reported by Stat are fixed.
package gofs
