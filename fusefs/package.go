// Package fusefs serves a gofs.FileSystem through FUSE.
//
// The kernel's node tree is kept by go-fuse. Every request is
// turned back into the slash separated name of the node and
// forwarded to the file system, so renames and removals made
// directly on the file system are picked up by the next lookup.
package fusefs
