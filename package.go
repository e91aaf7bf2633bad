// Package memns is an in-memory namespace of directories and
// regular files.
//
// A FileSystem instance is configured with a path separator and
// one or more named roots, each root backed by its own object
// store. Paths are immutable values parsed against an instance,
// and every operation of the instance takes paths of its own.
//
// Instances are created and looked up through a Provider, which
// addresses them by URIs of the form memns://<id>/<path>.
package memns
