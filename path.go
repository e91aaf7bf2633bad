package memns

import (
	"slices"
	"strings"

	"github.com/aegistudio/go-memns/fserr"
	"github.com/aegistudio/go-memns/pathlock"
)

const (
	currentDir = "."
	parentDir  = ".."
)

// Path is an immutable path of a FileSystem.
//
// An absolute path carries one of the roots of its file system,
// a relative path carries none. The names are never empty and
// contain neither the separator nor a NUL byte. Values are safe to copy.
type Path struct {
	fs     *FileSystem
	root   string
	rooted bool
	names  []string
}

// splitNames splits s on sep, dropping empty names.
func splitNames(s, sep string) []string {
	var names []string
	for _, name := range strings.Split(s, sep) {
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

// parse detects the root of the input and splits the rest of it.
//
// Roots are tried longest first, so that a root nested in the
// name of another never shadows it. An input starting with the
// separator but matching no root is rejected rather than being
// guessed to be relative.
func (fs *FileSystem) parse(in string) (Path, error) {
	for _, root := range fs.matchOrder {
		var rest string
		switch {
		case in == root:
		case strings.HasPrefix(in, root+fs.separator):
			rest = in[len(root)+len(fs.separator):]
		default:
			continue
		}
		names, err := checkNames("parse", in, splitNames(rest, fs.separator))
		if err != nil {
			return Path{}, err
		}
		return Path{fs: fs, root: root, rooted: true, names: names}, nil
	}
	if strings.HasPrefix(in, fs.separator) {
		return Path{}, fserr.Newf("parse", in, fserr.InvalidPath,
			"path starts with separator but matches no root")
	}
	names, err := checkNames("parse", in, splitNames(in, fs.separator))
	if err != nil {
		return Path{}, err
	}
	return Path{fs: fs, names: names}, nil
}

// checkNames rejects names the object store cannot key.
func checkNames(op, in string, names []string) ([]string, error) {
	for _, name := range names {
		if !pathlock.ValidName(name) {
			return nil, fserr.Newf(op, in, fserr.InvalidPath,
				"invalid name %q", name)
		}
	}
	return names, nil
}

// FileSystem returns the file system the path belongs to.
func (p Path) FileSystem() *FileSystem {
	return p.fs
}

// IsAbsolute reports whether the path has a root.
func (p Path) IsAbsolute() bool {
	return p.rooted
}

// RootName returns the name of the root of an absolute path.
func (p Path) RootName() (string, bool) {
	return p.root, p.rooted
}

// Root returns the root directory of an absolute path.
func (p Path) Root() (Path, bool) {
	if !p.rooted {
		return Path{}, false
	}
	return Path{fs: p.fs, root: p.root, rooted: true}, true
}

// NameCount is the number of names, excluding the root.
func (p Path) NameCount() int {
	return len(p.names)
}

// Names returns a copy of the names, excluding the root.
func (p Path) Names() []string {
	return slices.Clone(p.names)
}

// Name returns the i-th name as a relative path. It panics when
// i is out of range.
func (p Path) Name(i int) Path {
	return Path{fs: p.fs, names: []string{p.names[i]}}
}

// FileName returns the last name as a relative path.
func (p Path) FileName() (Path, bool) {
	if len(p.names) == 0 {
		return Path{}, false
	}
	return p.Name(len(p.names) - 1), true
}

// Parent returns the path without its last name. A relative
// path of a single name has no parent, while the parent of an
// absolute one is its root.
func (p Path) Parent() (Path, bool) {
	if len(p.names) == 0 || (len(p.names) == 1 && !p.rooted) {
		return Path{}, false
	}
	return p.withNames(slices.Clone(p.names[:len(p.names)-1])), true
}

// Subpath returns the relative path of names [begin, end).
func (p Path) Subpath(begin, end int) (Path, error) {
	if begin < 0 || end > len(p.names) || begin > end {
		return Path{}, fserr.Newf("subpath", p.String(), fserr.IllegalArgument,
			"invalid range [%d, %d), should be within [0, %d]",
			begin, end, len(p.names))
	}
	return Path{fs: p.fs, names: slices.Clone(p.names[begin:end])}, nil
}

func (p Path) withNames(names []string) Path {
	return Path{fs: p.fs, root: p.root, rooted: p.rooted, names: names}
}

func (p Path) sameRoot(other Path) bool {
	return p.rooted == other.rooted && p.root == other.root
}

// StartsWith reports whether other is a leading part of p, with
// the same root.
func (p Path) StartsWith(other Path) bool {
	if p.fs != other.fs || !p.sameRoot(other) ||
		len(other.names) > len(p.names) {
		return false
	}
	return slices.Equal(p.names[:len(other.names)], other.names)
}

// EndsWith reports whether other is a trailing part of p. An
// absolute other must be equal to p.
func (p Path) EndsWith(other Path) bool {
	if p.fs != other.fs {
		return false
	}
	if other.rooted {
		return p.sameRoot(other) && slices.Equal(p.names, other.names)
	}
	if len(other.names) == 0 {
		return len(p.names) == 0 && !p.rooted
	}
	if len(other.names) > len(p.names) {
		return false
	}
	return slices.Equal(p.names[len(p.names)-len(other.names):], other.names)
}

// Normalize removes the "." and ".." names that can be resolved
// lexically.
//
// A relative path keeps leading ".." names, and "." is kept only
// when it is the only name left. An absolute path drops both, as
// nothing lies above a root.
func (p Path) Normalize() Path {
	var out []string
	for _, name := range p.names {
		switch name {
		case currentDir:
			if len(out) == 0 && !p.rooted {
				out = append(out, currentDir)
			}
		case parentDir:
			last := len(out) - 1
			switch {
			case last < 0:
				if !p.rooted {
					out = append(out, parentDir)
				}
			case out[last] == parentDir:
				out = append(out, parentDir)
			case out[last] == currentDir:
				out[last] = parentDir
			default:
				out = out[:last]
			}
		default:
			if len(out) == 1 && out[0] == currentDir {
				out = out[:0]
			}
			out = append(out, name)
		}
	}
	return p.withNames(out)
}

// Resolve resolves other against p. An absolute other is
// returned as is, and an empty other yields p.
func (p Path) Resolve(other Path) Path {
	if other.rooted {
		return other
	}
	if len(other.names) == 0 {
		return p
	}
	return p.withNames(slices.Concat(p.names, other.names))
}

// ResolveString parses other and resolves it against p.
func (p Path) ResolveString(other string) (Path, error) {
	parsed, err := p.fs.parse(other)
	if err != nil {
		return Path{}, err
	}
	return p.Resolve(parsed), nil
}

// Join appends raw names to the path without parsing them.
func (p Path) Join(names ...string) (Path, error) {
	for _, name := range names {
		if !pathlock.ValidName(name) || strings.Contains(name, p.fs.separator) {
			return Path{}, fserr.Newf("join", p.String(), fserr.InvalidPath,
				"invalid name %q", name)
		}
	}
	return p.withNames(slices.Concat(p.names, names)), nil
}

// Relativize constructs the relative path leading from p to
// other, so that p.Resolve(p.Relativize(other)) equals other.
// Both must be of the same file system, and either both be
// relative or both be absolute under the same root.
func (p Path) Relativize(other Path) (Path, error) {
	if p.fs != other.fs {
		return Path{}, fserr.Newf("relativize", p.String(), fserr.IllegalArgument,
			"%q belongs to a different file system", other.String())
	}
	if p.rooted != other.rooted {
		return Path{}, fserr.Newf("relativize", p.String(), fserr.IllegalArgument,
			"either both or none of the paths must be absolute, got %q",
			other.String())
	}
	if p.rooted && p.root != other.root {
		return Path{}, fserr.Newf("relativize", p.String(), fserr.IllegalArgument,
			"%q is under a different root", other.String())
	}
	if p.Equal(other) {
		return Path{fs: p.fs, names: []string{currentDir}}, nil
	}
	if !p.rooted && len(p.names) == 0 {
		return other, nil
	}
	common := 0
	for common < len(p.names) && common < len(other.names) &&
		p.names[common] == other.names[common] {
		common++
	}
	var names []string
	for i := common; i < len(p.names); i++ {
		names = append(names, parentDir)
	}
	names = append(names, other.names[common:]...)
	return Path{fs: p.fs, names: names}, nil
}

// ToAbsolute resolves a relative path against the first root of
// its file system. There is no notion of a current directory.
func (p Path) ToAbsolute() Path {
	if p.rooted {
		return p
	}
	return Path{
		fs:     p.fs,
		root:   p.fs.roots[0],
		rooted: true,
		names:  slices.Clone(p.names),
	}
}

// ToRealPath returns the canonical absolute form of the path,
// which is the key it is stored under.
func (p Path) ToRealPath() Path {
	return p.ToAbsolute().Normalize()
}

// String joins the root and the names with the separator. The
// root named "" alone is rendered as the separator.
func (p Path) String() string {
	if p.fs == nil {
		return ""
	}
	if p.rooted && p.root == "" && len(p.names) == 0 {
		return p.fs.separator
	}
	parts := p.names
	if p.rooted {
		parts = slices.Concat([]string{p.root}, p.names)
	}
	return strings.Join(parts, p.fs.separator)
}

// Compare orders paths by their normalized string form, putting
// a relative path before an absolute one of the same form.
//
// Comparing paths of different file systems is a programming
// error, and it panics.
func (p Path) Compare(other Path) int {
	if p.fs != other.fs {
		panic(fserr.Newf("compare", p.String(), fserr.IllegalArgument,
			"%q belongs to a different file system", other.String()))
	}
	if c := strings.Compare(p.Normalize().String(), other.Normalize().String()); c != 0 {
		return c
	}
	switch {
	case p.rooted == other.rooted:
		return 0
	case p.rooted:
		return 1
	default:
		return -1
	}
}

// Equal reports whether the paths compare equal, it panics like
// Compare for paths of different file systems.
func (p Path) Equal(other Path) bool {
	return p.Compare(other) == 0
}
