package memns

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aegistudio/go-memns/fserr"
)

func TestPathBasicOperations(t *testing.T) {
	assert := assert.New(t)
	fs := newTestFS(t, "mfs0", map[string]string{"separator": "\\"})
	root := fs.RootDirectories()[0]
	sep := fs.Separator()

	assert.Equal(sep, root.String())
	_, ok := root.Parent()
	assert.False(ok)

	absolute, err := root.ResolveString("absolute" + sep + "path")
	assert.NoError(err)
	assert.True(absolute.IsAbsolute())
	assert.Equal(sep+"absolute"+sep+"path", absolute.String())
	assert.False(absolute.Equal(mustPath(t, fs, "absolute"+sep+"path")))

	relative := mustPath(t, fs, "relative"+sep+"path")
	assert.False(relative.IsAbsolute())
	assert.Equal("relative"+sep+"path", relative.String())
	assert.True(root.Resolve(relative).Equal(relative.ToAbsolute()))

	resolved, err := relative.ResolveString("to" + sep + "file.txt")
	assert.NoError(err)
	assert.Equal("relative\\path\\to\\file.txt", resolved.String())
	assert.True(absolute.Equal(resolved.Resolve(absolute)))

	normalized := mustPath(t, fs, "dir1",
		".."+sep+"dir2"+sep+"."+sep+sep+"file.txt").Normalize()
	assert.Equal("dir2"+sep+"file.txt", normalized.String())
}

func TestPathTrailingSeparator(t *testing.T) {
	assert := assert.New(t)
	fs := newTestFS(t, "trailing", nil)
	assert.Equal("a/b", mustPath(t, fs, "a/b/").String())
	assert.Equal("/a/b", mustPath(t, fs, "/a//b/").String())
	assert.True(mustPath(t, fs, "a/b/").Equal(mustPath(t, fs, "a", "b")))
}

func TestPathNames(t *testing.T) {
	assert := assert.New(t)
	fs := newTestFS(t, "names", nil)
	p := mustPath(t, fs, "/a/b/c")

	assert.Equal(3, p.NameCount())
	assert.Equal([]string{"a", "b", "c"}, p.Names())
	assert.Equal("b", p.Name(1).String())
	name, ok := p.FileName()
	assert.True(ok)
	assert.Equal("c", name.String())

	parent, ok := p.Parent()
	assert.True(ok)
	assert.Equal("/a/b", parent.String())
	top := mustPath(t, fs, "/a")
	parent, ok = top.Parent()
	assert.True(ok)
	assert.Equal("/", parent.String())
	_, ok = mustPath(t, fs, "a").Parent()
	assert.False(ok)

	sub, err := p.Subpath(1, 3)
	assert.NoError(err)
	assert.Equal("b/c", sub.String())
	assert.False(sub.IsAbsolute())
	_, err = p.Subpath(2, 1)
	assert.True(fserr.Is(err, fserr.IllegalArgument))
	_, err = p.Subpath(0, 4)
	assert.True(fserr.Is(err, fserr.IllegalArgument))

	assert.True(p.StartsWith(mustPath(t, fs, "/a/b")))
	assert.False(p.StartsWith(mustPath(t, fs, "a/b")))
	assert.False(p.StartsWith(mustPath(t, fs, "/a/b/c/d")))
	assert.True(p.EndsWith(mustPath(t, fs, "b/c")))
	assert.True(p.EndsWith(mustPath(t, fs, "/a/b/c")))
	assert.False(p.EndsWith(mustPath(t, fs, "/b/c")))
	assert.False(p.EndsWith(mustPath(t, fs, "a/b")))

	joined, err := p.Join("d", "e")
	assert.NoError(err)
	assert.Equal("/a/b/c/d/e", joined.String())
	_, err = p.Join("x/y")
	assert.True(fserr.Is(err, fserr.InvalidPath))
	_, err = p.Join("")
	assert.True(fserr.Is(err, fserr.InvalidPath))
	_, err = p.Join("x\x00y")
	assert.True(fserr.Is(err, fserr.InvalidPath))
}

func TestPathNulName(t *testing.T) {
	assert := assert.New(t)
	fs := newTestFS(t, "nulname", nil)
	for _, in := range []string{"/a\x00b", "a\x00b", "/a/\x00", "x/y\x00"} {
		_, err := fs.Path(in)
		assert.True(fserr.Is(err, fserr.InvalidPath), in)
	}
	_, err := fs.Path("/a", "b\x00c")
	assert.True(fserr.Is(err, fserr.InvalidPath))

	// No object ever takes a key aliasing a nested one.
	dirA := mustPath(t, fs, "/a")
	assert.NoError(fs.CreateDirectory(dirA))
	assert.False(fs.Exists(mustPath(t, fs, "/a/b")))
	assert.NoError(fs.Delete(dirA))
}

func TestPathNormalize(t *testing.T) {
	fs := newTestFS(t, "normalize", nil)
	for _, c := range []struct {
		in, out string
	}{
		{"", "/"},
		{".", "."},
		{"./.", "."},
		{"./a", "a"},
		{"a/.", "a"},
		{"a/..", ""},
		{"..", ".."},
		{"./..", ".."},
		{"../../a", "../../a"},
		{"a/../../b", "../b"},
		{"a/b/../c/./d", "a/c/d"},
		{"/..", "/"},
		{"/./a/../b", "/b"},
		{"/a/../../b", "/b"},
	} {
		p := mustPath(t, fs, c.in)
		normalized := p.Normalize()
		assert.Equal(t, c.out, normalized.String(), "normalize %q", c.in)
		assert.Equal(t, normalized.String(), normalized.Normalize().String(),
			"normalize %q twice", c.in)
	}
}

func TestPathRelativize(t *testing.T) {
	fs := newTestFS(t, "relativize", nil)
	for _, c := range []struct {
		base, target, expected string
	}{
		{"base/dir", "base/dir", "."},
		{"base/dir", "base/dir/subdir/file.txt", "subdir/file.txt"},
		{"/base/dir", "/base/dir/subdir/file2.txt", "subdir/file2.txt"},
		{"basedir/subdir1/subsub", "basedir/subdir2/file3.txt",
			"../../subdir2/file3.txt"},
	} {
		base := mustPath(t, fs, c.base)
		target := mustPath(t, fs, c.target)
		rel, err := base.Relativize(target)
		assert.NoError(t, err)
		assert.Equal(t, c.expected, rel.String())
	}
}

func TestPathRelativizeLaw(t *testing.T) {
	assert := assert.New(t)
	fs := newTestFS(t, "law", nil)
	paths := []string{"/", "/a", "/a/b", "/a/c/d", "/x/y/z", "/a/b/c"}
	for _, a := range paths {
		for _, b := range paths {
			pa, pb := mustPath(t, fs, a), mustPath(t, fs, b)
			rel, err := pa.Relativize(pb)
			assert.NoError(err)
			assert.True(pa.Resolve(rel).Equal(pb),
				"%s resolve (%s relativize %s) = %s", a, a, b, pa.Resolve(rel))
		}
	}
}

func TestPathRelativizeFailures(t *testing.T) {
	assert := assert.New(t)
	mfs5 := newTestFS(t, "mfs5", nil)
	mfs6 := newTestFS(t, "mfs6", map[string]string{
		"roots.0.name": "", "roots.1.name": "@v1",
	})

	_, err := mustPath(t, mfs5, "/foo").Relativize(mustPath(t, mfs5, "bar"))
	assert.True(fserr.Is(err, fserr.IllegalArgument))
	_, err = mustPath(t, mfs5, "/foo").Relativize(mustPath(t, mfs6, "/foo"))
	assert.True(fserr.Is(err, fserr.IllegalArgument))
	_, err = mustPath(t, mfs6, "/foo/bar").Relativize(mustPath(t, mfs6, "@v1/bar"))
	assert.True(fserr.Is(err, fserr.IllegalArgument))
}

func TestPathMultiRoot(t *testing.T) {
	assert := assert.New(t)
	mfs1 := newTestFS(t, "mfs1", map[string]string{
		"roots.0.name": "", "roots.1.name": "@v1",
	})

	v1Root, ok := mustPath(t, mfs1, "@v1").Root()
	assert.True(ok)
	assert.Equal("@v1", v1Root.String())

	path1 := mustPath(t, mfs1, "@v1/foo/bar")
	assert.True(path1.IsAbsolute())
	root, _ := path1.Root()
	assert.True(mustPath(t, mfs1, "@v1").Equal(root))
	assert.True(mustPath(t, mfs1, "foo").Equal(path1.Name(0)))
	resolved, err := path1.ResolveString("/baz/quux")
	assert.NoError(err)
	assert.True(mustPath(t, mfs1, "/baz/quux").Equal(resolved))
	root, _ = resolved.Root()
	assert.True(mustPath(t, mfs1, "").Equal(root))

	path2 := mustPath(t, mfs1, "/foo")
	assert.True(path2.IsAbsolute())
	rootName, _ := path2.RootName()
	assert.Equal("", rootName)
	assert.Equal([]string{"foo"}, path2.Names())

	mfs2 := newTestFS(t, "mfs2", map[string]string{
		"roots.0.name": "", "roots.1.name": "/vol/@v1",
	})
	assert.Panics(func() {
		mustPath(t, mfs1, "/foo").Equal(mustPath(t, mfs2, "/foo"))
	})

	path3 := mustPath(t, mfs2, "/foo/bar")
	rootName, _ = path3.RootName()
	assert.Equal("", rootName)

	path4 := mustPath(t, mfs2, "/vol/@v1/foo/bar")
	assert.True(path4.IsAbsolute())
	rootName, _ = path4.RootName()
	assert.Equal("/vol/@v1", rootName)
	assert.Equal([]string{"foo", "bar"}, path4.Names())

	assert.False(mustPath(t, mfs2, "./foo/bar").IsAbsolute())

	// A root is only matched as a whole name.
	path5 := mustPath(t, mfs1, "@v1foo/bar")
	assert.False(path5.IsAbsolute())
}

func TestPathNonDefaultRoot(t *testing.T) {
	fs := newTestFS(t, "mfs3", map[string]string{
		"roots.0.name": "@v1", "roots.1.name": "/vol/@v2",
	})
	_, err := fs.Path("/foo/bar")
	assert.True(t, fserr.Is(err, fserr.InvalidPath))

	// Relative paths resolve against the first declared root.
	abs := mustPath(t, fs, "foo").ToAbsolute()
	assert.Equal(t, "@v1/foo", abs.String())
}

func TestPathCompare(t *testing.T) {
	assert := assert.New(t)
	fs := newTestFS(t, "compare", map[string]string{
		"roots.0.name": "", "roots.1.name": "@v1",
	})
	a, b := mustPath(t, fs, "/a"), mustPath(t, fs, "/b")
	assert.Equal(-1, a.Compare(b))
	assert.Equal(1, b.Compare(a))
	assert.Equal(0, a.Compare(mustPath(t, fs, "/x/../a")))

	// Same rendering, but one is relative.
	rooted := mustPath(t, fs, "@v1/a")
	relative := mustPath(t, fs, "./@v1/a").Normalize()
	assert.Equal(rooted.String(), relative.String())
	assert.False(rooted.Equal(relative))
	assert.Equal(-1, relative.Compare(rooted))
}

func TestPathToRealPath(t *testing.T) {
	fs := newTestFS(t, "real", nil)
	assert.Equal(t, "/b/c", mustPath(t, fs, "a/../b/./c").ToRealPath().String())
	assert.Equal(t, "/x", mustPath(t, fs, "../x").ToRealPath().String())
}
