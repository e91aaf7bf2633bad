package memns

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func newTestFS(t *testing.T, id string, env map[string]string) *FileSystem {
	t.Helper()
	fs, err := NewProvider().NewFileSystem(Scheme+"://"+id, env)
	require.NoError(t, err)
	t.Cleanup(func() { _ = fs.Close() })
	return fs
}

func mustPath(t *testing.T, fs *FileSystem, first string, more ...string) Path {
	t.Helper()
	p, err := fs.Path(first, more...)
	require.NoError(t, err)
	return p
}
