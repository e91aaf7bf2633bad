//go:build linux

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"

	"github.com/aegistudio/go-memns"
	"github.com/aegistudio/go-memns/gofs"
)

func parseFlags(t *testing.T, args ...string) (*flags, *pflag.FlagSet) {
	t.Helper()
	var f flags
	flagSet := pflag.NewFlagSet("memns-mount", pflag.ContinueOnError)
	f.register(flagSet)
	if err := flagSet.Parse(args); err != nil {
		t.Fatal(err)
	}
	return &f, flagSet
}

func TestOptionsMerge(t *testing.T) {
	assert := assert.New(t)
	config := filepath.Join(t.TempDir(), "memns.yaml")
	assert.NoError(os.WriteFile(config, []byte(
		"separator: \"\\\\\"\nroots:\n  - name: \"C:\"\n  - name: \"D:\"\n"), 0o644))

	f, flagSet := parseFlags(t, "--config", config)
	env, err := f.options(flagSet)
	assert.NoError(err)
	assert.Equal(map[string]string{
		memns.OptionSeparator: "\\",
		memns.RootOption(0):   "C:",
		memns.RootOption(1):   "D:",
	}, env)

	f, flagSet = parseFlags(t, "--config", config,
		"--separator", "/", "--root", "@a")
	env, err = f.options(flagSet)
	assert.NoError(err)
	assert.Equal(map[string]string{
		memns.OptionSeparator: "/",
		memns.RootOption(0):   "@a",
	}, env)

	f, flagSet = parseFlags(t)
	env, err = f.options(flagSet)
	assert.NoError(err)
	assert.Empty(env)

	f, flagSet = parseFlags(t, "--config", filepath.Join(t.TempDir(), "missing"))
	_, err = f.options(flagSet)
	assert.Error(err)
}

func TestSelectRoot(t *testing.T) {
	assert := assert.New(t)
	fs, err := memns.NewProvider().NewFileSystem("memns://select", map[string]string{
		memns.RootOption(0): "@a",
		memns.RootOption(1): "@b",
	})
	assert.NoError(err)
	defer fs.Close()

	root, err := selectRoot(fs, "", false)
	assert.NoError(err)
	name, _ := root.RootName()
	assert.Equal("@a", name)

	root, err = selectRoot(fs, "@b", true)
	assert.NoError(err)
	name, _ = root.RootName()
	assert.Equal("@b", name)

	_, err = selectRoot(fs, "@c", true)
	assert.Error(err)
}

func TestSeed(t *testing.T) {
	assert := assert.New(t)
	dir := t.TempDir()
	assert.NoError(os.MkdirAll(filepath.Join(dir, "a", "b"), 0o755))
	assert.NoError(os.WriteFile(filepath.Join(dir, "a", "b", "f"), []byte("data"), 0o644))
	assert.NoError(os.WriteFile(filepath.Join(dir, "top"), []byte("top"), 0o644))

	fs, err := memns.NewProvider().NewFileSystem("memns://seed", nil)
	assert.NoError(err)
	defer fs.Close()
	root, err := fs.Path("/")
	assert.NoError(err)
	assert.NoError(seed(gofs.New(root), dir))

	p, err := fs.Path("/a/b/f")
	assert.NoError(err)
	data, err := fs.ReadFile(p)
	assert.NoError(err)
	assert.Equal("data", string(data))
	names, err := fs.ReadDirNames(root)
	assert.NoError(err)
	assert.Equal([]string{"a", "top"}, names)
}
