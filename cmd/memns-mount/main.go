//go:build linux

// memns-mount creates an in-memory namespace and mounts one of its
// roots through FUSE until it is interrupted.
//
// The namespace options come from an optional YAML file (see
// memns.DecodeOptions) and are overridden by the command line:
//
//	memns-mount --root @home --root @tmp --mount-root @tmp /mnt/scratch
//
// The contents vanish once the command exits.
package main

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"

	"github.com/aegistudio/go-memns"
	"github.com/aegistudio/go-memns/fusefs"
	"github.com/aegistudio/go-memns/gofs"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

type flags struct {
	config     string
	separator  string
	roots      []string
	id         string
	mountRoot  string
	seed       string
	allowOther bool
	debug      bool
}

func (f *flags) register(flagSet *pflag.FlagSet) {
	flagSet.StringVarP(&f.config, "config", "c", "", "YAML file holding the namespace options")
	flagSet.StringVar(&f.separator, "separator", memns.DefaultSeparator, "name separator of the namespace")
	flagSet.StringArrayVar(&f.roots, "root", nil, "root name, repeat for several roots (default: the empty root)")
	flagSet.StringVar(&f.id, "id", "", "instance identifier (default: a random UUID)")
	flagSet.StringVar(&f.mountRoot, "mount-root", "", "name of the root to mount (default: the first root)")
	flagSet.StringVar(&f.seed, "seed", "", "host directory copied into the mounted root before serving")
	flagSet.BoolVar(&f.allowOther, "allow-other", false, "allow other users to access the mount")
	flagSet.BoolVar(&f.debug, "debug", false, "log every failed request and trace FUSE traffic")
}

// options merges the configuration file with the command line,
// which takes precedence.
func (f *flags) options(flagSet *pflag.FlagSet) (map[string]string, error) {
	env := map[string]string{}
	if f.config != "" {
		data, err := os.ReadFile(f.config)
		if err != nil {
			return nil, errors.Wrap(err, "read config")
		}
		if env, err = memns.DecodeOptions(data); err != nil {
			return nil, errors.Wrapf(err, "decode config %q", f.config)
		}
		if env == nil {
			env = map[string]string{}
		}
	}
	if flagSet.Changed("separator") {
		env[memns.OptionSeparator] = f.separator
	}
	if flagSet.Changed("root") {
		for key := range env {
			if strings.HasPrefix(key, "roots.") {
				delete(env, key)
			}
		}
		for i, root := range f.roots {
			env[memns.RootOption(i)] = root
		}
	}
	return env, nil
}

// selectRoot finds the root directory named name, or the first
// one when no name is given.
func selectRoot(fs *memns.FileSystem, name string, given bool) (memns.Path, error) {
	roots := fs.RootDirectories()
	if !given {
		return roots[0], nil
	}
	for _, root := range roots {
		if rootName, _ := root.RootName(); rootName == name {
			return root, nil
		}
	}
	return memns.Path{}, errors.Errorf("no root named %q", name)
}

// seed copies the regular files and directories under dir into
// target. Other kinds of files are skipped.
func seed(target gofs.FileSystem, dir string) error {
	return filepath.WalkDir(dir, func(name string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(dir, name)
		if err != nil {
			return err
		}
		switch {
		case rel == ".":
			return nil
		case d.IsDir():
			return target.Mkdir(rel, 0o755)
		case !d.Type().IsRegular():
			return nil
		}
		data, err := os.ReadFile(name)
		if err != nil {
			return err
		}
		file, err := target.OpenFile(rel,
			os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			return err
		}
		if _, err := file.Write(data); err != nil {
			_ = file.Close()
			return err
		}
		return file.Close()
	})
}

func run() error {
	var f flags
	flagSet := pflag.NewFlagSet("memns-mount", pflag.ContinueOnError)
	f.register(flagSet)
	flagSet.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: memns-mount [flags] <mountpoint>\n\nFlags:\n")
		flagSet.PrintDefaults()
	}
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	if flagSet.NArg() != 1 {
		flagSet.Usage()
		return errors.New("exactly one mountpoint is required")
	}
	mountpoint := flagSet.Arg(0)

	level := slog.LevelInfo
	if f.debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr,
		&slog.HandlerOptions{Level: level}))

	env, err := f.options(flagSet)
	if err != nil {
		return err
	}
	id := f.id
	if id == "" {
		id = uuid.NewString()
	}
	provider := memns.NewProvider(memns.WithLogger(logger))
	memfs, err := provider.NewFileSystem(memns.Scheme+"://"+id, env)
	if err != nil {
		return err
	}
	defer memfs.Close()

	root, err := selectRoot(memfs, f.mountRoot, flagSet.Changed("mount-root"))
	if err != nil {
		return err
	}
	target := gofs.New(root)
	if f.seed != "" {
		if err := seed(target, f.seed); err != nil {
			return errors.Wrapf(err, "seed from %q", f.seed)
		}
	}

	server, err := fusefs.Mount(target, mountpoint,
		fusefs.WithLogger(logger),
		fusefs.FileSystemName("memns:"+id),
		fusefs.AllowOther(f.allowOther),
		fusefs.Debug(f.debug))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	done := make(chan struct{})
	go func() {
		server.Wait()
		close(done)
	}()
	select {
	case <-ctx.Done():
		logger.Info("unmounting", "mountpoint", mountpoint)
		if err := server.Unmount(); err != nil {
			return errors.Wrap(err, "unmount")
		}
		<-done
	case <-done:
	}
	return nil
}
