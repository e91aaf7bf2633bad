package memns

import (
	"log/slog"
	"net/url"
	"strings"
	"sync"

	"github.com/aegistudio/go-memns/fserr"
)

const (
	// Scheme is the URI scheme addressing instances.
	Scheme = "memns"

	// DefaultID identifies the instance addressed by a URI
	// without authority.
	DefaultID = "default"
)

type option struct {
	logger *slog.Logger
}

func newOption() *option {
	return &option{}
}

// Option is the options that could be passed to NewProvider.
type Option func(*option)

// WithLogger sets the logger of the provider and of the file
// systems it creates. Nothing is logged by default.
func WithLogger(logger *slog.Logger) Option {
	return func(o *option) {
		o.logger = logger
	}
}

// Options is used to aggregate a bundle of options.
func Options(opts ...Option) Option {
	return func(o *option) {
		for _, opt := range opts {
			opt(o)
		}
	}
}

// Provider is the registry of live FileSystem instances, keyed
// by the authority of their URIs.
type Provider struct {
	logger    *slog.Logger
	instances sync.Map
}

// NewProvider creates an empty registry.
func NewProvider(opts ...Option) *Provider {
	option := newOption()
	Options(opts...)(option)
	logger := option.logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Provider{logger: logger}
}

// Scheme returns the URI scheme served by the provider.
func (p *Provider) Scheme() string {
	return Scheme
}

// parseURI validates the URI, returning it with the instance id.
func parseURI(op, uri string) (*url.URL, string, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, "", fserr.Newf(op, uri, fserr.IllegalArgument,
			"malformed uri: %v", err)
	}
	if !strings.EqualFold(u.Scheme, Scheme) {
		return nil, "", fserr.Newf(op, uri, fserr.IllegalArgument,
			"scheme should be %s, got %q", Scheme, u.Scheme)
	}
	if u.RawQuery != "" || u.ForceQuery || u.Fragment != "" {
		return nil, "", fserr.Newf(op, uri, fserr.IllegalArgument,
			"uri query and fragment should be empty")
	}
	id := u.Host
	if id == "" {
		id = DefaultID
	}
	return u, id, nil
}

// NewFileSystem creates and registers an instance from its
// option map. Only one live instance may exist per id.
func (p *Provider) NewFileSystem(uri string, env map[string]string) (*FileSystem, error) {
	u, id, err := parseURI("new", uri)
	if err != nil {
		return nil, err
	}
	config, err := ParseOptions(env)
	if err != nil {
		return nil, fserr.WithOp("new", uri, err)
	}
	fs := newFileSystem(p, id, u.Host, config)
	if _, loaded := p.instances.LoadOrStore(id, fs); loaded {
		return nil, fserr.Newf("new", uri, fserr.AlreadyExists,
			"a %s file system with id %q already exists", Scheme, id)
	}
	fs.logger.Info("file system created",
		"separator", config.Separator, "roots", config.Roots)
	return fs, nil
}

// FileSystem looks up the live instance addressed by the URI.
func (p *Provider) FileSystem(uri string) (*FileSystem, error) {
	_, id, err := parseURI("lookup", uri)
	if err != nil {
		return nil, err
	}
	fs, ok := p.instances.Load(id)
	if !ok {
		return nil, fserr.Newf("lookup", uri, fserr.NotFound,
			"a %s file system with id %q not found", Scheme, id)
	}
	return fs.(*FileSystem), nil
}

// Path converts a URI rendered by Path.URI back into a path.
func (p *Provider) Path(uri string) (Path, error) {
	fs, err := p.FileSystem(uri)
	if err != nil {
		return Path{}, err
	}
	u, _, _ := parseURI("path", uri)

	// Rendering prefixes one "/" to tell the root "" from the
	// other roots, strip it back here.
	uriPath := u.Path
	if uriPath != "/" && strings.HasPrefix(uriPath, "/") {
		uriPath = uriPath[1:]
	}
	return fs.Path(strings.ReplaceAll(uriPath, "/", fs.separator))
}

// unregister removes the instance, so that its id is free again.
func (p *Provider) unregister(fs *FileSystem) {
	p.instances.CompareAndDelete(fs.id, fs)
}
