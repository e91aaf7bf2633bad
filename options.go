package memns

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/aegistudio/go-memns/fserr"
)

const (
	// OptionSeparator names the path separator option.
	OptionSeparator = "separator"

	// DefaultSeparator is used when no separator is given.
	DefaultSeparator = "/"
)

var rootOptionPattern = regexp.MustCompile(`^roots\.(\d+)\.name$`)

// RootOption returns the option key declaring the n-th root.
func RootOption(n int) string {
	return "roots." + strconv.Itoa(n) + ".name"
}

// Config is the parsed configuration of an instance.
type Config struct {
	Separator string
	Roots     []string
}

// ParseOptions parses the flat option map of an instance.
//
// Roots are declared by roots.<n>.name and kept in the order of
// n. Without any declared root a single root named "" is used.
// Keys that are not recognized are ignored.
func ParseOptions(env map[string]string) (Config, error) {
	config := Config{Separator: DefaultSeparator}
	if sep, ok := env[OptionSeparator]; ok {
		if sep == "" {
			return Config{}, fserr.Newf("config", "", fserr.IllegalArgument,
				"separator must not be empty")
		}
		config.Separator = sep
	}

	type declared struct {
		order int
		name  string
	}
	var roots []declared
	for key, value := range env {
		match := rootOptionPattern.FindStringSubmatch(key)
		if match == nil {
			continue
		}
		order, err := strconv.Atoi(match[1])
		if err != nil {
			return Config{}, fserr.Newf("config", "", fserr.IllegalArgument,
				"root index of %q: %v", key, err)
		}
		roots = append(roots, declared{order: order, name: value})
	}
	sort.Slice(roots, func(i, j int) bool {
		return roots[i].order < roots[j].order
	})
	seen := make(map[string]struct{})
	for _, root := range roots {
		if _, ok := seen[root.name]; ok {
			return Config{}, fserr.Newf("config", "", fserr.IllegalArgument,
				"duplicate root %q", root.name)
		}
		seen[root.name] = struct{}{}
		config.Roots = append(config.Roots, root.name)
	}
	if len(config.Roots) == 0 {
		config.Roots = []string{""}
	}
	return config, nil
}

// Env renders the configuration back into a flat option map.
func (c Config) Env() map[string]string {
	env := map[string]string{OptionSeparator: c.Separator}
	for i, root := range c.Roots {
		env[RootOption(i)] = root
	}
	return env
}

type yamlRoot struct {
	Name string `yaml:"name"`
}

type yamlConfig struct {
	Separator *string    `yaml:"separator"`
	Roots     []yamlRoot `yaml:"roots"`
}

// DecodeOptions reads an option map from YAML. It accepts either
// the flat keys:
//
//	separator: "\\"
//	roots.0.name: ""
//	roots.1.name: "@v1"
//
// or a structured document:
//
//	separator: "\\"
//	roots:
//	  - name: ""
//	  - name: "@v1"
func DecodeOptions(data []byte) (map[string]string, error) {
	var flat map[string]interface{}
	if err := yaml.Unmarshal(data, &flat); err != nil {
		return nil, errors.Wrap(err, "decode options")
	}
	if _, structured := flat["roots"]; structured {
		var doc yamlConfig
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrap(err, "decode options")
		}
		env := make(map[string]string)
		if doc.Separator != nil {
			env[OptionSeparator] = *doc.Separator
		}
		for i, root := range doc.Roots {
			env[RootOption(i)] = root.Name
		}
		return env, nil
	}
	env := make(map[string]string, len(flat))
	for key, value := range flat {
		switch v := value.(type) {
		case string:
			env[key] = v
		case nil:
			env[key] = ""
		default:
			return nil, errors.Errorf(
				"decode options: value of %q must be a string", key)
		}
	}
	return env, nil
}
