package sources

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	coreerrors "github.com/lueurxax/scholarfeed/internal/core/errors"
)

var errDuplicateSource = errors.New("duplicate source name")

// Override adjusts a catalogue entry from the sources file.
type Override struct {
	Name       string `yaml:"name"`
	Disabled   *bool  `yaml:"disabled"`
	ListingURL string `yaml:"listing_url"`
	Cookie     string `yaml:"cookie"`
	Username   string `yaml:"username"`
	Password   string `yaml:"password"`
}

type overridesFile struct {
	Sources []Override `yaml:"sources"`
}

// LoadOverrides reads the YAML sources file. An empty path yields no overrides.
func LoadOverrides(path string) ([]Override, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sources file: %w", err)
	}

	return ParseOverrides(data)
}

// ParseOverrides decodes the sources file body. Unknown keys are rejected.
func ParseOverrides(data []byte) ([]Override, error) {
	var file overridesFile

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	if err := dec.Decode(&file); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode sources file: %w", err)
	}

	return file.Sources, nil
}

// ApplyOverrides returns a copy of defs with overrides applied, keeping order.
// A name missing from defs is a configuration error.
func ApplyOverrides(defs []Definition, overrides []Override) ([]Definition, error) {
	out := make([]Definition, len(defs))
	index := make(map[string]int, len(defs))

	for i, def := range defs {
		out[i] = def
		if def.Login != nil {
			login := *def.Login
			out[i].Login = &login
		}

		index[def.Name] = i
	}

	for _, o := range overrides {
		i, ok := index[o.Name]
		if !ok {
			return nil, fmt.Errorf("%w: %q", coreerrors.ErrUnknownSource, o.Name)
		}

		def := &out[i]

		if o.Disabled != nil {
			def.Disabled = *o.Disabled
		}

		if o.ListingURL != "" {
			def.ListingURL = o.ListingURL
		}

		if o.Cookie != "" {
			def.Cookie = o.Cookie
		}

		if def.Login != nil && o.Username != "" {
			def.Login.Username = o.Username
			def.Login.Password = o.Password
		}
	}

	return out, nil
}

// Registry is the ordered set of enabled sources of a process.
type Registry struct {
	sources []Source
}

// NewRegistry instantiates every enabled definition in order.
func NewRegistry(deps Deps, defs ...Definition) (*Registry, error) {
	r := &Registry{}
	seen := make(map[string]struct{}, len(defs))

	for _, def := range defs {
		if _, dup := seen[def.Name]; dup {
			return nil, fmt.Errorf("%w: %q", errDuplicateSource, def.Name)
		}

		seen[def.Name] = struct{}{}

		if def.Disabled {
			continue
		}

		src, err := Build(def, deps)
		if err != nil {
			return nil, err
		}

		r.sources = append(r.sources, src)
	}

	return r, nil
}

// Build instantiates the adapter family named by def.Kind.
func Build(def Definition, deps Deps) (Source, error) {
	if def.Name == "" || def.ListingURL == "" {
		return nil, fmt.Errorf("%w: source %q needs a name and listing url", coreerrors.ErrInvalidInput, def.Name)
	}

	switch def.Kind {
	case KindFeed:
		return NewFeedSource(def, deps), nil
	case KindPage:
		if def.Selectors.Item == "" {
			return nil, fmt.Errorf("%w: page source %q has no item selector", coreerrors.ErrInvalidInput, def.Name)
		}

		return NewPageSource(def, deps), nil
	case KindArxiv:
		return NewArxivListingSource(def, deps), nil
	default:
		return nil, fmt.Errorf("%w: source %q has kind %q", coreerrors.ErrInvalidInput, def.Name, def.Kind)
	}
}

// Sources returns the sources in visiting order.
func (r *Registry) Sources() []Source {
	return append([]Source(nil), r.sources...)
}

// Names lists the enabled source names in visiting order.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.sources))
	for _, s := range r.sources {
		names = append(names, s.Identity().Name)
	}

	return names
}

// Lookup finds an enabled source by name.
func (r *Registry) Lookup(name string) (Source, error) {
	for _, s := range r.sources {
		if s.Identity().Name == name {
			return s, nil
		}
	}

	return nil, fmt.Errorf("%w: %q", coreerrors.ErrUnknownSource, name)
}

// Reset clears per-run session state of every source.
func (r *Registry) Reset() {
	for _, s := range r.sources {
		if rs, ok := s.(Resetter); ok {
			rs.Reset()
		}
	}
}
