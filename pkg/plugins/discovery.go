package plugins

import (
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rag2f/rag2f/pkg/logging"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
)

// Shadowed is a filesystem descriptor hidden by an entry point with the
// same id.
type Shadowed struct {
	Descriptor Descriptor
	By         Descriptor
	Reason     string
}

// Discovery is the outcome of one discovery run. Plugins is in activation
// order: entry points first, then filesystem plugins, each in source order.
type Discovery struct {
	Plugins  []Descriptor
	Shadowed []Shadowed
	Skipped  []Skip
}

// Get returns the discovered plugin with id.
func (d *Discovery) Get(id string) (Descriptor, bool) {
	id = NormalizeID(id)
	for _, p := range d.Plugins {
		if p.ID == id {
			return p, true
		}
	}
	return Descriptor{}, false
}

// IDs returns plugin ids in activation order.
func (d *Discovery) IDs() []string {
	ids := make([]string, len(d.Plugins))
	for i, p := range d.Plugins {
		ids[i] = p.ID
	}
	return ids
}

// DiscoverOptions configures a Discoverer. Any source may be left empty.
type DiscoverOptions struct {
	EntryPoints EntryPointSource
	Group       string
	Fs          afero.Fs
	PluginDir   string
	Logger      *zerolog.Logger
}

// Discoverer finds plugins from entry points and a plugins directory.
type Discoverer struct {
	entryPoints EntryPointSource
	group       string
	fs          afero.Fs
	pluginDir   string
	logger      zerolog.Logger
}

// NewDiscoverer returns a Discoverer. Group defaults to "rag2f.plugins" and
// Fs to the OS filesystem.
func NewDiscoverer(opts DiscoverOptions) *Discoverer {
	d := &Discoverer{
		entryPoints: opts.EntryPoints,
		group:       opts.Group,
		fs:          opts.Fs,
		pluginDir:   opts.PluginDir,
		logger:      logging.GetLogger("plugins"),
	}
	if d.group == "" {
		d.group = Group
	}
	if d.fs == nil {
		d.fs = afero.NewOsFs()
	}
	if opts.Logger != nil {
		d.logger = logging.Component(*opts.Logger, "plugins")
	}
	return d
}

// Discover runs discovery. It fails only when a source is unreadable or when
// one source yields two plugins with the same id.
func (d *Discoverer) Discover() (*Discovery, error) {
	result := &Discovery{}

	eps, skips, err := LoadEntryPointDescriptors(d.entryPoints, d.group)
	if err != nil {
		return nil, err
	}
	result.Skipped = append(result.Skipped, skips...)
	if err := checkUnique(eps, SourceEntryPoint); err != nil {
		return nil, err
	}

	local, skips, err := LoadFilesystemDescriptors(d.fs, d.pluginDir)
	if err != nil {
		return nil, err
	}
	result.Skipped = append(result.Skipped, skips...)
	if err := checkUnique(local, SourceFilesystem); err != nil {
		return nil, err
	}

	byID := make(map[string]Descriptor, len(eps))
	for _, ep := range eps {
		byID[ep.ID] = ep
	}

	result.Plugins = append(result.Plugins, eps...)
	for _, fsd := range local {
		if winner, ok := byID[fsd.ID]; ok {
			result.Shadowed = append(result.Shadowed, Shadowed{
				Descriptor: fsd,
				By:         winner,
				Reason:     "an entry point with the same id takes precedence",
			})
			d.logger.Debug().
				Str("id", fsd.ID).
				Str("shadowed", fsd.Dir).
				Str("by", winner.ImportTarget).
				Msg("Filesystem plugin shadowed by entry point")
			continue
		}
		result.Plugins = append(result.Plugins, fsd)
	}

	for _, s := range result.Skipped {
		d.logger.Warn().
			Err(s.Err).
			Str("source", string(s.Source)).
			Str("id", s.ID).
			Str("path", s.Path).
			Msg("Skipping plugin candidate: " + s.Reason)
	}

	d.logger.Info().
		Int("entryPoints", len(eps)).
		Int("filesystem", len(local)).
		Int("plugins", len(result.Plugins)).
		Int("shadowed", len(result.Shadowed)).
		Int("skipped", len(result.Skipped)).
		Msg("Plugin discovery complete")

	return result, nil
}

func checkUnique(descs []Descriptor, source Source) error {
	seen := make(map[string]Descriptor, len(descs))
	for _, d := range descs {
		if first, dup := seen[d.ID]; dup {
			return errors.Newf(errors.ErrAmbiguousPluginIdentity,
				"plugin id %q is provided twice by %s plugins", d.ID, source).
				WithDetail("id", d.ID).
				WithDetail("source", string(source)).
				WithDetail("first", location(first)).
				WithDetail("second", location(d))
		}
		seen[d.ID] = d
	}
	return nil
}

func location(d Descriptor) string {
	switch {
	case d.ManifestPath != "":
		return d.ManifestPath
	case d.Dir != "":
		return d.Dir
	default:
		return d.ImportTarget
	}
}
