package plugins

import (
	"os"
	"path/filepath"
	"sort"

	"github.com/pelletier/go-toml/v2"
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/spf13/afero"
)

// InstalledMetadataFile is read from every package directory of an
// InstalledIndex.
const InstalledMetadataFile = "entry_points.toml"

// EntryPoint is one advertised plugin: Name is the plugin id and Target what
// a Loader resolves.
type EntryPoint struct {
	Group       string
	Name        string
	Target      string
	Package     string
	Version     string
	Description string
	// Path is the metadata file the entry point came from, if any.
	Path string
	// Dir is the directory relative targets are resolved against.
	Dir      string
	Defaults map[string]any
}

// EntryPointSource enumerates entry points for a group. Entries that cannot
// be read are returned as skips; the error is reserved for failures that
// make the whole source unusable.
type EntryPointSource interface {
	EntryPoints(group string) ([]EntryPoint, []Skip, error)
}

// InstalledIndex reads entry points from installed package metadata laid out
// as <Dir>/<package>/entry_points.toml:
//
//	[package]
//	name = "rag2f-openai"
//	version = "1.2.0"
//
//	[entry_points."rag2f.plugins"]
//	openai = "openai.so:Plugin"
type InstalledIndex struct {
	Fs  afero.Fs
	Dir string
}

type installedMetadata struct {
	Package struct {
		Name        string `toml:"name"`
		Version     string `toml:"version"`
		Description string `toml:"description"`
	} `toml:"package"`
	EntryPoints map[string]map[string]string `toml:"entry_points"`
}

// NewInstalledIndex returns an index over dir on fs.
func NewInstalledIndex(fs afero.Fs, dir string) *InstalledIndex {
	return &InstalledIndex{Fs: fs, Dir: dir}
}

// EntryPoints implements EntryPointSource. A missing directory yields
// nothing.
func (x *InstalledIndex) EntryPoints(group string) ([]EntryPoint, []Skip, error) {
	if x.Dir == "" {
		return nil, nil, nil
	}

	infos, err := afero.ReadDir(x.Fs, x.Dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrap(err, errors.ErrFileAccess, "cannot read installed plugin metadata").
			WithDetail("path", x.Dir)
	}

	var eps []EntryPoint
	var skips []Skip
	for _, info := range infos {
		if !info.IsDir() || isHidden(info.Name()) {
			continue
		}

		pkgDir := filepath.Join(x.Dir, info.Name())
		path := filepath.Join(pkgDir, InstalledMetadataFile)
		data, err := afero.ReadFile(x.Fs, path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			skips = append(skips, Skip{
				Source: SourceEntryPoint,
				Path:   path,
				Reason: "cannot read installed metadata",
				Err:    errors.Wrap(err, errors.ErrFileAccess, "cannot read installed metadata").WithDetail("path", path),
			})
			continue
		}

		var meta installedMetadata
		if err := toml.Unmarshal(data, &meta); err != nil {
			skips = append(skips, Skip{
				Source: SourceEntryPoint,
				Path:   path,
				Reason: "malformed installed metadata",
				Err:    errors.Wrap(err, errors.ErrMalformedManifest, "malformed installed metadata").WithDetail("path", path),
			})
			continue
		}

		pkgName := meta.Package.Name
		if pkgName == "" {
			pkgName = info.Name()
		}

		entries := meta.EntryPoints[group]
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)

		for _, name := range names {
			eps = append(eps, EntryPoint{
				Group:       group,
				Name:        name,
				Target:      entries[name],
				Package:     pkgName,
				Version:     meta.Package.Version,
				Description: meta.Package.Description,
				Path:        path,
				Dir:         pkgDir,
			})
		}
	}
	return eps, skips, nil
}

// MultiSource concatenates sources in order.
type MultiSource []EntryPointSource

// EntryPoints implements EntryPointSource.
func (m MultiSource) EntryPoints(group string) ([]EntryPoint, []Skip, error) {
	var eps []EntryPoint
	var skips []Skip
	for _, src := range m {
		if src == nil {
			continue
		}
		e, s, err := src.EntryPoints(group)
		if err != nil {
			return nil, nil, err
		}
		eps = append(eps, e...)
		skips = append(skips, s...)
	}
	return eps, skips, nil
}

// LoadEntryPointDescriptors turns the group's entry points into descriptors.
// Entry points with an invalid id or no target are skipped.
func LoadEntryPointDescriptors(src EntryPointSource, group string) ([]Descriptor, []Skip, error) {
	if src == nil {
		return nil, nil, nil
	}

	eps, skips, err := src.EntryPoints(group)
	if err != nil {
		return nil, nil, err
	}

	descs := make([]Descriptor, 0, len(eps))
	for _, ep := range eps {
		id := NormalizeID(ep.Name)
		name := ep.Package
		if name == "" {
			name = id
		}
		d := Descriptor{
			ID:           id,
			Source:       SourceEntryPoint,
			ImportTarget: ep.Target,
			ManifestPath: ep.Path,
			Dir:          ep.Dir,
			Name:         name,
			Version:      ep.Version,
			Description:  ep.Description,
			Defaults:     ep.Defaults,
		}
		if err := validateDescriptor(d); err != nil {
			skips = append(skips, Skip{
				Source: SourceEntryPoint,
				ID:     id,
				Path:   ep.Path,
				Reason: "invalid entry point",
				Err: errors.Wrapf(err, errors.ErrMalformedManifest, "invalid entry point %q", ep.Name).
					WithDetail("id", ep.Name),
			})
			continue
		}
		descs = append(descs, d)
	}
	return descs, skips, nil
}

func isHidden(name string) bool {
	return len(name) > 0 && name[0] == '.'
}
