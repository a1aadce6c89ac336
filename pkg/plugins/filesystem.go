package plugins

import (
	"os"
	"path/filepath"

	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/spf13/afero"
)

// LoadFilesystemDescriptors scans the immediate sub-directories of root, in
// name order, for plugin manifests. A missing root yields nothing. Hidden
// directories and directories without a manifest are ignored; a manifest
// that fails to parse or validate is returned as a skip.
func LoadFilesystemDescriptors(fs afero.Fs, root string) ([]Descriptor, []Skip, error) {
	if root == "" {
		return nil, nil, nil
	}

	info, err := fs.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, nil
		}
		return nil, nil, errors.Wrap(err, errors.ErrFileAccess, "cannot access plugins directory").
			WithDetail("path", root)
	}
	if !info.IsDir() {
		return nil, nil, errors.Newf(errors.ErrFileAccess, "plugins path %s is not a directory", root).
			WithDetail("path", root)
	}

	entries, err := afero.ReadDir(fs, root)
	if err != nil {
		return nil, nil, errors.Wrap(err, errors.ErrFileAccess, "cannot read plugins directory").
			WithDetail("path", root)
	}

	var descs []Descriptor
	var skips []Skip
	for _, entry := range entries {
		if !entry.IsDir() || isHidden(entry.Name()) {
			continue
		}

		dir := filepath.Join(root, entry.Name())
		d, found, err := readPluginDir(fs, dir)
		if err != nil {
			skips = append(skips, Skip{
				Source: SourceFilesystem,
				ID:     NormalizeID(entry.Name()),
				Path:   errorPath(err, dir),
				Reason: "malformed manifest",
				Err:    err,
			})
			continue
		}
		if found {
			descs = append(descs, d)
		}
	}
	return descs, skips, nil
}

// readPluginDir reads the first manifest present in dir.
func readPluginDir(fs afero.Fs, dir string) (Descriptor, bool, error) {
	candidates := append(append([]string{}, DedicatedManifests...), ProjectManifest)

	for _, name := range candidates {
		path := filepath.Join(dir, name)
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Descriptor{}, false, errors.Wrap(err, errors.ErrMalformedManifest, "cannot read manifest").
				WithDetail("path", path)
		}

		m, found, err := ParseManifest(path, data)
		if err != nil {
			return Descriptor{}, false, err
		}
		if !found {
			continue
		}

		d := descriptorFromManifest(m, dir, path)
		if err := validateDescriptor(d); err != nil {
			return Descriptor{}, false, errors.Wrapf(err, errors.ErrMalformedManifest, "invalid plugin descriptor in %s", name).
				WithDetail("path", path).
				WithDetail("id", d.ID)
		}
		return d, true, nil
	}
	return Descriptor{}, false, nil
}

func errorPath(err error, fallback string) string {
	if p, ok := errors.GetErrorDetails(err)["path"].(string); ok {
		return p
	}
	return fallback
}
