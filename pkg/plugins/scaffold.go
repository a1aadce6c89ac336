package plugins

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/spf13/afero"
)

// ScaffoldOptions describes a new filesystem plugin.
type ScaffoldOptions struct {
	ID          string
	Name        string
	Description string
	Version     string
	DryRun      bool
}

// ScaffoldResult reports what Scaffold wrote, or would write.
type ScaffoldResult struct {
	ID           string
	Dir          string
	ManifestPath string
	Manifest     []byte
	DryRun       bool
}

type scaffoldManifest struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Version     string         `json:"version"`
	Description string         `json:"description"`
	Target      string         `json:"target"`
	Requires    []string       `json:"requires"`
	Defaults    map[string]any `json:"defaults"`
}

// Scaffold creates <root>/<id>/plugin.json. The id is normalized and must be
// valid; an existing directory is never overwritten.
func Scaffold(fs afero.Fs, root string, opts ScaffoldOptions) (*ScaffoldResult, error) {
	id := NormalizeID(opts.ID)
	if !ValidID(id) {
		return nil, errors.Newf(errors.ErrInvalidInput,
			"invalid plugin id %q: use lower-case letters, digits, '_' and '-'", opts.ID).
			WithDetail("id", opts.ID)
	}

	dir := filepath.Join(root, id)
	if _, err := fs.Stat(dir); err == nil {
		return nil, errors.Newf(errors.ErrAlreadyExists, "plugin directory %s already exists", dir).
			WithDetail("path", dir)
	} else if !os.IsNotExist(err) {
		return nil, errors.Wrap(err, errors.ErrFileAccess, "cannot access plugin directory").
			WithDetail("path", dir)
	}

	name := opts.Name
	if name == "" {
		name = id
	}
	version := opts.Version
	if version == "" {
		version = "0.1.0"
	}

	content, err := json.MarshalIndent(scaffoldManifest{
		ID:          id,
		Name:        name,
		Version:     version,
		Description: opts.Description,
		Target:      DefaultTarget(id),
		Requires:    []string{},
		Defaults:    map[string]any{},
	}, "", "  ")
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrInternal, "cannot encode manifest")
	}
	content = append(content, '\n')

	result := &ScaffoldResult{
		ID:           id,
		Dir:          dir,
		ManifestPath: filepath.Join(dir, DedicatedManifests[0]),
		Manifest:     content,
		DryRun:       opts.DryRun,
	}
	if opts.DryRun {
		return result, nil
	}

	if err := fs.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Wrap(err, errors.ErrFileWrite, "cannot create plugin directory").
			WithDetail("path", dir)
	}
	if err := afero.WriteFile(fs, result.ManifestPath, content, 0644); err != nil {
		return nil, errors.Wrap(err, errors.ErrFileWrite, "cannot write manifest").
			WithDetail("path", result.ManifestPath)
	}
	return result, nil
}
