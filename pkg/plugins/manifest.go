package plugins

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/rag2f/rag2f/pkg/config"
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

// Manifest file names, in lookup order. The first one present wins.
var DedicatedManifests = []string{"plugin.json", "plugin.yaml", "plugin.yml", "plugin.toml"}

// ProjectManifest is the generic project file checked when no dedicated
// manifest exists. Only its [tool.rag2f.plugin] section is read.
const ProjectManifest = "project.toml"

//go:embed schema/manifest.schema.json
var manifestSchema []byte

var (
	compiledSchema *gojsonschema.Schema
	compileOnce    sync.Once
	compileErr     error
)

func getSchema() (*gojsonschema.Schema, error) {
	compileOnce.Do(func() {
		compiledSchema, compileErr = gojsonschema.NewSchema(gojsonschema.NewBytesLoader(manifestSchema))
	})
	return compiledSchema, compileErr
}

// Manifest is the decoded plugin manifest.
type Manifest struct {
	ID          string         `mapstructure:"id"`
	Name        string         `mapstructure:"name"`
	Version     string         `mapstructure:"version"`
	Description string         `mapstructure:"description"`
	Target      string         `mapstructure:"target"`
	Requires    []string       `mapstructure:"requires"`
	Defaults    map[string]any `mapstructure:"defaults"`
}

// decodeManifestDocument parses raw manifest bytes according to the file name.
// For project.toml it returns the [tool.rag2f.plugin] section and false when
// that section is absent.
func decodeManifestDocument(name string, data []byte) (map[string]any, bool, error) {
	var doc map[string]any

	switch strings.ToLower(filepath.Ext(name)) {
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, true, err
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, true, err
		}
	case ".toml":
		if err := toml.Unmarshal(data, &doc); err != nil {
			return nil, true, err
		}
	default:
		return nil, false, fmt.Errorf("unsupported manifest format %q", name)
	}

	if filepath.Base(name) == ProjectManifest {
		section, ok := lookupSection(doc, "tool", "rag2f", "plugin")
		if !ok {
			return nil, false, nil
		}
		doc = section
	}

	if doc == nil {
		doc = map[string]any{}
	}
	return normalizeManifest(doc), true, nil
}

func lookupSection(doc map[string]any, path ...string) (map[string]any, bool) {
	cur := doc
	for _, seg := range path {
		next, ok := cur[seg].(map[string]any)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

// normalizeManifest canonicalizes scalar types without folding keys: the
// defaults subtree is folded later, when it joins the configuration.
func normalizeManifest(doc map[string]any) map[string]any {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		if m, ok := v.(map[string]any); ok {
			out[k] = config.NormalizeDocument(m)
			continue
		}
		out[k] = v
	}
	if n, ok := out["version"].(json.Number); ok {
		out["version"] = n.String()
	}
	return out
}

// ParseManifest decodes and validates a manifest. name selects the format
// by extension. found is false for a project.toml without a plugin section.
func ParseManifest(name string, data []byte) (m *Manifest, found bool, err error) {
	doc, found, err := decodeManifestDocument(name, data)
	if err != nil {
		return nil, true, errors.Wrapf(err, errors.ErrMalformedManifest, "cannot parse %s", filepath.Base(name)).
			WithDetail("path", name)
	}
	if !found {
		return nil, false, nil
	}

	if err := validateManifestSchema(doc); err != nil {
		return nil, true, errors.Wrapf(err, errors.ErrMalformedManifest, "invalid manifest %s", filepath.Base(name)).
			WithDetail("path", name)
	}

	m = &Manifest{}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           m,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, true, errors.Wrap(err, errors.ErrInternal, "cannot build manifest decoder")
	}
	if err := dec.Decode(doc); err != nil {
		return nil, true, errors.Wrapf(err, errors.ErrMalformedManifest, "cannot decode manifest %s", filepath.Base(name)).
			WithDetail("path", name)
	}
	return m, true, nil
}

func validateManifestSchema(doc map[string]any) error {
	schema, err := getSchema()
	if err != nil {
		return fmt.Errorf("compiling manifest schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(doc))
	if err != nil {
		return fmt.Errorf("validating manifest: %w", err)
	}
	if result.Valid() {
		return nil
	}

	problems := make([]string, 0, len(result.Errors()))
	for _, e := range result.Errors() {
		problems = append(problems, e.String())
	}
	return fmt.Errorf("%s", strings.Join(problems, "; "))
}

// descriptorFromManifest fills defaults from the plugin directory name.
func descriptorFromManifest(m *Manifest, dir, manifestPath string) Descriptor {
	id := NormalizeID(m.ID)
	if id == "" {
		id = NormalizeID(filepath.Base(dir))
	}
	target := m.Target
	if target == "" {
		target = DefaultTarget(id)
	}
	name := m.Name
	if name == "" {
		name = id
	}

	return Descriptor{
		ID:           id,
		Source:       SourceFilesystem,
		ImportTarget: target,
		ManifestPath: manifestPath,
		Dir:          dir,
		Name:         name,
		Version:      m.Version,
		Description:  m.Description,
		Requires:     normalizeIDs(m.Requires),
		Defaults:     config.NormalizeDocument(m.Defaults),
	}
}

func normalizeIDs(ids []string) []string {
	if len(ids) == 0 {
		return nil
	}
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = NormalizeID(id)
	}
	return out
}
