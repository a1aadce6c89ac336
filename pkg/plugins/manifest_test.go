package plugins

import (
	"testing"

	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseManifest_Formats(t *testing.T) {
	want := &Manifest{
		ID:          "Embedder",
		Name:        "Embedder",
		Version:     "1.2.0",
		Description: "Local embeddings",
		Target:      "embedder.so",
		Requires:    []string{"core"},
		Defaults:    map[string]any{"model": "mini", "dimension": int64(384)},
	}

	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"json", "plugin.json", `{
			"id": "Embedder", "name": "Embedder", "version": "1.2.0",
			"description": "Local embeddings", "target": "embedder.so",
			"requires": ["core"], "defaults": {"model": "mini", "dimension": 384}
		}`},
		{"yaml", "plugin.yaml", `
id: Embedder
name: Embedder
version: "1.2.0"
description: Local embeddings
target: embedder.so
requires: [core]
defaults:
  model: mini
  dimension: 384
`},
		{"toml", "plugin.toml", `
id = "Embedder"
name = "Embedder"
version = "1.2.0"
description = "Local embeddings"
target = "embedder.so"
requires = ["core"]

[defaults]
model = "mini"
dimension = 384
`},
		{"project", "project.toml", `
[project]
name = "rag2f-embedder"

[tool.rag2f.plugin]
id = "Embedder"
name = "Embedder"
version = "1.2.0"
description = "Local embeddings"
target = "embedder.so"
requires = ["core"]

[tool.rag2f.plugin.defaults]
model = "mini"
dimension = 384
`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, found, err := ParseManifest("/plugins/embedder/"+tt.file, []byte(tt.content))
			require.NoError(t, err)
			require.True(t, found)
			assert.Equal(t, want, m)
		})
	}
}

func TestParseManifest_NumericVersion(t *testing.T) {
	m, _, err := ParseManifest("plugin.json", []byte(`{"version": 2}`))
	require.NoError(t, err)
	assert.Equal(t, "2", m.Version)
}

func TestParseManifest_ProjectWithoutSection(t *testing.T) {
	m, found, err := ParseManifest("project.toml", []byte("[project]\nname = \"x\"\n"))
	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, m)
}

func TestParseManifest_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"broken json", "plugin.json", `{"id": `},
		{"broken yaml", "plugin.yaml", "id: [unclosed"},
		{"broken toml", "plugin.toml", "id = "},
		{"id not a string", "plugin.json", `{"id": 5}`},
		{"id with dot", "plugin.json", `{"id": "a.b"}`},
		{"empty target", "plugin.json", `{"target": ""}`},
		{"requires not a list", "plugin.json", `{"requires": "core"}`},
		{"defaults not a map", "plugin.toml", `defaults = 3`},
		{"unknown format", "plugin.ini", `id=x`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseManifest(tt.file, []byte(tt.content))
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, errors.ErrMalformedManifest), "got %v", err)
		})
	}
}

func TestDescriptorFromManifest_Defaults(t *testing.T) {
	d := descriptorFromManifest(&Manifest{}, "/plugins/My_Plugin", "/plugins/My_Plugin/plugin.json")

	assert.Equal(t, "my_plugin", d.ID)
	assert.Equal(t, "my_plugin.so", d.ImportTarget)
	assert.Equal(t, "my_plugin", d.Name)
	assert.Equal(t, SourceFilesystem, d.Source)
	assert.Equal(t, "/plugins/My_Plugin", d.Dir)
	assert.NoError(t, validateDescriptor(d))
}

func TestValidID(t *testing.T) {
	for _, id := range []string{"foo", "foo_bar", "foo-bar", "_x", "0x"} {
		assert.True(t, ValidID(id), id)
	}
	for _, id := range []string{"", "Foo", "-foo", "a.b", "a b", "a/b"} {
		assert.False(t, ValidID(id), id)
	}
	assert.Equal(t, "foo", NormalizeID("  FOO "))
}
