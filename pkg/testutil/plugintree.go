package testutil

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// PluginTree is an in-memory layout with a plugins directory and an
// installed-metadata directory.
type PluginTree struct {
	Fs           afero.Fs
	PluginDir    string
	InstalledDir string

	t *testing.T
}

// NewPluginTree returns an empty tree rooted at /rag2f.
func NewPluginTree(t *testing.T) *PluginTree {
	t.Helper()

	tree := &PluginTree{
		Fs:           afero.NewMemMapFs(),
		PluginDir:    "/rag2f/plugins",
		InstalledDir: "/rag2f/site-packages",
		t:            t,
	}
	require.NoError(t, tree.Fs.MkdirAll(tree.PluginDir, 0755))
	require.NoError(t, tree.Fs.MkdirAll(tree.InstalledDir, 0755))
	return tree
}

// AddFile writes a file relative to the plugins directory and returns its path.
func (p *PluginTree) AddFile(rel, content string) string {
	p.t.Helper()

	path := filepath.Join(p.PluginDir, rel)
	require.NoError(p.t, p.Fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(p.t, afero.WriteFile(p.Fs, path, []byte(content), 0644))
	return path
}

// AddPlugin writes dir/manifest with content.
func (p *PluginTree) AddPlugin(dir, manifest, content string) string {
	p.t.Helper()
	return p.AddFile(filepath.Join(dir, manifest), content)
}

// AddJSONPlugin writes a minimal plugin.json declaring id.
func (p *PluginTree) AddJSONPlugin(dir, id string) string {
	p.t.Helper()
	return p.AddPlugin(dir, "plugin.json", `{"id": "`+id+`", "name": "`+id+` plugin"}`)
}

// AddDir creates an empty directory under the plugins directory.
func (p *PluginTree) AddDir(rel string) string {
	p.t.Helper()

	path := filepath.Join(p.PluginDir, rel)
	require.NoError(p.t, p.Fs.MkdirAll(path, 0755))
	return path
}

// AddInstalled writes <installed>/<pkg>/entry_points.toml.
func (p *PluginTree) AddInstalled(pkg, content string) string {
	p.t.Helper()

	path := filepath.Join(p.InstalledDir, pkg, "entry_points.toml")
	require.NoError(p.t, p.Fs.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(p.t, afero.WriteFile(p.Fs, path, []byte(content), 0644))
	return path
}

// AddEntryPoints writes installed metadata advertising id=target pairs in
// the rag2f.plugins group.
func (p *PluginTree) AddEntryPoints(pkg string, pairs ...string) string {
	p.t.Helper()
	require.True(p.t, len(pairs)%2 == 0, "AddEntryPoints needs id/target pairs")

	content := "[package]\nname = \"" + pkg + "\"\nversion = \"1.0.0\"\n\n[entry_points.\"rag2f.plugins\"]\n"
	for i := 0; i < len(pairs); i += 2 {
		content += "\"" + pairs[i] + "\" = \"" + pairs[i+1] + "\"\n"
	}
	return p.AddInstalled(pkg, content)
}

// ReadFile returns the content of an absolute path in the tree.
func (p *PluginTree) ReadFile(path string) string {
	p.t.Helper()

	data, err := afero.ReadFile(p.Fs, path)
	require.NoError(p.t, err)
	return string(data)
}
