package plugins

import (
	stderrors "errors"
	goplugin "plugin"
	"testing"

	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rag2f/rag2f/pkg/hooks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLibrary map[string]goplugin.Symbol

func (f fakeLibrary) Lookup(name string) (goplugin.Symbol, error) {
	if s, ok := f[name]; ok {
		return s, nil
	}
	return nil, stderrors.New("symbol not found")
}

type structPlugin struct{ activated bool }

func (s *structPlugin) Activate(*hooks.Registrar) error {
	s.activated = true
	return nil
}

func fakeLoader(libs map[string]fakeLibrary, opened *[]string) *SharedObjectLoader {
	return &SharedObjectLoader{open: func(path string) (symbolLookup, error) {
		*opened = append(*opened, path)
		lib, ok := libs[path]
		if !ok {
			return nil, stderrors.New("no such library")
		}
		return lib, nil
	}}
}

func TestParseSharedObjectTarget(t *testing.T) {
	tests := []struct {
		target string
		path   string
		symbol string
		ok     bool
	}{
		{"embedder.so", "embedder.so", "Plugin", true},
		{"lib/embedder.so:Embedder", "lib/embedder.so", "Embedder", true},
		{"/abs/x.so:Y", "/abs/x.so", "Y", true},
		{"x.so:", "", "", false},
		{"catalog:core", "", "", false},
		{"embedder", "", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			path, symbol, ok := ParseSharedObjectTarget(tt.target)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.path, path)
			assert.Equal(t, tt.symbol, symbol)
		})
	}
}

func TestSharedObjectLoader(t *testing.T) {
	sp := &structPlugin{}
	var iface Plugin = ActivatorFunc(noop)
	fn := func(*hooks.Registrar) error { return nil }

	libs := map[string]fakeLibrary{
		"/plugins/a/a.so": {"Plugin": sp},
		"/plugins/b/b.so": {"Custom": &iface},
		"/plugins/c/c.so": {"Plugin": fn},
		"/plugins/d/d.so": {"Plugin": &fn},
		"/plugins/e/e.so": {"Plugin": 42},
	}
	var opened []string
	l := fakeLoader(libs, &opened)

	p, err := l.Load(Descriptor{ID: "a", Dir: "/plugins/a", ImportTarget: "a.so"})
	require.NoError(t, err)
	require.NoError(t, p.Activate(nil))
	assert.True(t, sp.activated)

	_, err = l.Load(Descriptor{ID: "b", Dir: "/plugins/b", ImportTarget: "b.so:Custom"})
	require.NoError(t, err)
	_, err = l.Load(Descriptor{ID: "c", ImportTarget: "/plugins/c/c.so"})
	require.NoError(t, err)
	_, err = l.Load(Descriptor{ID: "d", Dir: "/plugins/d", ImportTarget: "d.so"})
	require.NoError(t, err)

	_, err = l.Load(Descriptor{ID: "e", Dir: "/plugins/e", ImportTarget: "e.so"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrPluginLoad), "wrong symbol type")

	_, err = l.Load(Descriptor{ID: "a", Dir: "/plugins/a", ImportTarget: "a.so:Missing"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrPluginLoad), "missing symbol")

	_, err = l.Load(Descriptor{ID: "z", Dir: "/plugins/z", ImportTarget: "z.so"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrPluginLoad), "missing library")

	_, err = l.Load(Descriptor{ID: "core", ImportTarget: "catalog:core"})
	assert.True(t, errors.IsErrorCode(err, errors.ErrNotFound), "not a shared object")

	assert.Equal(t, "/plugins/a/a.so", opened[0])
}

func TestChainLoader(t *testing.T) {
	c := NewCatalog()
	require.NoError(t, c.Install(EntryPoint{Name: "core"}, ActivatorFunc(noop)))
	var opened []string
	chain := ChainLoader{c, nil, fakeLoader(nil, &opened)}

	p, err := chain.Load(Descriptor{ID: "core", ImportTarget: "catalog:core"})
	require.NoError(t, err)
	assert.NotNil(t, p)
	assert.Empty(t, opened)

	_, err = chain.Load(Descriptor{ID: "x", ImportTarget: "x.so"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPluginLoad))
	assert.Equal(t, []string{"x.so"}, opened)

	_, err = chain.Load(Descriptor{ID: "ghost", ImportTarget: "ghost"})
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrPluginLoad))
	assert.Equal(t, "ghost", errors.GetErrorDetails(err)["target"])
}
