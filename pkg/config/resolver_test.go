package config

import (
	"testing"
	"time"

	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func embedderDefaults() map[string]any {
	return map[string]any{
		"rag2f": map[string]any{"embedder_default": "local"},
	}
}

func build(t *testing.T, defaults, document map[string]any, environ map[string]string) *Resolved {
	t.Helper()
	r, err := Build(defaults, document, environ, WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	return r
}

func TestBuild_LayerPrecedence(t *testing.T) {
	document := map[string]any{"rag2f": map[string]any{"embedder_default": "openai"}}
	environ := map[string]string{"RAG2F__RAG2F__EMBEDDER_DEFAULT": "azure"}

	t.Run("environment wins", func(t *testing.T) {
		r := build(t, embedderDefaults(), document, environ)
		v, ok := r.Get("rag2f.embedder_default")
		require.True(t, ok)
		assert.Equal(t, "azure", v)
		src, _ := r.Source("rag2f.embedder_default")
		assert.Equal(t, LayerEnvironment, src)
	})

	t.Run("document beats defaults", func(t *testing.T) {
		r := build(t, embedderDefaults(), document, nil)
		v, ok := r.Get("rag2f.embedder_default")
		require.True(t, ok)
		assert.Equal(t, "openai", v)
	})

	t.Run("defaults only", func(t *testing.T) {
		r := build(t, embedderDefaults(), nil, map[string]string{})
		v, ok := r.Get("rag2f.embedder_default")
		require.True(t, ok)
		assert.Equal(t, "local", v)
		src, _ := r.Source("rag2f.embedder_default")
		assert.Equal(t, LayerDefaults, src)
	})
}

func TestBuild_RequiresDefaults(t *testing.T) {
	_, err := Build(nil, nil, nil)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrInvalidInput))
}

func TestBuild_DeepMerge(t *testing.T) {
	defaults := map[string]any{
		"db": map[string]any{
			"host":  "localhost",
			"port":  5432,
			"flags": []any{"a", "b"},
		},
	}
	document := map[string]any{
		"DB": map[string]any{
			"Port":  6543,
			"flags": []any{"c"},
		},
	}
	r := build(t, defaults, document, nil)

	assert.Equal(t, "localhost", r.String("db.host", ""))
	assert.Equal(t, int64(6543), r.Int("db.port", 0))
	v, _ := r.Get("db.flags")
	assert.Equal(t, []any{"c"}, v)
}

func TestBuild_EnvironmentLeafOverride(t *testing.T) {
	defaults := map[string]any{
		"plugins": map[string]any{
			"foo": map[string]any{"bar": 1, "keep": "yes"},
		},
		"scalar": "x",
	}
	environ := map[string]string{
		"RAG2F__PLUGINS__FOO__BAR":   "8",
		"RAG2F__NEW__DEEP__LEAF":     "true",
		"RAG2F__SCALAR__CHILD":       "3.5",
		"RAG2F__PLUGINS__FOO__EMPTY": "null",
		"RAG2F__PLUGINS__FOO__LIST":  `[1,"two"]`,
		"RAG2F__BAD____SEGMENT":      "ignored",
		"OTHER__PLUGINS__FOO__BAR":   "ignored",
	}
	r := build(t, defaults, nil, environ)

	v, ok := r.Get("plugins.foo.bar")
	require.True(t, ok)
	assert.Equal(t, int64(8), v)

	assert.Equal(t, "yes", r.String("plugins.foo.keep", ""), "siblings survive a leaf override")
	assert.True(t, r.Bool("new.deep.leaf", false), "ancestors are created")
	assert.Equal(t, 3.5, r.Float("scalar.child", 0), "a scalar ancestor is replaced by a map")

	v, ok = r.Get("plugins.foo.empty")
	assert.True(t, ok)
	assert.Nil(t, v)

	v, _ = r.Get("plugins.foo.list")
	assert.Equal(t, []any{int64(1), "two"}, v)

	assert.False(t, r.Exists("bad"))
}

func TestBuild_EnvironmentReplacesSubtree(t *testing.T) {
	defaults := map[string]any{"a": map[string]any{"b": 1, "c": 2}}
	r := build(t, defaults, nil, map[string]string{"RAG2F__A": `{"d": 4}`})

	assert.False(t, r.Exists("a.b"))
	assert.Equal(t, int64(4), r.Int("a.d", 0))
}

func TestBuild_EnvironmentJSONKeysAreFolded(t *testing.T) {
	document := map[string]any{"plugins": map[string]any{"foo": map[string]any{"Model": "x"}}}
	r := build(t, map[string]any{}, document, map[string]string{
		"RAG2F__PLUGINS__BAR": `{"Model": "gpt", "Nested": {"Deep": 1}, "List": [{"Key": true}]}`,
	})

	assert.Equal(t, "x", r.Scoped("foo").String("model", ""))

	bar := r.Scoped("bar")
	assert.Equal(t, "gpt", bar.String("model", ""))
	assert.Equal(t, int64(1), bar.Int("nested.deep", 0))
	assert.Equal(t, []any{map[string]any{"key": true}}, bar.Raw()["list"])
	assert.NotContains(t, bar.Raw(), "Model")
}

func TestBuild_EnvironmentOrderIgnoresNameCase(t *testing.T) {
	environ := map[string]string{
		"RAG2F__PLUGINS__FOO__BAR": "1",
		"rag2f__plugins__foo":      `{"baz": 2}`,
	}
	r := build(t, map[string]any{}, nil, environ)

	foo := r.Scoped("foo")
	assert.Equal(t, int64(1), foo.Int("bar", 0), "the deeper override is applied last")
	assert.Equal(t, int64(2), foo.Int("baz", 0))

	src, ok := r.Source("plugins.foo.bar")
	require.True(t, ok)
	assert.Equal(t, LayerEnvironment, src)
}

func TestBuild_EnvironmentSubtreeDropsStaleSources(t *testing.T) {
	defaults := map[string]any{"a": map[string]any{"b": 1}}
	r := build(t, defaults, nil, map[string]string{"RAG2F__A": `{"d": 4}`})

	_, ok := r.Source("a.b")
	assert.False(t, ok)
	src, _ := r.Source("a.d")
	assert.Equal(t, LayerEnvironment, src)
}

func TestResolved_StringsFromScalar(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"foo", []string{"foo"}},
		{"foo, bar", []string{"foo", "bar"}},
		{`["foo","bar"]`, []string{"foo", "bar"}},
		{"", []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			r := build(t, map[string]any{}, nil, map[string]string{"RAG2F__RAG2F__DISABLED_PLUGINS": tt.raw})
			assert.Equal(t, tt.want, r.Strings("rag2f.disabled_plugins"))
		})
	}
}

func TestResolved_Get(t *testing.T) {
	r := build(t, map[string]any{"a": map[string]any{"b": "c"}}, nil, nil)

	v, ok := r.Get("A.B")
	assert.True(t, ok, "paths are case-insensitive")
	assert.Equal(t, "c", v)

	_, ok = r.Get("a.missing")
	assert.False(t, ok)
	_, ok = r.Get("a.b.c")
	assert.False(t, ok)
	_, ok = r.Get("nope")
	assert.False(t, ok)
}

func TestResolved_Scoped(t *testing.T) {
	defaults := map[string]any{
		"plugins": map[string]any{"foo": map[string]any{"model": "small"}},
	}
	r := build(t, defaults, nil, map[string]string{"RAG2F__PLUGINS__FOO__BAR": "8"})

	foo := r.Scoped("FOO")
	assert.Equal(t, "plugins.foo", foo.Path())

	v, ok := foo.Get("bar")
	require.True(t, ok)
	assert.Equal(t, int64(8), v)

	root, _ := r.Get("plugins.foo.bar")
	assert.Equal(t, root, v, "scoped reads see the same data as the root")

	assert.Equal(t, []string{"bar", "model"}, foo.Keys())
	assert.Equal(t, map[string]any{"bar": int64(8), "model": "small"}, foo.Raw())
	assert.Equal(t, map[string]string{"bar": LayerEnvironment, "model": LayerDefaults}, foo.Sources())

	missing := r.Scoped("nobody")
	_, ok = missing.Get("anything")
	assert.False(t, ok)
	assert.Empty(t, missing.Raw())
	assert.Empty(t, missing.Keys())
}

func TestResolved_Require(t *testing.T) {
	r := build(t, map[string]any{"a": 1}, nil, nil)

	v, err := r.Require("a")
	require.NoError(t, err)
	assert.Equal(t, int64(1), v)

	_, err = r.Scoped("foo").Require("api_key")
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrMissingRequiredConfig))
	details := errors.GetErrorDetails(err)
	assert.Equal(t, "plugins.foo.api_key", details["path"])
	assert.Equal(t, "RAG2F__PLUGINS__FOO__API_KEY", details["env"])
}

func TestResolved_TypedGetters(t *testing.T) {
	r := build(t, map[string]any{
		"s": "text", "i": 7, "f": 1.25, "b": true, "l": []any{"x", "y"},
	}, nil, nil)

	assert.Equal(t, "text", r.String("s", "def"))
	assert.Equal(t, "def", r.String("missing", "def"))
	assert.Equal(t, int64(7), r.Int("i", 0))
	assert.Equal(t, int64(-1), r.Int("missing", -1))
	assert.Equal(t, 1.25, r.Float("f", 0))
	assert.True(t, r.Bool("b", false))
	assert.True(t, r.Bool("missing", true))
	assert.Equal(t, []string{"x", "y"}, r.Strings("l"))
	assert.Nil(t, r.Strings("missing"))
}

func TestResolved_Unmarshal(t *testing.T) {
	type embedder struct {
		Model     string        `koanf:"model"`
		Dimension int           `koanf:"dimension"`
		Timeout   time.Duration `koanf:"timeout"`
		Tags      []string      `koanf:"tags"`
	}

	r := build(t, map[string]any{
		"plugins": map[string]any{
			"embed": map[string]any{"model": "mini", "dimension": 384, "timeout": "2s"},
		},
	}, nil, map[string]string{
		"RAG2F__PLUGINS__EMBED__DIMENSION": "768",
		"RAG2F__PLUGINS__EMBED__TAGS":      "a,b",
	})

	var e embedder
	require.NoError(t, r.Scoped("embed").Unmarshal("", &e))
	assert.Equal(t, embedder{Model: "mini", Dimension: 768, Timeout: 2 * time.Second, Tags: []string{"a", "b"}}, e)
}

func TestResolved_KeysAndSources(t *testing.T) {
	r := build(t,
		map[string]any{"a": 1, "b": map[string]any{"c": 2}},
		map[string]any{"b": map[string]any{"d": 3}},
		map[string]string{"RAG2F__A": "9"},
	)

	assert.Equal(t, []string{"a", "b.c", "b.d"}, r.Keys())
	assert.Equal(t, map[string]string{
		"a":   LayerEnvironment,
		"b.c": LayerDefaults,
		"b.d": LayerDocument,
	}, r.Sources())

	_, ok := r.Source("missing")
	assert.False(t, ok)
}

func TestResolved_RawIsCopy(t *testing.T) {
	r := build(t, map[string]any{"a": map[string]any{"b": 1}}, nil, nil)

	raw := r.Raw()
	raw["a"].(map[string]any)["b"] = 99

	assert.Equal(t, int64(1), r.Int("a.b", 0))
}

func TestHolder(t *testing.T) {
	first := build(t, embedderDefaults(), nil, nil)
	second := build(t, embedderDefaults(), nil, map[string]string{"RAG2F__RAG2F__EMBEDDER_DEFAULT": "azure"})

	h := NewHolder(first)
	snapshot := h.Current()

	prev := h.Swap(second)
	assert.Same(t, first, prev)
	assert.Same(t, second, h.Current())

	// a snapshot taken before the swap is unaffected
	assert.Equal(t, "local", snapshot.String("rag2f.embedder_default", ""))
	assert.Equal(t, "azure", h.Current().String("rag2f.embedder_default", ""))
}

func TestHostDefaults(t *testing.T) {
	d := HostDefaults()
	r := build(t, d, nil, nil)

	assert.Equal(t, "local", r.String("rag2f.embedder_default", ""))
	assert.True(t, r.Exists("rag2f.disabled_plugins"))
	assert.Empty(t, r.Strings("rag2f.disabled_plugins"))

	d["rag2f"] = "mutated"
	assert.IsType(t, map[string]any{}, HostDefaults()["rag2f"], "each call returns a fresh copy")
}

func TestMergeDefaults(t *testing.T) {
	plugin := map[string]any{"plugins": map[string]any{"foo": map[string]any{"model": "a", "size": 1}}}
	host := map[string]any{"Plugins": map[string]any{"foo": map[string]any{"model": "b"}}}

	got := MergeDefaults(plugin, host)
	assert.Equal(t, map[string]any{
		"plugins": map[string]any{"foo": map[string]any{"model": "b", "size": int64(1)}},
	}, got)
	assert.Equal(t, "a", plugin["plugins"].(map[string]any)["foo"].(map[string]any)["model"], "inputs are not modified")

	got = MergeDefaults(
		map[string]any{"a": "scalar", "b": map[string]any{"c": 1}, "l": []any{1, 2}},
		map[string]any{"a": map[string]any{"x": true}, "b": "flat", "l": []any{3}},
	)
	assert.Equal(t, map[string]any{
		"a": map[string]any{"x": true},
		"b": "flat",
		"l": []any{int64(3)},
	}, got)
}
