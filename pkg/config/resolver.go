package config

import (
	"os"
	"sort"
	"strings"

	"github.com/go-viper/mapstructure/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/v2"
	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rag2f/rag2f/pkg/logging"
	"github.com/rs/zerolog"
)

// PluginsKey is the root of per-plugin configuration subtrees.
const PluginsKey = "plugins"

// Layer names reported by Resolved.Sources.
const (
	LayerDefaults    = "defaults"
	LayerDocument    = "document"
	LayerEnvironment = "environment"
)

// Resolved is a merged, read-only configuration tree. A Resolved returned by
// Scoped shares the data of its root and prefixes every read.
type Resolved struct {
	k       *koanf.Koanf
	sources map[string]string
	prefix  []string
}

// Option customizes Build.
type Option func(*buildOptions)

type buildOptions struct {
	codec  EnvCodec
	logger zerolog.Logger
}

// WithCodec replaces the environment codec (and therefore the prefix).
func WithCodec(codec EnvCodec) Option {
	return func(o *buildOptions) { o.codec = codec }
}

// WithLogger injects the logger used for build diagnostics.
func WithLogger(logger zerolog.Logger) Option {
	return func(o *buildOptions) { o.logger = logging.Component(logger, "config") }
}

// Build merges defaults, the document layer and the environment into one
// tree. defaults is required (it may be empty); a nil document layer and an
// empty environment are valid.
func Build(defaults, document map[string]any, environ map[string]string, opts ...Option) (*Resolved, error) {
	o := buildOptions{
		codec:  DefaultEnvCodec,
		logger: logging.GetLogger("config"),
	}
	for _, opt := range opts {
		opt(&o)
	}

	if defaults == nil {
		return nil, errors.New(errors.ErrInvalidInput, "defaults layer is required")
	}

	r := &Resolved{
		k:       koanf.New(PathDelimiter),
		sources: make(map[string]string),
	}

	// 1. Defaults
	if err := r.load(NormalizeDocument(defaults), LayerDefaults); err != nil {
		return nil, err
	}

	// 2. Document, merged on top
	if document != nil {
		if err := r.load(NormalizeDocument(document), LayerDocument); err != nil {
			return nil, err
		}
	}

	// 3. Environment, shallow paths first so deeper overrides survive
	overrides := make([]envOverride, 0, len(environ))
	for name, raw := range environ {
		segments, ok := o.codec.Decode(name)
		if !ok {
			if strings.HasPrefix(strings.ToUpper(name), o.codec.Prefix()+EnvSeparator) {
				o.logger.Debug().Str("variable", name).Msg("Ignoring environment variable with malformed key path")
			}
			continue
		}
		overrides = append(overrides, envOverride{name: name, segments: segments, raw: raw})
	}
	sort.Slice(overrides, func(i, j int) bool {
		a, b := overrides[i], overrides[j]
		if len(a.segments) != len(b.segments) {
			return len(a.segments) < len(b.segments)
		}
		if pa, pb := JoinPath(a.segments...), JoinPath(b.segments...); pa != pb {
			return pa < pb
		}
		return a.name < b.name
	})

	for _, ov := range overrides {
		path := JoinPath(ov.segments...)
		value := foldValue(ParseValue(ov.raw))

		r.k.Delete(path)
		r.dropSources(path)
		if err := r.load(nest(ov.segments, value), LayerEnvironment); err != nil {
			return nil, errors.Wrapf(err, errors.ErrConfigLoad, "failed to apply %s", ov.name).
				WithDetail("variable", ov.name)
		}
		o.logger.Trace().Str("variable", ov.name).Str("path", path).Msg("Applied environment override")
	}
	applied := len(overrides)

	o.logger.Debug().
		Int("keys", len(r.k.Keys())).
		Bool("document", document != nil).
		Int("envOverrides", applied).
		Msg("Configuration resolved")

	return r, nil
}

// load merges one layer and records which layer last set each leaf.
func (r *Resolved) load(layer map[string]any, name string) error {
	lk := koanf.New(PathDelimiter)
	if err := lk.Load(confmap.Provider(layer, ""), nil); err != nil {
		return errors.Wrapf(err, errors.ErrConfigLoad, "failed to read %s layer", name)
	}
	if err := r.k.Load(confmap.Provider(layer, ""), nil); err != nil {
		return errors.Wrapf(err, errors.ErrConfigLoad, "failed to merge %s layer", name)
	}
	for _, key := range lk.Keys() {
		r.sources[key] = name
	}
	return nil
}

type envOverride struct {
	name     string
	segments []string
	raw      string
}

// dropSources forgets the layer of every leaf at or below path.
func (r *Resolved) dropSources(path string) {
	for key := range r.sources {
		if key == path || strings.HasPrefix(key, path+PathDelimiter) {
			delete(r.sources, key)
		}
	}
}

// nest wraps value in maps so that it sits at segments.
func nest(segments []string, value any) map[string]any {
	var node any = value
	for i := len(segments) - 1; i >= 0; i-- {
		node = map[string]any{segments[i]: node}
	}
	return node.(map[string]any)
}

// Environ returns the process environment as a map.
func Environ() map[string]string {
	env := make(map[string]string)
	for _, kv := range os.Environ() {
		if i := strings.IndexByte(kv, '='); i > 0 {
			env[kv[:i]] = kv[i+1:]
		}
	}
	return env
}

func (r *Resolved) abs(path string) string {
	segments := append(append([]string{}, r.prefix...), SplitPath(path)...)
	return JoinPath(segments...)
}

// Get returns the value at path, or false when any segment is missing.
// Absence is never an error here; see Require.
func (r *Resolved) Get(path string) (any, bool) {
	key := r.abs(path)
	if key == "" {
		return r.k.Raw(), true
	}
	if !r.k.Exists(key) {
		return nil, false
	}
	return r.k.Get(key), true
}

// Require returns the value at path or a MISSING_REQUIRED_CONFIG error that
// names the environment variable able to supply it.
func (r *Resolved) Require(path string) (any, error) {
	if v, ok := r.Get(path); ok {
		return v, nil
	}
	full := r.abs(path)
	return nil, errors.Newf(errors.ErrMissingRequiredConfig, "required configuration %q is not set", full).
		WithDetail("path", full).
		WithDetail("env", DefaultEnvCodec.EncodePath(full))
}

// Exists reports whether path is present.
func (r *Resolved) Exists(path string) bool {
	_, ok := r.Get(path)
	return ok
}

// String returns the value at path as a string, or def when absent.
func (r *Resolved) String(path, def string) string {
	if !r.Exists(path) {
		return def
	}
	return r.k.String(r.abs(path))
}

// Int returns the value at path as an int64, or def when absent.
func (r *Resolved) Int(path string, def int64) int64 {
	if !r.Exists(path) {
		return def
	}
	return r.k.Int64(r.abs(path))
}

// Float returns the value at path as a float64, or def when absent.
func (r *Resolved) Float(path string, def float64) float64 {
	if !r.Exists(path) {
		return def
	}
	return r.k.Float64(r.abs(path))
}

// Bool returns the value at path as a bool, or def when absent.
func (r *Resolved) Bool(path string, def bool) bool {
	if !r.Exists(path) {
		return def
	}
	return r.k.Bool(r.abs(path))
}

// Strings returns the value at path as a string slice, or nil when absent. A
// plain string is read as a comma-separated list, so RAG2F__X=a,b and
// RAG2F__X='["a","b"]' agree.
func (r *Resolved) Strings(path string) []string {
	v, ok := r.Get(path)
	if !ok {
		return nil
	}
	s, isString := v.(string)
	if !isString {
		return r.k.Strings(r.abs(path))
	}
	out := []string{}
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Scoped returns the view rooted at plugins.<pluginID>. The id is resolved
// from the root, so scoping a scoped view does not nest.
func (r *Resolved) Scoped(pluginID string) *Resolved {
	return &Resolved{
		k:       r.k,
		sources: r.sources,
		prefix:  []string{PluginsKey, strings.ToLower(pluginID)},
	}
}

// Path returns the dotted root of this view ("" for the root tree).
func (r *Resolved) Path() string {
	return JoinPath(r.prefix...)
}

// Unmarshal decodes the subtree at path into out, using `koanf` struct tags.
func (r *Resolved) Unmarshal(path string, out any) error {
	conf := koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			Result:           out,
			TagName:          "koanf",
			WeaklyTypedInput: true,
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
		},
	}
	if err := r.k.UnmarshalWithConf(r.abs(path), out, conf); err != nil {
		return errors.Wrapf(err, errors.ErrConfigParse, "failed to decode configuration at %q", r.abs(path))
	}
	return nil
}

// Keys returns the sorted leaf keys of this view, relative to its root.
func (r *Resolved) Keys() []string {
	root := r.Path()
	var keys []string
	for _, key := range r.k.Keys() {
		if rel, ok := relative(root, key); ok {
			keys = append(keys, rel)
		}
	}
	sort.Strings(keys)
	return keys
}

// Raw returns a deep copy of this view's tree.
func (r *Resolved) Raw() map[string]any {
	v, ok := r.Get("")
	if !ok {
		return map[string]any{}
	}
	if m, isMap := v.(map[string]any); isMap {
		return m
	}
	return map[string]any{}
}

// Sources maps every leaf key of this view to the layer that set it.
func (r *Resolved) Sources() map[string]string {
	root := r.Path()
	out := make(map[string]string)
	for _, key := range r.k.Keys() {
		rel, ok := relative(root, key)
		if !ok {
			continue
		}
		out[rel] = r.sources[key]
	}
	return out
}

// Source returns the layer that set the leaf at path.
func (r *Resolved) Source(path string) (string, bool) {
	layer, ok := r.sources[r.abs(path)]
	if !ok || !r.Exists(path) {
		return "", false
	}
	return layer, true
}

func relative(root, key string) (string, bool) {
	if root == "" {
		return key, true
	}
	if !strings.HasPrefix(key, root+PathDelimiter) {
		return "", false
	}
	return strings.TrimPrefix(key, root+PathDelimiter), true
}
