package plugins

import (
	"path/filepath"
	goplugin "plugin"
	"strings"

	"github.com/rag2f/rag2f/pkg/errors"
	"github.com/rag2f/rag2f/pkg/hooks"
)

// Loader resolves a descriptor's target to a Plugin. A loader that does not
// handle a target returns a NOT_FOUND error so a ChainLoader can move on.
type Loader interface {
	Load(d Descriptor) (Plugin, error)
}

// ChainLoader tries loaders in order.
type ChainLoader []Loader

// Load implements Loader.
func (c ChainLoader) Load(d Descriptor) (Plugin, error) {
	for _, l := range c {
		if l == nil {
			continue
		}
		p, err := l.Load(d)
		if err == nil {
			return p, nil
		}
		if !errors.IsErrorCode(err, errors.ErrNotFound) {
			return nil, err
		}
	}
	return nil, errors.Newf(errors.ErrPluginLoad, "no loader resolves target %q of plugin %q", d.ImportTarget, d.ID).
		WithDetail("id", d.ID).
		WithDetail("target", d.ImportTarget)
}

// DefaultSymbol is looked up when a shared-object target names no symbol.
const DefaultSymbol = "Plugin"

// SharedObjectExt is the file extension of shared-object targets.
const SharedObjectExt = ".so"

// DefaultTarget is the target of a filesystem plugin whose manifest names
// none: <id>.so inside the plugin directory.
func DefaultTarget(id string) string {
	return id + SharedObjectExt
}

// SharedObjectLoader opens Go plugins built with -buildmode=plugin. Targets
// have the form "path.so" or "path.so:Symbol"; relative paths are resolved
// against the descriptor's Dir. The symbol may be a Plugin value, a pointer
// to one, or a func(*hooks.Registrar) error.
type SharedObjectLoader struct {
	open func(path string) (symbolLookup, error)
}

type symbolLookup interface {
	Lookup(name string) (goplugin.Symbol, error)
}

// NewSharedObjectLoader returns a loader backed by the plugin package.
func NewSharedObjectLoader() *SharedObjectLoader {
	return &SharedObjectLoader{
		open: func(path string) (symbolLookup, error) { return goplugin.Open(path) },
	}
}

// ParseSharedObjectTarget splits a target into library path and symbol. It
// reports false for targets that do not name a .so file.
func ParseSharedObjectTarget(target string) (path, symbol string, ok bool) {
	path, symbol = target, DefaultSymbol
	if i := strings.LastIndex(target, ":"); i > 0 && strings.HasSuffix(target[:i], SharedObjectExt) {
		path, symbol = target[:i], target[i+1:]
	}
	if !strings.HasSuffix(path, SharedObjectExt) || symbol == "" {
		return "", "", false
	}
	return path, symbol, true
}

// Load implements Loader.
func (l *SharedObjectLoader) Load(d Descriptor) (Plugin, error) {
	path, symbol, ok := ParseSharedObjectTarget(d.ImportTarget)
	if !ok {
		return nil, errors.Newf(errors.ErrNotFound, "target %q is not a shared object", d.ImportTarget).
			WithDetail("target", d.ImportTarget)
	}
	if !filepath.IsAbs(path) && d.Dir != "" {
		path = filepath.Join(d.Dir, path)
	}

	lib, err := l.open(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPluginLoad, "cannot open plugin library for %q", d.ID).
			WithDetail("id", d.ID).
			WithDetail("path", path)
	}

	sym, err := lib.Lookup(symbol)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrPluginLoad, "plugin library for %q has no symbol %s", d.ID, symbol).
			WithDetail("id", d.ID).
			WithDetail("path", path).
			WithDetail("symbol", symbol)
	}

	p, ok := asPlugin(sym)
	if !ok {
		return nil, errors.Newf(errors.ErrPluginLoad, "symbol %s of %q does not implement Activate", symbol, d.ID).
			WithDetail("id", d.ID).
			WithDetail("path", path).
			WithDetail("symbol", symbol)
	}
	return p, nil
}

// asPlugin adapts the supported symbol shapes.
func asPlugin(sym any) (Plugin, bool) {
	switch v := sym.(type) {
	case Plugin:
		return v, v != nil
	case *Plugin:
		if v == nil || *v == nil {
			return nil, false
		}
		return *v, true
	case func(*hooks.Registrar) error:
		return ActivatorFunc(v), v != nil
	case *func(*hooks.Registrar) error:
		if v == nil || *v == nil {
			return nil, false
		}
		return ActivatorFunc(*v), true
	default:
		return nil, false
	}
}
