// Package builtin holds the plugins compiled into the rag2f binary.
package builtin

import (
	"context"

	"github.com/rag2f/rag2f/internal/version"
	"github.com/rag2f/rag2f/pkg/hooks"
	"github.com/rag2f/rag2f/pkg/plugins"
)

const (
	// CoreID is the id of the core plugin.
	CoreID = "core"

	// EmbedderDefaultHook resolves the embedder to use for a request.
	EmbedderDefaultHook = "rag2f.embedder_default"

	// EmbedderDefaultKey is read when no plugin picked an embedder.
	EmbedderDefaultKey = "rag2f.embedder_default"
)

// Core is the plugin every rag2f binary ships with.
type Core struct{}

// Activate registers the core hooks. They run at priority 0 so plugins at
// the default priority see the payload first.
func (Core) Activate(r *hooks.Registrar) error {
	if _, err := r.Hook(embedderDefault, hooks.WithID(EmbedderDefaultHook), hooks.WithPriority(0)); err != nil {
		return err
	}
	return nil
}

// embedderDefault keeps a non-empty embedder name and otherwise falls back
// to the configured default.
func embedderDefault(_ context.Context, payload any, hc *hooks.Context) (any, error) {
	if name, ok := payload.(string); ok && name != "" {
		return name, nil
	}
	if payload != nil {
		if _, isString := payload.(string); !isString {
			return payload, nil
		}
	}

	cfg := hc.Config()
	if cfg == nil {
		return payload, nil
	}
	if v, ok := cfg.Get(EmbedderDefaultKey); ok {
		hc.Logger.Debug().Interface("embedder", v).Msg("Using configured default embedder")
		return v, nil
	}
	return payload, nil
}

// Catalog returns a catalog holding the compiled-in plugins.
func Catalog() *plugins.Catalog {
	c := plugins.NewCatalog()
	c.MustInstall(plugins.EntryPoint{
		Name:        CoreID,
		Package:     "rag2f",
		Version:     version.Version,
		Description: "Core hooks shipped with rag2f",
	}, Core{})
	return c
}
